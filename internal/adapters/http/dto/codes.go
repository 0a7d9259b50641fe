// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"net/http"
	"strconv"
)

// StatusCode is the numeric application code carried in every response
// envelope. Codes are five digits; the leading three select the Family.
type StatusCode int

// Application codes. The set is closed: new codes may be added, existing
// codes never change meaning.
const (
	CodeSuccess StatusCode = 0

	CodeBadRequest            StatusCode = 40000
	CodeEmptyParams           StatusCode = 40001
	CodeDuplicateRecord       StatusCode = 40002
	CodeDuplicateLinkedRecord StatusCode = 40003

	CodeUnauthorized StatusCode = 40100
	CodeUnverified   StatusCode = 40101

	CodeInvalidAccessToken StatusCode = 40310

	CodeRecordNotFound        StatusCode = 40400
	CodeRecordNotFoundByEmail StatusCode = 40401
	CodeRecordNotFoundByID    StatusCode = 40402

	CodeUnprocessableEntity StatusCode = 42200

	CodeInvalidToken           StatusCode = 49800
	CodeExpiredToken           StatusCode = 49801
	CodeInvalidThirdPartyToken StatusCode = 49802
	CodeInvalidPassword        StatusCode = 49803

	CodeInternal StatusCode = 50000
)

// Family groups codes by their leading three digits.
type Family string

// Code families.
const (
	FamilySuccess       Family = "SUCCESS"
	FamilyBadRequest    Family = "BAD_REQUEST"
	FamilyUnauthorized  Family = "UNAUTHORIZED"
	FamilyForbidden     Family = "FORBIDDEN"
	FamilyNotFound      Family = "NOT_FOUND"
	FamilyUnprocessable Family = "UNPROCESSABLE"
	FamilyInvalidToken  Family = "INVALID_TOKEN"
	FamilyInternal      Family = "INTERNAL"
	FamilyUnknown       Family = "UNKNOWN"
)

const familyDivisor = 100

// Definition is the fixed metadata of a code.
type Definition struct {
	Code       StatusCode
	Family     Family
	HTTPStatus int
	Message    string
}

var families = map[int]Family{
	0:   FamilySuccess,
	400: FamilyBadRequest,
	401: FamilyUnauthorized,
	403: FamilyForbidden,
	404: FamilyNotFound,
	422: FamilyUnprocessable,
	498: FamilyInvalidToken,
	500: FamilyInternal,
}

// definitions is initialised once and never written afterwards.
var definitions = map[StatusCode]Definition{
	CodeSuccess: {CodeSuccess, FamilySuccess, http.StatusOK, "success"},

	CodeBadRequest:            {CodeBadRequest, FamilyBadRequest, http.StatusBadRequest, "Bad request"},
	CodeEmptyParams:           {CodeEmptyParams, FamilyBadRequest, http.StatusUnauthorized, "Auth Parameters are missing"},
	CodeDuplicateRecord:       {CodeDuplicateRecord, FamilyBadRequest, http.StatusBadRequest, "Email already exists"},
	CodeDuplicateLinkedRecord: {CodeDuplicateLinkedRecord, FamilyBadRequest, http.StatusBadRequest, "Account has been linked before"},

	CodeUnauthorized: {CodeUnauthorized, FamilyUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	CodeUnverified:   {CodeUnverified, FamilyUnauthorized, http.StatusUnauthorized, "User is not verified"},

	CodeInvalidAccessToken: {CodeInvalidAccessToken, FamilyForbidden, http.StatusUnauthorized, "Invalid access token"},

	CodeRecordNotFound:        {CodeRecordNotFound, FamilyNotFound, http.StatusNotFound, "Record is not found"},
	CodeRecordNotFoundByEmail: {CodeRecordNotFoundByEmail, FamilyNotFound, http.StatusUnauthorized, "User record is not found"},
	CodeRecordNotFoundByID:    {CodeRecordNotFoundByID, FamilyNotFound, http.StatusNotFound, "User record is not found"},

	CodeUnprocessableEntity: {CodeUnprocessableEntity, FamilyUnprocessable, http.StatusBadRequest, "Attributes are invalid"},

	CodeInvalidToken:           {CodeInvalidToken, FamilyInvalidToken, http.StatusUnauthorized, "Invalid token"},
	CodeExpiredToken:           {CodeExpiredToken, FamilyInvalidToken, http.StatusUnauthorized, "Token has expired"},
	CodeInvalidThirdPartyToken: {CodeInvalidThirdPartyToken, FamilyInvalidToken, http.StatusBadRequest, "Invalid third-party token"},
	CodeInvalidPassword:        {CodeInvalidPassword, FamilyInvalidToken, http.StatusUnauthorized, "Invalid password"},

	CodeInternal: {CodeInternal, FamilyInternal, http.StatusInternalServerError, "an internal error occurred"},
}

// Lookup returns the definition of a code. The returned value is a copy.
func Lookup(code StatusCode) (Definition, bool) {
	def, ok := definitions[code]
	return def, ok
}

// Codes returns every registered code.
func Codes() []StatusCode {
	out := make([]StatusCode, 0, len(definitions))
	for code := range definitions {
		out = append(out, code)
	}

	return out
}

// FamilyOf derives the family from the leading three digits of a code.
func FamilyOf(code StatusCode) Family {
	if f, ok := families[int(code)/familyDivisor]; ok {
		return f
	}

	return FamilyUnknown
}

// HTTPStatus returns the default HTTP status of a code, or 500 for unknown codes.
func (c StatusCode) HTTPStatus() int {
	if def, ok := definitions[c]; ok {
		return def.HTTPStatus
	}

	return http.StatusInternalServerError
}

// Message returns the default message of a code.
func (c StatusCode) Message() string {
	return definitions[c].Message
}

// String implements fmt.Stringer.
func (c StatusCode) String() string {
	return strconv.Itoa(int(c))
}
