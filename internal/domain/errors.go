// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/gRPC/etc by adapters.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness conflict such as a duplicate email or
	// an external identity already linked to another account.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")

	// ErrInvalidThirdPartyToken indicates the identity provider rejected the
	// access token or could not be used to resolve a profile.
	ErrInvalidThirdPartyToken = errors.New("invalid third-party token")

	// ErrInvalidPassword indicates a password did not match the stored credential.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotVerified indicates the account exists but has not been confirmed.
	ErrUserNotVerified = errors.New("user is not verified")
)

// Lookup names the attribute a record was searched by.
type Lookup string

// Lookups used by the account store.
const (
	LookupUnspecified Lookup = ""
	LookupByEmail     Lookup = "email"
	LookupByID        Lookup = "id"
	LookupByExternal  Lookup = "external_id"
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	By     Lookup
	Value  string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.By != LookupUnspecified {
		return fmt.Sprintf("%s with %s %q not found", e.Entity, e.By, e.Value)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity string, by Lookup, value string) error {
	return &NotFoundError{Entity: entity, By: by, Value: value}
}

// DuplicateField names the unique attribute that collided.
type DuplicateField string

// Unique attributes of an account.
const (
	DuplicateEmail      DuplicateField = "email"
	DuplicateExternalID DuplicateField = "external_id"
)

// DuplicateRecordError reports a uniqueness violation. Provider is set when
// the collision is on an external identity and the caller knows which
// provider issued it.
type DuplicateRecordError struct {
	Field    DuplicateField
	Provider string
}

// Error implements the error interface.
func (e *DuplicateRecordError) Error() string {
	if e.Field == DuplicateExternalID {
		if e.Provider != "" {
			return e.Provider + " account has been linked before"
		}

		return "external account has been linked before"
	}

	return fmt.Sprintf("duplicate %s", e.Field)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *DuplicateRecordError) Unwrap() error {
	return ErrConflict
}

// Linked reports whether the collision is on an external identity.
func (e *DuplicateRecordError) Linked() bool {
	return e.Field == DuplicateExternalID
}

// NewDuplicateEmailError creates a local duplicate error.
func NewDuplicateEmailError() error {
	return &DuplicateRecordError{Field: DuplicateEmail}
}

// NewLinkedDuplicateError creates an external-linked duplicate error.
func NewLinkedDuplicateError(provider string) error {
	return &DuplicateRecordError{Field: DuplicateExternalID, Provider: provider}
}

// ValidationError carries human-readable full messages, one per failed rule.
type ValidationError struct {
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// FullMessages returns a copy of the messages.
func (e *ValidationError) FullMessages() []string {
	out := make([]string, len(e.Messages))
	copy(out, e.Messages)

	return out
}

// NewValidationError creates a validation error with one or more full messages.
func NewValidationError(messages ...string) error {
	return &ValidationError{Messages: messages}
}

// MissingParametersError lists required request parameters that were absent.
type MissingParametersError struct {
	Names []string
}

// Error implements the error interface.
func (e *MissingParametersError) Error() string {
	return "missing parameters: " + strings.Join(e.Names, ", ")
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *MissingParametersError) Unwrap() error {
	return ErrValidation
}

// NewMissingParametersError creates a missing parameters error.
func NewMissingParametersError(names ...string) error {
	return &MissingParametersError{Names: names}
}

// InvalidThirdPartyTokenError reports that a provider token could not be
// exchanged for a profile. The provider's own failure is deliberately not kept.
type InvalidThirdPartyTokenError struct {
	Provider string
}

// Error implements the error interface.
func (e *InvalidThirdPartyTokenError) Error() string {
	return fmt.Sprintf("invalid %s token", e.Provider)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *InvalidThirdPartyTokenError) Unwrap() error {
	return ErrInvalidThirdPartyToken
}

// NewInvalidThirdPartyTokenError creates an invalid third-party token error.
func NewInvalidThirdPartyTokenError(provider string) error {
	return &InvalidThirdPartyTokenError{Provider: provider}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsInvalidThirdPartyToken checks if an error is an invalid third-party token error.
func IsInvalidThirdPartyToken(err error) bool {
	return errors.Is(err, ErrInvalidThirdPartyToken)
}
