// Package oauth is the token layer: it processes password and assertion
// grants, issues and verifies bearer access tokens, and formats its own
// failures as RFC 6749 error bodies.
package oauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is a token-layer failure with an RFC 6749 error name.
type Error struct {
	Name        string
	Description string
	Status      int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description != "" {
		return e.Name + ": " + e.Description
	}

	return e.Name
}

// Is matches any *Error with the same name, so described copies still match
// their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Name == e.Name
}

// WithDescription returns a copy carrying a more specific description.
func (e *Error) WithDescription(description string) *Error {
	c := *e
	c.Description = description

	return &c
}

// Sentinel token-layer errors.
var (
	ErrInvalidRequest = &Error{
		Name:        "invalid_request",
		Description: "The request is missing a required parameter or is otherwise malformed.",
		Status:      http.StatusBadRequest,
	}
	ErrInvalidGrant = &Error{
		Name:        "invalid_grant",
		Description: "The provided authorization grant is invalid, expired or revoked.",
		Status:      http.StatusBadRequest,
	}
	ErrUnsupportedGrantType = &Error{
		Name:        "unsupported_grant_type",
		Description: "The authorization grant type is not supported by the authorization server.",
		Status:      http.StatusBadRequest,
	}
	ErrInvalidToken = &Error{
		Name:        "invalid_token",
		Description: "The access token is invalid.",
		Status:      http.StatusUnauthorized,
	}
	ErrServerError = &Error{
		Name:        "server_error",
		Description: "The authorization server encountered an unexpected condition.",
		Status:      http.StatusInternalServerError,
	}
)

// ErrTokenExpired is joined with ErrInvalidToken when a token is past its expiry.
var ErrTokenExpired = errors.New("access token expired")

func tokenExpired() error {
	return fmt.Errorf("%w: %w", ErrInvalidToken.WithDescription("The access token expired."), ErrTokenExpired)
}

// RenderError writes the token layer's own error body:
//
//	{"error": "invalid_grant", "error_description": "..."}
//
// Errors that are not *Error are reported as server_error.
func RenderError(c *gin.Context, err error) {
	var oe *Error
	if !errors.As(err, &oe) {
		oe = ErrServerError
	}

	if oe.Status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", fmt.Sprintf("Bearer error=%q", oe.Name))
	}

	c.AbortWithStatusJSON(oe.Status, gin.H{
		"error":             oe.Name,
		"error_description": oe.Description,
	})
}
