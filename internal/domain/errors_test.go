package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrUnavailable,
		ErrInvalidThirdPartyToken,
		ErrInvalidPassword,
		ErrUserNotVerified,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b,
					"sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		by          Lookup
		value       string
		expectedMsg string
	}{
		{
			name:        "by email",
			entity:      "User",
			by:          LookupByEmail,
			value:       "a@example.com",
			expectedMsg: `User with email "a@example.com" not found`,
		},
		{
			name:        "by id",
			entity:      "User",
			by:          LookupByID,
			value:       "123",
			expectedMsg: `User with id "123" not found`,
		},
		{
			name:        "unspecified lookup",
			entity:      "Account",
			by:          LookupUnspecified,
			expectedMsg: "Account not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundError(tt.entity, tt.by, tt.value)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrNotFound)

			var notFound *NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, tt.entity, notFound.Entity)
			assert.Equal(t, tt.by, notFound.By)
		})
	}
}

func TestDuplicateRecordError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		linked      bool
		expectedMsg string
	}{
		{
			name:        "local email",
			err:         NewDuplicateEmailError(),
			linked:      false,
			expectedMsg: "duplicate email",
		},
		{
			name:        "linked with provider",
			err:         NewLinkedDuplicateError("Facebook"),
			linked:      true,
			expectedMsg: "Facebook account has been linked before",
		},
		{
			name:        "linked without provider",
			err:         &DuplicateRecordError{Field: DuplicateExternalID},
			linked:      true,
			expectedMsg: "external account has been linked before",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
			require.ErrorIs(t, tt.err, ErrConflict)

			var dup *DuplicateRecordError
			require.ErrorAs(t, tt.err, &dup)
			assert.Equal(t, tt.linked, dup.Linked())
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("Email is invalid", "Password is too short (minimum is 8 characters)")

	assert.Equal(t, "validation failed: Email is invalid; Password is too short (minimum is 8 characters)", err.Error())
	require.ErrorIs(t, err, ErrValidation)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	msgs := validation.FullMessages()
	assert.Len(t, msgs, 2)

	msgs[0] = "mutated"
	assert.Equal(t, "Email is invalid", validation.Messages[0], "FullMessages must return a copy")
}

func TestMissingParametersError(t *testing.T) {
	err := NewMissingParametersError("email", "password")

	assert.Equal(t, "missing parameters: email, password", err.Error())
	require.ErrorIs(t, err, ErrValidation)

	var missing *MissingParametersError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"email", "password"}, missing.Names)
}

func TestInvalidThirdPartyTokenError(t *testing.T) {
	err := NewInvalidThirdPartyTokenError("Facebook")

	assert.Equal(t, "invalid Facebook token", err.Error())
	assert.True(t, IsInvalidThirdPartyToken(err))

	var invalid *InvalidThirdPartyTokenError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Facebook", invalid.Provider)
}

func TestUnavailableError(t *testing.T) {
	tests := []struct {
		name        string
		service     string
		reason      string
		expectedMsg string
	}{
		{
			name:        "with reason",
			service:     "facebook",
			reason:      "connection timeout",
			expectedMsg: `service "facebook" unavailable: connection timeout`,
		},
		{
			name:        "without reason",
			service:     "database",
			reason:      "",
			expectedMsg: `service "database" unavailable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUnavailableError(tt.service, tt.reason)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrUnavailable)

			var unavailable *UnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Equal(t, tt.service, unavailable.Service)
			assert.Equal(t, tt.reason, unavailable.Reason)
		})
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		isFunc   func(error) bool
		expected bool
	}{
		{"IsNotFound with NotFoundError", NewNotFoundError("User", LookupByID, "1"), IsNotFound, true},
		{"IsNotFound with wrapped", fmt.Errorf("wrapped: %w", ErrNotFound), IsNotFound, true},
		{"IsNotFound with other error", ErrConflict, IsNotFound, false},
		{"IsNotFound with nil", nil, IsNotFound, false},

		{"IsConflict with duplicate", NewDuplicateEmailError(), IsConflict, true},
		{"IsConflict with linked duplicate", NewLinkedDuplicateError("Facebook"), IsConflict, true},
		{"IsConflict with other error", ErrNotFound, IsConflict, false},

		{"IsValidation with ValidationError", NewValidationError("Email is invalid"), IsValidation, true},
		{"IsValidation with missing params", NewMissingParametersError("email"), IsValidation, true},
		{"IsValidation with nil", nil, IsValidation, false},

		{"IsUnavailable with UnavailableError", NewUnavailableError("db", "timeout"), IsUnavailable, true},
		{"IsUnavailable with other error", ErrNotFound, IsUnavailable, false},

		{"IsInvalidThirdPartyToken wrapped", fmt.Errorf("auth: %w", NewInvalidThirdPartyTokenError("Facebook")), IsInvalidThirdPartyToken, true},
		{"IsInvalidThirdPartyToken other", ErrInvalidPassword, IsInvalidThirdPartyToken, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.isFunc(tt.err))
		})
	}
}

func TestErrorWrappingChain(t *testing.T) {
	t.Run("deeply wrapped NotFoundError", func(t *testing.T) {
		original := NewNotFoundError("User", LookupByEmail, "a@example.com")
		wrapped := fmt.Errorf("layer2: %w", fmt.Errorf("layer1: %w", original))

		assert.True(t, IsNotFound(wrapped))

		var notFound *NotFoundError
		require.ErrorAs(t, wrapped, &notFound)
		assert.Equal(t, LookupByEmail, notFound.By)
	})

	t.Run("deeply wrapped DuplicateRecordError", func(t *testing.T) {
		original := NewLinkedDuplicateError("Facebook")
		wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", original))

		var dup *DuplicateRecordError
		require.ErrorAs(t, wrapped, &dup)
		assert.Equal(t, "Facebook", dup.Provider)
	})
}
