package app

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// Password length bounds, in characters.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var credentialCheck = validator.New()

// emailProblems returns the full messages for an unusable email.
func emailProblems(email string) []string {
	if email == "" {
		return []string{"Email can't be blank"}
	}

	if credentialCheck.Var(email, "email") != nil {
		return []string{"Email is invalid"}
	}

	return nil
}

// passwordProblems returns the full messages for an unusable password. attr
// names the field, e.g. "Password".
func passwordProblems(attr, password string) []string {
	n := utf8.RuneCountInString(password)

	switch {
	case n == 0:
		return []string{attr + " can't be blank"}
	case n < MinPasswordLength:
		return []string{fmt.Sprintf("%s is too short (minimum is %d characters)", attr, MinPasswordLength)}
	case n > MaxPasswordLength:
		return []string{fmt.Sprintf("%s is too long (maximum is %d characters)", attr, MaxPasswordLength)}
	}

	return nil
}

func invalidWhen(messages ...[]string) error {
	var all []string
	for _, m := range messages {
		all = append(all, m...)
	}

	if len(all) == 0 {
		return nil
	}

	return domain.NewValidationError(all...)
}
