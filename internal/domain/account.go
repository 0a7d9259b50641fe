package domain

import (
	"strings"
	"time"
)

// AccountEntity is the entity name used in not found errors for accounts.
const AccountEntity = "User"

// Account is a first-party user record. ExternalID is empty until the account
// is linked to an identity provider; at most one account may hold a given
// non-empty ExternalID.
type Account struct {
	ID           string
	Email        string
	ExternalID   string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLinked reports whether the account carries an external identity.
func (a *Account) IsLinked() bool {
	return a.ExternalID != ""
}

// LinkedTo reports whether the account is linked to the given external identity.
func (a *Account) LinkedTo(externalID string) bool {
	return externalID != "" && a.ExternalID == externalID
}

// Clone returns a shallow copy so callers can mutate without affecting the original.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// RemoteProfile is the subset of an identity provider profile the gateway uses.
type RemoteProfile struct {
	ExternalID string
	Email      string
}

// NormalizeEmail lowercases and trims an email address. Every email written to
// or looked up in the account store goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
