// Package app holds the account use cases: resolving identity provider
// tokens to accounts, password registration and login, and profile updates.
//
// Services depend on ports only. Each write-path use case runs as an
// Operation (validate, perform, verify, archive) so nothing reaches the
// account store until the inputs and any provider response have been checked.
package app
