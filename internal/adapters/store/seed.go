package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/account-gateway/internal/domain"
	"github.com/jsamuelsen/account-gateway/internal/ports"
)

// SeedAccounts is the number of demo accounts created by Seed.
const SeedAccounts = 3

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// Seed creates verified demo accounts user1@example.com..user3@example.com.
// Existing accounts are left untouched, so repeated runs are harmless.
func Seed(ctx context.Context, accounts ports.AccountRepository, hasher ports.PasswordHasher, logger *slog.Logger) error {
	hash, err := hasher.Hash(SeedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	for i := 1; i <= SeedAccounts; i++ {
		email := fmt.Sprintf("user%d@example.com", i)

		_, err := accounts.FindByEmail(ctx, email)
		if err == nil {
			continue
		}

		if !domain.IsNotFound(err) {
			return fmt.Errorf("seed %s: %w", email, err)
		}

		account := &domain.Account{Email: email, PasswordHash: hash, Verified: true}
		if err := accounts.Create(ctx, account); err != nil {
			return fmt.Errorf("seed %s: %w", email, err)
		}

		logger.InfoContext(ctx, "seeded account", slog.String("account_id", account.ID), slog.String("email", email))
	}

	return nil
}
