// Package store persists accounts. The gorm implementation backs onto
// postgres or sqlite; the memory implementation serves tests and demos.
// Both enforce unique email and unique non-empty external_id.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jsamuelsen/account-gateway/internal/ports"
)

const pingTimeout = 5 * time.Second

// Config configures the account store.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// Store owns the database handle and exposes the account repository.
// It implements ports.HealthChecker.
type Store struct {
	Accounts ports.AccountRepository
	db       *gorm.DB
}

// Open connects to the configured store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Driver == DriverMemory {
		logger.InfoContext(ctx, "account store ready", slog.String("driver", cfg.Driver))
		return &Store{Accounts: NewMemoryAccountRepository()}, nil
	}

	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}

	logger.InfoContext(ctx, "account store ready",
		slog.String("driver", cfg.Driver),
		slog.Bool("auto_migrate", cfg.AutoMigrate),
	)

	return &Store{Accounts: NewAccountRepository(db), db: db}, nil
}

// Connect opens and validates a gorm connection pool. TranslateError is on so
// unique violations surface as gorm.ErrDuplicatedKey on every dialect.
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	dialector, err := GetDialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return db, nil
}

// Migrate creates or updates the accounts table and its unique indexes.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&accountRecord{}); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "account-store"
}

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("gorm sql db: %w", err)
	}

	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("gorm sql db: %w", err)
	}

	return sqlDB.Close()
}
