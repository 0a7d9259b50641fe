package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// accountRecord is the persistence shape of domain.Account. ExternalID is a
// pointer so unlinked rows store NULL and do not collide on the unique index.
type accountRecord struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Email        string  `gorm:"size:255;not null;uniqueIndex"`
	ExternalID   *string `gorm:"size:191;uniqueIndex"`
	PasswordHash string  `gorm:"size:255;not null"`
	Verified     bool    `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (accountRecord) TableName() string {
	return "accounts"
}

func toRecord(a *domain.Account) *accountRecord {
	rec := &accountRecord{
		ID:           a.ID,
		Email:        domain.NormalizeEmail(a.Email),
		PasswordHash: a.PasswordHash,
		Verified:     a.Verified,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}

	if a.ExternalID != "" {
		ext := a.ExternalID
		rec.ExternalID = &ext
	}

	return rec
}

func (r *accountRecord) toDomain() *domain.Account {
	a := &domain.Account{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Verified:     r.Verified,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}

	if r.ExternalID != nil {
		a.ExternalID = *r.ExternalID
	}

	return a
}

// AccountRepository is the gorm implementation of ports.AccountRepository.
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a gorm-backed account repository.
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID implements ports.AccountRepository.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, domain.LookupByID, "id = ?", id)
}

// FindByEmail implements ports.AccountRepository.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, domain.LookupByEmail, "email = ?", domain.NormalizeEmail(email))
}

// FindByExternalID implements ports.AccountRepository.
func (r *AccountRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	if externalID == "" {
		return nil, domain.NewNotFoundError(domain.AccountEntity, domain.LookupByExternal, externalID)
	}

	return r.findOne(ctx, domain.LookupByExternal, "external_id = ?", externalID)
}

func (r *AccountRepository) findOne(ctx context.Context, by domain.Lookup, query, value string) (*domain.Account, error) {
	var rec accountRecord

	err := r.db.WithContext(ctx).Where(query, value).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError(domain.AccountEntity, by, value)
	}

	if err != nil {
		return nil, fmt.Errorf("find account by %s: %w", by, err)
	}

	return rec.toDomain(), nil
}

// Create implements ports.AccountRepository.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	rec := toRecord(account)

	err := r.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.duplicateOnCreate(ctx, account)
	}

	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	*account = *rec.toDomain()

	return nil
}

// duplicateOnCreate tells which unique index rejected the insert. The
// external identity is checked first: losing a link race is reported as a
// linked duplicate even when the email collides too.
func (r *AccountRepository) duplicateOnCreate(ctx context.Context, account *domain.Account) error {
	if account.ExternalID != "" {
		if _, err := r.FindByExternalID(ctx, account.ExternalID); err == nil {
			return &domain.DuplicateRecordError{Field: domain.DuplicateExternalID}
		}
	}

	return domain.NewDuplicateEmailError()
}

// LinkExternalID implements ports.AccountRepository. Without force the
// update is conditional on the row being unlinked or already holding
// externalID, which closes the window between a caller's read and this write.
func (r *AccountRepository) LinkExternalID(ctx context.Context, id, externalID string, force bool) (*domain.Account, error) {
	q := r.db.WithContext(ctx).Model(&accountRecord{}).Where("id = ?", id)
	if !force {
		q = q.Where("external_id IS NULL OR external_id = ?", externalID)
	}

	res := q.Updates(map[string]any{
		"external_id": externalID,
		"updated_at":  time.Now().UTC(),
	})

	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, &domain.DuplicateRecordError{Field: domain.DuplicateExternalID}
	}

	if res.Error != nil {
		return nil, fmt.Errorf("link external id: %w", res.Error)
	}

	account, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.RowsAffected == 0 && !account.LinkedTo(externalID) {
		return nil, &domain.DuplicateRecordError{Field: domain.DuplicateExternalID}
	}

	return account, nil
}

// Update implements ports.AccountRepository.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&accountRecord{}).Where("id = ?", account.ID).Updates(map[string]any{
		"email":         domain.NormalizeEmail(account.Email),
		"password_hash": account.PasswordHash,
		"verified":      account.Verified,
		"updated_at":    now,
	})

	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return domain.NewDuplicateEmailError()
	}

	if res.Error != nil {
		return fmt.Errorf("update account: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return domain.NewNotFoundError(domain.AccountEntity, domain.LookupByID, account.ID)
	}

	account.Email = domain.NormalizeEmail(account.Email)
	account.UpdatedAt = now

	return nil
}
