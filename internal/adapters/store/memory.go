package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// MemoryAccountRepository is an in-process ports.AccountRepository with the
// same uniqueness rules as the database schema.
type MemoryAccountRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.Account
	byEmail    map[string]string
	byExternal map[string]string
}

// NewMemoryAccountRepository creates an empty repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:       make(map[string]*domain.Account),
		byEmail:    make(map[string]string),
		byExternal: make(map[string]string),
	}
}

// FindByID implements ports.AccountRepository.
func (m *MemoryAccountRepository) FindByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if a, ok := m.byID[id]; ok {
		return a.Clone(), nil
	}

	return nil, domain.NewNotFoundError(domain.AccountEntity, domain.LookupByID, id)
}

// FindByEmail implements ports.AccountRepository.
func (m *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.byEmail[email]; ok {
		return m.byID[id].Clone(), nil
	}

	return nil, domain.NewNotFoundError(domain.AccountEntity, domain.LookupByEmail, email)
}

// FindByExternalID implements ports.AccountRepository.
func (m *MemoryAccountRepository) FindByExternalID(_ context.Context, externalID string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.byExternal[externalID]; ok && externalID != "" {
		return m.byID[id].Clone(), nil
	}

	return nil, domain.NewNotFoundError(domain.AccountEntity, domain.LookupByExternal, externalID)
}

// Create implements ports.AccountRepository.
func (m *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := domain.NormalizeEmail(account.Email)

	if account.ExternalID != "" {
		if _, taken := m.byExternal[account.ExternalID]; taken {
			return &domain.DuplicateRecordError{Field: domain.DuplicateExternalID}
		}
	}

	if _, taken := m.byEmail[email]; taken {
		return domain.NewDuplicateEmailError()
	}

	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	account.Email = email
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := account.Clone()
	m.byID[stored.ID] = stored
	m.byEmail[email] = stored.ID

	if stored.ExternalID != "" {
		m.byExternal[stored.ExternalID] = stored.ID
	}

	return nil
}

// LinkExternalID implements ports.AccountRepository.
func (m *MemoryAccountRepository) LinkExternalID(_ context.Context, id, externalID string, force bool) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError(domain.AccountEntity, domain.LookupByID, id)
	}

	if stored.LinkedTo(externalID) {
		return stored.Clone(), nil
	}

	if owner, taken := m.byExternal[externalID]; taken && owner != id {
		return nil, &domain.DuplicateRecordError{Field: domain.DuplicateExternalID}
	}

	if stored.IsLinked() && !force {
		return nil, &domain.DuplicateRecordError{Field: domain.DuplicateExternalID}
	}

	if stored.IsLinked() {
		delete(m.byExternal, stored.ExternalID)
	}

	stored.ExternalID = externalID
	stored.UpdatedAt = time.Now().UTC()
	m.byExternal[externalID] = id

	return stored.Clone(), nil
}

// Update implements ports.AccountRepository.
func (m *MemoryAccountRepository) Update(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[account.ID]
	if !ok {
		return domain.NewNotFoundError(domain.AccountEntity, domain.LookupByID, account.ID)
	}

	email := domain.NormalizeEmail(account.Email)
	if owner, taken := m.byEmail[email]; taken && owner != account.ID {
		return domain.NewDuplicateEmailError()
	}

	delete(m.byEmail, stored.Email)
	m.byEmail[email] = stored.ID

	stored.Email = email
	stored.PasswordHash = account.PasswordHash
	stored.Verified = account.Verified
	stored.UpdatedAt = time.Now().UTC()

	account.Email = email
	account.UpdatedAt = stored.UpdatedAt

	return nil
}
