package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/barberia/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryAccountRepository is a mutex-guarded in-memory implementation of
// AccountRepository, used by the unit tests.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*models.Account
	byEmail  map[string]uuid.UUID
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[uuid.UUID]*models.Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[account.Email]; taken {
		return ErrDuplicateEmail
	}

	account.ID = uuid.New()
	account.Active = true
	account.CreatedAt = time.Now()
	account.LastAccessAt = account.CreatedAt

	cp := *account
	r.accounts[account.ID] = &cp
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getByEmailLocked(email)
}

func (r *MemoryAccountRepository) GetActiveByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, err := r.getByEmailLocked(email)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrNotFound
	}
	return account, nil
}

func (r *MemoryAccountRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.PasswordHash = hash
	return nil
}

func (r *MemoryAccountRepository) UpdateLastAccess(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.LastAccessAt = time.Now()
	return nil
}

func (r *MemoryAccountRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, account.Email)
	delete(r.accounts, id)
	return nil
}

func (r *MemoryAccountRepository) getByEmailLocked(email string) (*models.Account, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.accounts[id]
	return &cp, nil
}
