package repository

import (
	"context"
	"sync"
	"time"

	"authgate/internal/domain"
)

// MemoryAccountRepository es la implementación de referencia en memoria.
// Garantiza las mismas invariantes que Postgres: email único y consumo atómico del reset token.
type MemoryAccountRepository struct {
	mu      sync.Mutex
	byID    map[string]domain.Account
	byEmail map[string]string
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[account.Email]; ok {
		return ErrDuplicateEmail
	}
	r.byID[account.ID] = account
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byID[id]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return domain.Account{}, ErrAccountNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryAccountRepository) Update(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[account.ID]
	if !ok {
		return ErrAccountNotFound
	}
	stored.Name = account.Name
	stored.PasswordHash = account.PasswordHash
	stored.UpdatedAt = time.Now().UTC()
	r.byID[account.ID] = stored
	return nil
}

func (r *MemoryAccountRepository) SetResetToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	stored.ResetToken = token
	stored.UpdatedAt = time.Now().UTC()
	r.byID[id] = stored
	return nil
}

func (r *MemoryAccountRepository) ConsumeResetToken(_ context.Context, id, token, passwordHash string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok || token == "" || stored.ResetToken != token {
		return domain.Account{}, ErrAccountNotFound
	}
	stored.PasswordHash = passwordHash
	stored.ResetToken = ""
	stored.UpdatedAt = time.Now().UTC()
	r.byID[id] = stored
	return stored, nil
}
