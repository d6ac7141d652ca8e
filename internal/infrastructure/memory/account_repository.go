// Package memory provides an in-process AccountRepository used for local runs
// and tests. A single mutex guards both indexes, so the email uniqueness check
// and the write happen atomically.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]entity.Account
	byEmail map[string]string
	now     func() time.Time
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]entity.Account),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := r.byID[id]
	return &a, nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepository) Insert(ctx context.Context, name, email, passwordHash string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[email]; taken {
		return "", repository.ErrEmailTaken
	}
	now := r.now()
	a := entity.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[a.ID] = a
	r.byEmail[email] = a.ID
	return a.ID, nil
}

func (r *AccountRepository) Update(ctx context.Context, id, name, email string, passwordHash *string, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if owner, taken := r.byEmail[email]; taken && owner != id {
		return repository.ErrEmailTaken
	}
	delete(r.byEmail, a.Email)
	a.Name = name
	a.Email = email
	if passwordHash != nil {
		a.PasswordHash = *passwordHash
	}
	a.UpdatedAt = updatedAt
	r.byID[id] = a
	r.byEmail[email] = id
	return nil
}

// Count returns the number of stored accounts.
func (r *AccountRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
