package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the lookup key.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when a write would violate email uniqueness.
	ErrEmailTaken = errors.New("email already taken")
)

// AccountRepository defines the storage contract for accounts.
// Implementations must enforce email uniqueness atomically and apply Update
// as a single operation.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindByID(ctx context.Context, id string) (*entity.Account, error)
	Insert(ctx context.Context, name, email, passwordHash string) (string, error)
	// Update overwrites name and email. A nil passwordHash leaves the stored hash unchanged.
	Update(ctx context.Context, id, name, email string, passwordHash *string, updatedAt time.Time) error
}
