package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/domain/service"
)

var validate = validator.New()

// AccountService owns account creation and profile/credential updates.
// It keeps no state of its own; every dependency is injected.
type AccountService struct {
	Repo      repo.AccountRepository
	Hasher    service.CredentialHasher
	Publisher EventPublisher
	Logger    *logrus.Logger
	Now       func() time.Time
}

func NewAccountService(repo repo.AccountRepository, hasher service.CredentialHasher, publisher EventPublisher, logger *logrus.Logger) *AccountService {
	return &AccountService{
		Repo:      repo,
		Hasher:    hasher,
		Publisher: publisher,
		Logger:    logger,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateAccountInput fields are optional; nil means "not supplied".
// An empty Password or OldPassword is treated as not supplied.
type UpdateAccountInput struct {
	Name        *string
	Email       *string
	Password    *string
	OldPassword *string
}

// NormalizeEmail is applied to every email before lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

func validPasswordLength(p string) error {
	if len(p) > MaxPasswordBytes {
		return invalid("password", "must be at most 72 bytes long")
	}
	return nil
}

func validEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return invalid("email", "must be a valid email")
	}
	return nil
}

// CreateAccount registers a new account. The plaintext password is hashed and
// never stored or echoed back.
func (s *AccountService) CreateAccount(ctx context.Context, in CreateAccountInput) error {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" {
		return invalid("name", "is required")
	}
	if err := validEmail(email); err != nil {
		return err
	}
	if in.Password == "" {
		return invalid("password", "is required")
	}
	if err := validPasswordLength(in.Password); err != nil {
		return err
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return s.fail("hash password", err)
	}

	id, err := s.Repo.Insert(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return ErrDuplicateEmail
		}
		return s.fail("insert account", err)
	}
	accountsCreated.Add(1)

	s.publish(ctx, AccountEvent{
		Type:       EventAccountCreated,
		AccountID:  id,
		Name:       name,
		Email:      email,
		OccurredAt: s.Now(),
	})
	return nil
}

// UpdateAccount applies an all-or-nothing change to name, email and password.
// A new password is only accepted together with the current one.
func (s *AccountService) UpdateAccount(ctx context.Context, accountID string, in UpdateAccountInput) error {
	acc, err := s.Repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return s.fail("find account by id", err)
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if in.Email != nil {
		if err := validEmail(NormalizeEmail(*in.Email)); err != nil {
			return err
		}
	}

	name, email := acc.Name, acc.Email
	var changed []string

	if in.Email != nil {
		if e := NormalizeEmail(*in.Email); e != acc.Email {
			if err := s.ensureEmailFree(ctx, e, acc.ID); err != nil {
				return err
			}
			email = e
			changed = append(changed, "email")
		}
	}
	if in.Name != nil {
		if n := strings.TrimSpace(*in.Name); n != acc.Name {
			name = n
			changed = append(changed, "name")
		}
	}

	password := deref(in.Password)
	oldPassword := deref(in.OldPassword)
	if password != "" && oldPassword == "" {
		return ErrMissingOldPassword
	}
	if err := validPasswordLength(password); err != nil {
		return err
	}

	var newHash *string
	if password != "" {
		if !s.Hasher.Verify(oldPassword, acc.PasswordHash) {
			return ErrIncorrectOldPassword
		}
		h, err := s.Hasher.Hash(password)
		if err != nil {
			return s.fail("hash password", err)
		}
		newHash = &h
		changed = append(changed, "password")
	}

	now := s.Now()
	if err := s.Repo.Update(ctx, acc.ID, name, email, newHash, now); err != nil {
		switch {
		case errors.Is(err, repo.ErrEmailTaken):
			return ErrDuplicateEmail
		case errors.Is(err, repo.ErrNotFound):
			return ErrAccountNotFound
		}
		return s.fail("update account", err)
	}
	accountsUpdated.Add(1)

	ev := AccountEvent{
		Type:       EventAccountUpdated,
		AccountID:  acc.ID,
		Name:       name,
		Email:      email,
		Changed:    changed,
		OccurredAt: now,
	}
	if email != acc.Email {
		ev.PrevEmail = acc.Email
	}
	s.publish(ctx, ev)
	return nil
}

// ensureEmailFree fails with ErrDuplicateEmail when email belongs to an account
// other than ownerID. This is only the fast path; the store enforces uniqueness.
func (s *AccountService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.Repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil
	case err != nil:
		return s.fail("find account by email", err)
	case existing.ID != ownerID:
		return ErrDuplicateEmail
	}
	return nil
}

func (s *AccountService) fail(op string, err error) error {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("op", op).Error("account operation failed")
	}
	return internal(op, err)
}

func (s *AccountService) publish(ctx context.Context, ev AccountEvent) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"event":      ev.Type,
			"account_id": ev.AccountID,
		}).Warn("publish account event failed")
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
