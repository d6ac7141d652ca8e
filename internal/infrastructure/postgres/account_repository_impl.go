package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

const (
	codeUniqueViolation           = "23505"
	codeInvalidTextRepresentation = "22P02"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

const selectAccount = `
	SELECT id, name, email, password_hash, created_at, updated_at
	FROM accounts
`

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	a, err := r.scanOne(r.db.QueryRow(ctx, selectAccount+`WHERE id = $1`, id))
	if err != nil {
		return nil, classifyByID(err, "find account by id")
	}
	return a, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	a, err := r.scanOne(r.db.QueryRow(ctx, selectAccount+`WHERE email = $1`, email))
	if err != nil {
		return nil, classify(err, "find account by email")
	}
	return a, nil
}

func (r *AccountRepository) Insert(ctx context.Context, name, email, passwordHash string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, email, passwordHash).Scan(&id)
	if err != nil {
		return "", classify(err, "insert account")
	}
	return id, nil
}

// Update writes every column in one statement. COALESCE keeps the stored hash
// when passwordHash is nil.
func (r *AccountRepository) Update(ctx context.Context, id, name, email string, passwordHash *string, updatedAt time.Time) error {
	res, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET name = $1, email = $2, password_hash = COALESCE($3, password_hash), updated_at = $4
		WHERE id = $5
	`, name, email, passwordHash, updatedAt, id)
	if err != nil {
		return classifyByID(err, "update account")
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) scanOne(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// classify maps driver errors onto repository errors and wraps the rest.
func classify(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return repository.ErrEmailTaken
	}
	return pkgerrors.Wrap(err, op)
}

// classifyByID is classify for statements keyed by id. A malformed uuid can
// never match a row, so it reads as not found.
func classifyByID(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeInvalidTextRepresentation {
		return repository.ErrNotFound
	}
	return classify(err, op)
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
