package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/infrastructure/memory"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// --- helpers ---

func strp(s string) *string { return &s }

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []AccountEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// countingHasher wraps a real hasher and counts Hash calls.
type countingHasher struct {
	inner   *helpers.BcryptHasher
	mu      sync.Mutex
	hashes  int
	hashErr error
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return h.inner.Hash(plain)
}

func (h *countingHasher) Verify(plain, hash string) bool { return h.inner.Verify(plain, hash) }

type fixture struct {
	svc    *AccountService
	store  *memory.AccountRepository
	hasher *countingHasher
	pub    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bh, err := helpers.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	f := &fixture{
		store:  memory.NewAccountRepository(),
		hasher: &countingHasher{inner: bh},
		pub:    &recordingPublisher{},
	}
	f.svc = NewAccountService(f.store, f.hasher, f.pub, discardLogger())
	return f
}

func (f *fixture) create(t *testing.T, name, email, password string) *entity.Account {
	t.Helper()
	require.NoError(t, f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: name, Email: email, Password: password}))
	a, err := f.store.FindByEmail(context.Background(), NormalizeEmail(email))
	require.NoError(t, err)
	return a
}

func (f *fixture) load(t *testing.T, id string) entity.Account {
	t.Helper()
	a, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return *a
}

// --- CreateAccount ---

func TestCreateAccount_Success(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, "Ann", "ann@x.com", "p4ss")

	assert.Equal(t, "Ann", a.Name)
	assert.NotEqual(t, "p4ss", a.PasswordHash)
	assert.True(t, f.hasher.Verify("p4ss", a.PasswordHash))
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	require.Len(t, f.pub.events, 1)
	ev := f.pub.events[0]
	assert.Equal(t, EventAccountCreated, ev.Type)
	assert.Equal(t, a.ID, ev.AccountID)
	assert.Equal(t, "ann@x.com", ev.Email)
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.create(t, "A", "a@x.com", "p")
	hashesBefore := f.hasher.hashes

	err := f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "B", Email: "a@x.com", Password: "p"})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, hashesBefore, f.hasher.hashes, "no hash is computed for a duplicate")
	assert.Len(t, f.pub.events, 1)
}

func TestCreateAccount_NormalizesEmail(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "  Mixed@Example.COM ", "p")
	assert.Equal(t, "mixed@example.com", a.Email)

	err := f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "B", Email: "MIXED@example.com", Password: "p"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateAccount_InvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		in    CreateAccountInput
		field string
	}{
		{"blank name", CreateAccountInput{Name: "  ", Email: "a@x.com", Password: "p"}, "name"},
		{"missing email", CreateAccountInput{Name: "A", Email: "", Password: "p"}, "email"},
		{"malformed email", CreateAccountInput{Name: "A", Email: "not-an-email", Password: "p"}, "email"},
		{"empty password", CreateAccountInput{Name: "A", Email: "a@x.com", Password: ""}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.svc.CreateAccount(context.Background(), tc.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tc.field, ie.Field)
			assert.Equal(t, 0, f.store.Count())
			assert.Equal(t, 0, f.hasher.hashes)
		})
	}
}

func TestCreateAccount_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)

	const n = 16
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "X", Email: "race@x.com", Password: "p"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.store.Count())
}

func TestCreateAccount_HashFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("hasher down")
	f.hasher.hashErr = boom

	err := f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "A", Email: "a@x.com", Password: "p"})

	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.store.Count())
}

func TestCreateAccount_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker unavailable")

	err := f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "A", Email: "a@x.com", Password: "p"})

	assert.NoError(t, err)
	assert.Equal(t, 1, f.store.Count())
}

// --- UpdateAccount ---

func TestUpdateAccount_NotFound(t *testing.T) {
	f := newFixture(t)
	inputs := []UpdateAccountInput{
		{},
		{Name: strp("N")},
		{Email: strp("not-an-email")},
		{Password: strp("new")},
		{Password: strp("new"), OldPassword: strp("old")},
	}
	for _, in := range inputs {
		err := f.svc.UpdateAccount(context.Background(), "missing", in)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	}
}

func TestUpdateAccount_NameAndEmail(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")
	later := a.UpdatedAt.Add(time.Minute)
	f.svc.Now = func() time.Time { return later }

	err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{Name: strp("Alice"), Email: strp("Alice@X.com")})
	require.NoError(t, err)

	got := f.load(t, a.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@x.com", got.Email)
	assert.Equal(t, a.PasswordHash, got.PasswordHash)
	assert.Equal(t, a.CreatedAt, got.CreatedAt)
	assert.Equal(t, later, got.UpdatedAt)

	ev := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, EventAccountUpdated, ev.Type)
	assert.ElementsMatch(t, []string{"name", "email"}, ev.Changed)
	assert.Equal(t, "a@x.com", ev.PrevEmail)
}

func TestUpdateAccount_SameEmailIsNotDuplicate(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")

	for _, e := range []string{"a@x.com", " A@X.COM "} {
		err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{Email: strp(e)})
		assert.NoError(t, err)
	}
	assert.Equal(t, "a@x.com", f.load(t, a.ID).Email)
}

func TestUpdateAccount_ForeignEmail(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")
	b := f.create(t, "B", "b@x.com", "p")
	beforeA, beforeB := f.load(t, a.ID), f.load(t, b.ID)

	err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{Name: strp("New"), Email: strp("b@x.com")})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, beforeA, f.load(t, a.ID))
	assert.Equal(t, beforeB, f.load(t, b.ID))
}

func TestUpdateAccount_MissingOldPassword(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")
	before := f.load(t, a.ID)

	for _, old := range []*string{nil, strp("")} {
		err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{
			Name:        strp("Changed"),
			Email:       strp("changed@x.com"),
			Password:    strp("new"),
			OldPassword: old,
		})
		assert.ErrorIs(t, err, ErrMissingOldPassword)
		assert.Equal(t, before, f.load(t, a.ID))
	}
}

func TestUpdateAccount_IncorrectOldPassword(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")
	before := f.load(t, a.ID)

	err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{
		Name:        strp("Changed"),
		Password:    strp("new"),
		OldPassword: strp("wrong"),
	})

	assert.ErrorIs(t, err, ErrIncorrectOldPassword)
	assert.Equal(t, before, f.load(t, a.ID))
}

func TestUpdateAccount_ChangePassword(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "old")

	err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{Password: strp("new"), OldPassword: strp("old")})
	require.NoError(t, err)

	got := f.load(t, a.ID)
	assert.True(t, f.hasher.Verify("new", got.PasswordHash))
	assert.False(t, f.hasher.Verify("old", got.PasswordHash))
	assert.Equal(t, "A", got.Name)

	ev := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, []string{"password"}, ev.Changed)
}

func TestUpdateAccount_OldPasswordAloneIsIgnored(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")

	err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{OldPassword: strp("whatever")})

	require.NoError(t, err)
	assert.Equal(t, a.PasswordHash, f.load(t, a.ID).PasswordHash)
}

func TestUpdateAccount_EmptyUpdateRefreshesTimestamp(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")
	later := a.UpdatedAt.Add(time.Hour)
	f.svc.Now = func() time.Time { return later }

	require.NoError(t, f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{}))

	got := f.load(t, a.ID)
	assert.Equal(t, later, got.UpdatedAt)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Email, got.Email)
	assert.Equal(t, a.PasswordHash, got.PasswordHash)
}

func TestUpdateAccount_InvalidFields(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")
	before := f.load(t, a.ID)

	err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{Name: strp("   ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{Email: strp("nope")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, before, f.load(t, a.ID))
}

func TestCreateAccount_PasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)

	err := f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "A", Email: "a@x.com", Password: strings.Repeat("a", 73)})

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrInternal)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "password", ie.Field)
	assert.Equal(t, 0, f.hasher.hashes)
	assert.Equal(t, 0, f.store.Count())

	// 36 two-byte runes is exactly 72 bytes
	require.NoError(t, f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "A", Email: "a@x.com", Password: strings.Repeat("é", 36)}))
}

func TestUpdateAccount_PasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "old")
	before := f.load(t, a.ID)
	hashesBefore := f.hasher.hashes

	for _, old := range []string{"old", "wrong"} {
		err := f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{
			Name:        strp("Changed"),
			Password:    strp(strings.Repeat("é", 40)),
			OldPassword: strp(old),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.NotErrorIs(t, err, ErrInternal)
	}
	assert.Equal(t, hashesBefore, f.hasher.hashes)
	assert.Equal(t, before, f.load(t, a.ID))
}

// Scenario: duplicate create followed by a wrong-old-password update.
func TestScenario_DuplicateThenWrongOldPassword(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "a@x.com", "p")

	err := f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "B", Email: "a@x.com", Password: "p"})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	err = f.svc.UpdateAccount(context.Background(), a.ID, UpdateAccountInput{Password: strp("new"), OldPassword: strp("wrong")})
	require.ErrorIs(t, err, ErrIncorrectOldPassword)

	assert.Equal(t, a.PasswordHash, f.load(t, a.ID).PasswordHash)
}

func TestUpdateAccount_ConcurrentEmailClaims(t *testing.T) {
	f := newFixture(t)
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = f.create(t, "U", string(rune('a'+i))+"@x.com", "p").ID
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = f.svc.UpdateAccount(context.Background(), id, UpdateAccountInput{Email: strp("taken@x.com")})
		}(i, id)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	}
	assert.Equal(t, 1, ok)

	owner, err := f.store.FindByEmail(context.Background(), "taken@x.com")
	require.NoError(t, err)
	assert.Contains(t, ids, owner.ID)
}

// --- store failure paths ---

type brokenRepo struct {
	repository.AccountRepository
	findErr   error
	updateErr error
	acc       *entity.Account
}

func (r *brokenRepo) FindByID(context.Context, string) (*entity.Account, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	a := *r.acc
	return &a, nil
}

func (r *brokenRepo) FindByEmail(context.Context, string) (*entity.Account, error) {
	return nil, repository.ErrNotFound
}

func (r *brokenRepo) Update(context.Context, string, string, string, *string, time.Time) error {
	return r.updateErr
}

func TestUpdateAccount_StoreErrors(t *testing.T) {
	bh, err := helpers.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	acc := &entity.Account{ID: "id", Name: "A", Email: "a@x.com"}

	t.Run("lookup failure is internal", func(t *testing.T) {
		boom := errors.New("db down")
		svc := NewAccountService(&brokenRepo{findErr: boom}, bh, nil, discardLogger())
		err := svc.UpdateAccount(context.Background(), "id", UpdateAccountInput{})
		assert.ErrorIs(t, err, ErrInternal)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("constraint violation maps to duplicate", func(t *testing.T) {
		svc := NewAccountService(&brokenRepo{acc: acc, updateErr: repository.ErrEmailTaken}, bh, nil, discardLogger())
		err := svc.UpdateAccount(context.Background(), "id", UpdateAccountInput{Email: strp("b@x.com")})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("vanished row maps to not found", func(t *testing.T) {
		svc := NewAccountService(&brokenRepo{acc: acc, updateErr: repository.ErrNotFound}, bh, nil, discardLogger())
		err := svc.UpdateAccount(context.Background(), "id", UpdateAccountInput{})
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
