package credentials

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polibet/engine-poc/internal/ledger"
)

func newTestStore(t *testing.T) (*Store, *ledger.Ledger) {
	t.Helper()
	led := ledger.New(zap.NewNop(), ledger.Options{})
	s := NewStore(zap.NewNop(), led, Options{
		StartingBalance: decimal.RequireFromString("1000.00"),
	})
	return s, led
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Email:           "new@polibet.com",
		Username:        "newuser",
		FullName:        "New User",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestSeededAccounts(t *testing.T) {
	_, led := newTestStore(t)

	demo, ok := led.Get("user_demo1")
	require.True(t, ok)
	assert.True(t, demo.Balance.Equal(decimal.RequireFromString("1000.00")))

	admin, ok := led.Get("user_admin")
	require.True(t, ok)
	assert.True(t, admin.Balance.Equal(decimal.RequireFromString("5000.00")))

	test, ok := led.Get("user_test")
	require.True(t, ok)
	assert.True(t, test.Balance.Equal(decimal.RequireFromString("500.00")))
}

func TestLoginHappyPath(t *testing.T) {
	s, led := newTestStore(t)

	a, err := s.Login(context.Background(), "demo", "123456")
	require.NoError(t, err)
	assert.Equal(t, "user_demo1", a.ID)

	cur, ok := led.Current()
	require.True(t, ok)
	assert.Equal(t, "user_demo1", cur.ID)
}

func TestLoginIsCaseInsensitiveOnIdentifier(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Login(context.Background(), "DeMo", "123456")
	assert.NoError(t, err)
}

func TestLoginValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Login(ctx, "", "123456")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Login(ctx, "demo", "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Login(ctx, "ghost", "123456")
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = s.Login(ctx, "demo", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestRegisterHappyPath(t *testing.T) {
	s, led := newTestStore(t)

	a, err := s.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.RequireFromString("1000.00")), "starting balance applied")
	assert.NotEmpty(t, a.ID)

	// Cadastro já deixa logado
	cur, ok := led.Current()
	require.True(t, ok)
	assert.Equal(t, a.ID, cur.ID)

	// E as credenciais novas funcionam
	again, err := s.Login(context.Background(), "newuser", "secret1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	blank := validRegister()
	blank.Username = "   "
	_, err := s.Register(ctx, blank)
	assert.ErrorIs(t, err, ErrValidation)

	mismatch := validRegister()
	mismatch.ConfirmPassword = "other"
	_, err = s.Register(ctx, mismatch)
	assert.ErrorIs(t, err, ErrValidation)

	short := validRegister()
	short.Password = "abc"
	short.ConfirmPassword = "abc"
	_, err = s.Register(ctx, short)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s, _ := newTestStore(t)

	dup := validRegister()
	dup.Username = "DEMO" // colisão tem de ser case-insensitive
	_, err := s.Register(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, _ := newTestStore(t)

	dup := validRegister()
	dup.Email = "Demo@PoliBet.com"
	_, err := s.Register(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestLogoutClearsCurrent(t *testing.T) {
	s, led := newTestStore(t)

	_, err := s.Login(context.Background(), "demo", "123456")
	require.NoError(t, err)

	s.Logout()
	_, ok := led.Current()
	assert.False(t, ok)
}
