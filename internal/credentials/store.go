package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polibet/engine-poc/internal/ledger"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrUnknownUser   = errors.New("user not found")
	ErrWrongPassword = errors.New("incorrect password")
	ErrDuplicate     = errors.New("already registered")
)

// RegisterRequest carrega os campos do formulário de cadastro
type RegisterRequest struct {
	Email           string
	Username        string
	FullName        string
	Password        string
	ConfirmPassword string
}

type Options struct {
	// Saldo inicial de contas recém-registradas
	StartingBalance decimal.Decimal
	// Latência simulada antes de login/register. Zero desativa.
	SimLatency time.Duration
}

// Store valida credenciais e registra identidades. Lookup de brinquedo, de
// propósito: as contas e saldos pertencem ao ledger; aqui só vivem usernames,
// emails e segredos.
type Store struct {
	log      *zap.Logger
	ledger   *ledger.Ledger
	starting decimal.Decimal
	latency  time.Duration

	mu      sync.Mutex
	secrets map[string]string // username (minúsculo) -> senha
	users   map[string]string // username (minúsculo) -> userID
	emails  map[string]string // email (minúsculo) -> userID
}

func NewStore(log *zap.Logger, led *ledger.Ledger, opts Options) *Store {
	s := &Store{
		log:      log,
		ledger:   led,
		starting: opts.StartingBalance,
		latency:  opts.SimLatency,
		secrets:  make(map[string]string),
		users:    make(map[string]string),
		emails:   make(map[string]string),
	}
	s.seed()
	return s
}

// seed planta os usuários de demonstração e suas contas no ledger
func (s *Store) seed() {
	demo := []struct {
		id, email, username, fullName, password string
		balance                                 string
	}{
		{"user_demo1", "demo@polibet.com", "demo", "Demo User", "123456", "1000.00"},
		{"user_admin", "admin@polibet.com", "admin", "Administrator", "admin123", "5000.00"},
		{"user_test", "test@polibet.com", "test", "Test User", "test123", "500.00"},
	}

	for _, d := range demo {
		_ = s.ledger.Add(ledger.Account{
			ID:        d.id,
			Email:     d.email,
			Username:  d.username,
			FullName:  d.fullName,
			Balance:   decimal.RequireFromString(d.balance),
			CreatedAt: time.Now(),
		})
		s.secrets[d.username] = d.password
		s.users[d.username] = d.id
		s.emails[strings.ToLower(d.email)] = d.id
	}
}

// Login valida identifier/senha e marca a conta como corrente no ledger
func (s *Store) Login(ctx context.Context, identifier, secret string) (ledger.Account, error) {
	if err := s.yield(ctx); err != nil {
		return ledger.Account{}, err
	}

	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(secret) == "" {
		return ledger.Account{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	username := strings.ToLower(identifier)

	s.mu.Lock()
	stored, ok := s.secrets[username]
	userID := s.users[username]
	s.mu.Unlock()

	if !ok {
		return ledger.Account{}, ErrUnknownUser
	}
	if stored != secret {
		return ledger.Account{}, ErrWrongPassword
	}

	a, ok := s.ledger.SetCurrent(userID)
	if !ok {
		return ledger.Account{}, ErrUnknownUser
	}

	s.log.Info("login", zap.String("userId", a.ID), zap.String("username", a.Username))
	return a, nil
}

// Register valida o formulário, cria a conta no ledger com o saldo inicial e
// já deixa o usuário logado
func (s *Store) Register(ctx context.Context, req RegisterRequest) (ledger.Account, error) {
	if err := s.yield(ctx); err != nil {
		return ledger.Account{}, err
	}

	if strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Password) == "" ||
		strings.TrimSpace(req.FullName) == "" {
		return ledger.Account{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if req.Password != req.ConfirmPassword {
		return ledger.Account{}, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if len(req.Password) < 6 {
		return ledger.Account{}, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	username := strings.ToLower(req.Username)
	email := strings.ToLower(req.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[username]; ok {
		return ledger.Account{}, fmt.Errorf("%w: username is taken", ErrDuplicate)
	}
	if _, ok := s.emails[email]; ok && email != "" {
		return ledger.Account{}, fmt.Errorf("%w: email is taken", ErrDuplicate)
	}

	a := ledger.Account{
		ID:        "user_" + uuid.NewString(),
		Email:     req.Email,
		Username:  req.Username,
		FullName:  req.FullName,
		Balance:   s.starting,
		CreatedAt: time.Now(),
	}
	if err := s.ledger.Add(a); err != nil {
		return ledger.Account{}, err
	}

	s.secrets[username] = req.Password
	s.users[username] = a.ID
	if email != "" {
		s.emails[email] = a.ID
	}

	s.ledger.SetCurrent(a.ID)
	s.log.Info("registered", zap.String("userId", a.ID), zap.String("username", a.Username))
	return a, nil
}

// Logout limpa o ponteiro de conta corrente
func (s *Store) Logout() {
	s.ledger.ClearCurrent()
}

func (s *Store) yield(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
