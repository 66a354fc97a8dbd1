package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polibet/engine-poc/internal/shared/metrics"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrDuplicateAccount  = errors.New("account already exists")
)

// Account representa a identidade do usuário e seu saldo apostável
type Account struct {
	ID        string
	Email     string
	Username  string
	FullName  string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

type Options struct {
	// Latência simulada antes de cada operação. Zero desativa.
	SimLatency time.Duration
}

// Ledger guarda as contas em memória e é o único componente autorizado a mutar saldo.
// Um único mutex serializa toda mutação de conta; a latência simulada nunca
// acontece com o lock adquirido.
type Ledger struct {
	log     *zap.Logger
	latency time.Duration

	mu       sync.Mutex
	accounts map[string]*Account

	// Ponteiro derivado para a conta "logada"; nunca é autoritativo para saldo
	currentID string
}

func New(log *zap.Logger, opts Options) *Ledger {
	return &Ledger{
		log:      log,
		latency:  opts.SimLatency,
		accounts: make(map[string]*Account),
	}
}

// Add registra uma conta nova. Id duplicado é rejeitado.
func (l *Ledger) Add(a Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[a.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.ID)
	}
	cp := a
	l.accounts[a.ID] = &cp
	return nil
}

// Get retorna uma cópia da conta, se existir
func (l *Ledger) Get(userID string) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[userID]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// Balance retorna o saldo atual; zero para usuário desconhecido
func (l *Ledger) Balance(ctx context.Context, userID string) decimal.Decimal {
	_ = l.yield(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.accounts[userID]; ok {
		return a.Balance
	}
	return decimal.Zero
}

// HasSufficientFunds informa se a conta existe e cobre o valor
func (l *Ledger) HasSufficientFunds(ctx context.Context, userID string, amount decimal.Decimal) bool {
	_ = l.yield(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[userID]
	return ok && a.Balance.GreaterThanOrEqual(amount)
}

// Debit subtrai amount do saldo de forma atômica.
// A checagem de fundos aqui é o único ponto que garante saldo nunca negativo.
func (l *Ledger) Debit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error) {
	if err := l.yield(ctx); err != nil {
		return Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debitLocked(userID, amount)
}

// Credit soma amount ao saldo, sem limite superior
func (l *Ledger) Credit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error) {
	if err := l.yield(ctx); err != nil {
		return Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creditLocked(userID, amount)
}

// Tx expõe débito/crédito com o lock do ledger já adquirido e sem latência
// simulada. Ponto de composição para mover saldo e estado de aposta como uma
// transação lógica só.
type Tx struct{ l *Ledger }

func (t *Tx) Debit(userID string, amount decimal.Decimal) (Account, error) {
	return t.l.debitLocked(userID, amount)
}

func (t *Tx) Credit(userID string, amount decimal.Decimal) (Account, error) {
	return t.l.creditLocked(userID, amount)
}

// WithTx executa fn segurando o lock do ledger. fn não pode bloquear.
func (l *Ledger) WithTx(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(&Tx{l: l})
}

func (l *Ledger) debitLocked(userID string, amount decimal.Decimal) (Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Account{}, fmt.Errorf("%w: amount must be greater than 0.00", ErrInvalidAmount)
	}

	a, ok := l.accounts[userID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	if a.Balance.LessThan(amount) {
		metrics.InsufficientFunds.Inc()
		return Account{}, fmt.Errorf("%w: current balance %s", ErrInsufficientFunds, a.Balance.StringFixed(2))
	}

	a.Balance = a.Balance.Sub(amount)
	metrics.LedgerDebits.Inc()
	l.log.Debug("debit",
		zap.String("userId", userID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", a.Balance.StringFixed(2)),
	)
	return *a, nil
}

func (l *Ledger) creditLocked(userID string, amount decimal.Decimal) (Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Account{}, fmt.Errorf("%w: amount must be greater than 0.00", ErrInvalidAmount)
	}

	a, ok := l.accounts[userID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	a.Balance = a.Balance.Add(amount)
	metrics.LedgerCredits.Inc()
	l.log.Debug("credit",
		zap.String("userId", userID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", a.Balance.StringFixed(2)),
	)
	return *a, nil
}

// SetCurrent aponta a conta "logada" da sessão
func (l *Ledger) SetCurrent(userID string) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[userID]
	if !ok {
		return Account{}, false
	}
	l.currentID = userID
	return *a, true
}

// Current resolve o ponteiro derivado contra o mapa autoritativo de contas;
// qualquer débito/crédito já aparece aqui na mesma operação
func (l *Ledger) Current() (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentID == "" {
		return Account{}, false
	}
	a, ok := l.accounts[l.currentID]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

func (l *Ledger) ClearCurrent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentID = ""
}

// yield modela a latência de "rede" sem segurar o lock
func (l *Ledger) yield(ctx context.Context) error {
	if l.latency <= 0 {
		return nil
	}
	t := time.NewTimer(l.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
