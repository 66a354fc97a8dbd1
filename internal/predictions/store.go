package predictions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polibet/engine-poc/internal/ledger"
	"github.com/polibet/engine-poc/internal/shared/metrics"
)

var (
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrNotPending         = errors.New("only pending predictions can be cancelled")
	ErrInvalidStake       = errors.New("stake must be greater than 0.00")
)

// Settler recebe cada aposta criada para resolução futura.
// O ciclo store -> scheduler -> store é quebrado por esta interface.
type Settler interface {
	ScheduleResolution(p Prediction)
}

type Options struct {
	// Latência simulada antes de cada operação. Zero desativa.
	SimLatency time.Duration
}

// Store guarda as apostas em memória, por usuário, e é o único componente
// autorizado a mutar status de aposta. Saldo é sempre movimentado via ledger,
// nunca aqui.
type Store struct {
	log     *zap.Logger
	ledger  *ledger.Ledger
	feed    *Feed
	latency time.Duration

	mu     sync.Mutex
	byUser map[string][]*Prediction
	all    []*Prediction
	// Índice direto id -> dono; evita varrer todas as listas em cancel/settle
	owner map[string]string

	settler Settler
}

func NewStore(log *zap.Logger, led *ledger.Ledger, feed *Feed, opts Options) *Store {
	return &Store{
		log:     log,
		ledger:  led,
		feed:    feed,
		latency: opts.SimLatency,
		byUser:  make(map[string][]*Prediction),
		owner:   make(map[string]string),
	}
}

// SetSettler liga o scheduler de resolução. Sem settler, apostas criadas ficam
// PENDING válidas e simplesmente nunca resolvem sozinhas.
func (s *Store) SetSettler(st Settler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settler = st
}

// Create debita a aposta e só então registra o registro PENDING.
// A ordem garante que nenhuma aposta existe sem o saldo já ter saído da conta.
func (s *Store) Create(ctx context.Context, d Draft) (Prediction, error) {
	if err := s.yield(ctx); err != nil {
		return Prediction{}, err
	}

	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return Prediction{}, ErrInvalidStake
	}

	if !s.ledger.HasSufficientFunds(ctx, d.UserID, d.Amount) {
		balance := s.ledger.Balance(ctx, d.UserID)
		return Prediction{}, fmt.Errorf("%w: current balance %s",
			ledger.ErrInsufficientFunds, balance.StringFixed(2))
	}

	if _, err := s.ledger.Debit(ctx, d.UserID, d.Amount); err != nil {
		return Prediction{}, err
	}

	now := time.Now()
	p := &Prediction{
		ID:             newPredictionID(now),
		UserID:         d.UserID,
		EventID:        d.EventID,
		Type:           d.Type,
		SelectedOption: d.SelectedOption,
		Odds:           d.Odds,
		Amount:         d.Amount,
		// Payout sempre recalculado aqui; valor vindo do chamador não é confiável
		PotentialWin: d.Amount.Mul(d.Odds),
		Status:       StatusPending,
		CreatedAt:    now,
	}

	s.mu.Lock()
	s.byUser[p.UserID] = append(s.byUser[p.UserID], p)
	s.all = append(s.all, p)
	s.owner[p.ID] = p.UserID
	settler := s.settler
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.feed.publish(snapshot)
	metrics.PredictionsCreated.Inc()
	s.log.Info("prediction created",
		zap.String("predictionId", p.ID),
		zap.String("userId", p.UserID),
		zap.String("eventId", p.EventID),
		zap.String("stake", p.Amount.StringFixed(2)),
		zap.String("potentialWin", p.PotentialWin.StringFixed(2)),
	)

	if settler != nil {
		settler.ScheduleResolution(*p)
	}
	return *p, nil
}

// Cancel reembolsa a stake e marca a aposta como CANCELLED numa transação
// lógica só: nenhum observador vê CANCELLED com o saldo ainda não devolvido.
func (s *Store) Cancel(ctx context.Context, predictionID string) error {
	if err := s.yield(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	p, ok := s.findLocked(predictionID)
	if !ok {
		s.mu.Unlock()
		return ErrPredictionNotFound
	}
	if p.Status != StatusPending {
		s.mu.Unlock()
		return ErrNotPending
	}

	err := s.ledger.WithTx(func(tx *ledger.Tx) error {
		_, cerr := tx.Credit(p.UserID, p.Amount)
		return cerr
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}

	p.Status = StatusCancelled
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.feed.publish(snapshot)
	metrics.PredictionsCancelled.Inc()
	s.log.Info("prediction cancelled",
		zap.String("predictionId", predictionID),
		zap.String("refund", p.Amount.StringFixed(2)),
	)
	return nil
}

// Settle aplica o resultado sorteado pelo scheduler. Aposta já não PENDING
// (cancelada no meio-tempo) vira no-op guardado: cancelamento sempre ganha a
// corrida contra a resolução.
func (s *Store) Settle(ctx context.Context, predictionID string, won bool) (bool, error) {
	s.mu.Lock()
	p, ok := s.findLocked(predictionID)
	if !ok || p.Status != StatusPending {
		s.mu.Unlock()
		return false, nil
	}

	if won {
		err := s.ledger.WithTx(func(tx *ledger.Tx) error {
			_, cerr := tx.Credit(p.UserID, p.PotentialWin)
			return cerr
		})
		if err != nil {
			// Conta sumiu: deixa a aposta PENDING e isola a falha nesta resolução
			s.mu.Unlock()
			return false, err
		}
		p.Status = StatusWon
	} else {
		p.Status = StatusLost
	}
	outcome := p.Status
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.feed.publish(snapshot)
	if outcome == StatusWon {
		metrics.PredictionsSettled.WithLabelValues("won").Inc()
	} else {
		metrics.PredictionsSettled.WithLabelValues("lost").Inc()
	}
	return true, nil
}

// UserPredictions retorna uma cópia das apostas do usuário, em ordem de inserção
func (s *Store) UserPredictions(ctx context.Context, userID string) []Prediction {
	_ = s.yield(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	out := make([]Prediction, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out
}

// PendingCount conta as apostas PENDING do usuário
func (s *Store) PendingCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.byUser[userID] {
		if p.Status == StatusPending {
			n++
		}
	}
	return n
}

// ClearSession descarta todas as apostas e replanta os dados de demonstração
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.byUser = make(map[string][]*Prediction)
	s.all = nil
	s.owner = make(map[string]string)
	s.seedLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.feed.publish(snapshot)
}

// seedLocked replanta as apostas de exemplo do usuário demo
func (s *Store) seedLocked() {
	now := time.Now()
	samples := []*Prediction{
		{
			ID:             "pred_sample_1",
			UserID:         "user_demo1",
			EventID:        "fb_001",
			Type:           TypeMatchResult,
			SelectedOption: "Barcelona SC win",
			Odds:           decimal.RequireFromString("2.1"),
			Amount:         decimal.RequireFromString("50"),
			PotentialWin:   decimal.RequireFromString("105"),
			Status:         StatusPending,
			CreatedAt:      now.Add(-1 * time.Hour),
		},
		{
			ID:             "pred_sample_2",
			UserID:         "user_demo1",
			EventID:        "fb_002",
			Type:           TypeMatchResult,
			SelectedOption: "Real Madrid win",
			Odds:           decimal.RequireFromString("2.5"),
			Amount:         decimal.RequireFromString("25"),
			PotentialWin:   decimal.RequireFromString("62.5"),
			Status:         StatusWon,
			CreatedAt:      now.Add(-2 * time.Hour),
		},
	}
	for _, p := range samples {
		s.byUser[p.UserID] = append(s.byUser[p.UserID], p)
		s.all = append(s.all, p)
		s.owner[p.ID] = p.UserID
	}
}

func (s *Store) findLocked(predictionID string) (*Prediction, bool) {
	userID, ok := s.owner[predictionID]
	if !ok {
		return nil, false
	}
	for _, p := range s.byUser[userID] {
		if p.ID == predictionID {
			return p, true
		}
	}
	return nil, false
}

func (s *Store) snapshotLocked() []Prediction {
	out := make([]Prediction, 0, len(s.all))
	for _, p := range s.all {
		out = append(out, *p)
	}
	return out
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

// newPredictionID gera ids únicos mas ordenáveis pela hora de criação
func newPredictionID(t time.Time) string {
	return fmt.Sprintf("pred_%d_%s", t.UnixMilli(), uuid.NewString()[:8])
}
