package settlement

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polibet/engine-poc/internal/predictions"
)

// Book é a visão que o scheduler tem do store de apostas
type Book interface {
	Settle(ctx context.Context, predictionID string, won bool) (bool, error)
}

type Options struct {
	// Janela uniforme de espera antes de resolver cada aposta
	MinDelay time.Duration
	MaxDelay time.Duration
	// Probabilidade fixa de vitória em percentual inteiro (1..100).
	// Atalho de simulação: não deriva das odds da aposta.
	WinPercent int
	// Seed do gerador; zero usa o relógio
	Seed int64
	// Roll substitui o sorteio uniforme em [1,100]; útil para forçar resultado
	Roll func() int
}

// Scheduler agenda uma resolução futura por aposta criada. Cada resolução é uma
// goroutine independente: falha numa não afeta as demais, e todas drenam juntas
// no Shutdown. Não guarda estado persistente; só timers em voo.
type Scheduler struct {
	log  *zap.Logger
	book Book

	minDelay   time.Duration
	maxDelay   time.Duration
	winPercent int

	rngMu  sync.Mutex
	rng    *rand.Rand
	rollFn func() int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	inFlightMu sync.Mutex
	inFlight   int
}

func New(log *zap.Logger, book Book, opts Options) *Scheduler {
	if opts.MinDelay <= 0 {
		opts.MinDelay = 30 * time.Second
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = 120 * time.Second
	}
	if opts.WinPercent <= 0 || opts.WinPercent > 100 {
		opts.WinPercent = 60
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:        log,
		book:       book,
		minDelay:   opts.MinDelay,
		maxDelay:   opts.MaxDelay,
		winPercent: opts.WinPercent,
		rng:        rand.New(rand.NewSource(seed)),
		rollFn:     opts.Roll,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ScheduleResolution dispara a resolução futura de uma aposta recém-criada.
// Não bloqueia o chamador; o criador da aposta nunca espera o resultado.
func (s *Scheduler) ScheduleResolution(p predictions.Prediction) {
	delay := s.randDelay()

	s.wg.Add(1)
	s.addInFlight(1)
	go func() {
		defer s.wg.Done()
		defer s.addInFlight(-1)

		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-s.ctx.Done():
			// Shutdown: resoluções pendentes são simplesmente descartadas
			return
		case <-t.C:
		}

		won := s.roll() <= s.winPercent
		applied, err := s.book.Settle(s.ctx, p.ID, won)
		if err != nil {
			s.log.Error("settle failed",
				zap.String("predictionId", p.ID),
				zap.Error(err),
			)
			return
		}
		if !applied {
			// Cancelada no meio-tempo; o cancelamento ganha a corrida
			s.log.Debug("settle skipped, no longer pending", zap.String("predictionId", p.ID))
			return
		}
		s.log.Info("prediction settled",
			zap.String("predictionId", p.ID),
			zap.Bool("won", won),
		)
	}()
}

// Shutdown cancela os timers em voo e espera as goroutines drenarem
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// InFlight conta as resoluções ainda agendadas
func (s *Scheduler) InFlight() int {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	return s.inFlight
}

func (s *Scheduler) addInFlight(d int) {
	s.inFlightMu.Lock()
	s.inFlight += d
	s.inFlightMu.Unlock()
}

func (s *Scheduler) randDelay() time.Duration {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	span := int64(s.maxDelay - s.minDelay)
	if span <= 0 {
		return s.minDelay
	}
	return s.minDelay + time.Duration(s.rng.Int63n(span+1))
}

// roll sorteia um inteiro uniforme em [1,100]
func (s *Scheduler) roll() int {
	if s.rollFn != nil {
		return s.rollFn()
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(100) + 1
}
