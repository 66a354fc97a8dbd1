package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polibet/engine-poc/internal/ledger"
	"github.com/polibet/engine-poc/internal/predictions"
)

type settleCall struct {
	predictionID string
	won          bool
}

type fakeBook struct {
	mu    sync.Mutex
	calls []settleCall
	errBy map[string]error
	done  chan settleCall
}

func newFakeBook() *fakeBook {
	return &fakeBook{
		errBy: make(map[string]error),
		done:  make(chan settleCall, 16),
	}
}

func (f *fakeBook) Settle(_ context.Context, predictionID string, won bool) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, settleCall{predictionID, won})
	err := f.errBy[predictionID]
	f.mu.Unlock()

	f.done <- settleCall{predictionID, won}
	if err != nil {
		return false, err
	}
	return true, nil
}

func fastOpts(roll func() int) Options {
	return Options{
		MinDelay:   time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		WinPercent: 60,
		Roll:       roll,
	}
}

func pred(id string) predictions.Prediction {
	return predictions.Prediction{ID: id, UserID: "u1", Status: predictions.StatusPending}
}

func TestResolvesAsWinWhenRollWithinThreshold(t *testing.T) {
	book := newFakeBook()
	s := New(zap.NewNop(), book, fastOpts(func() int { return 60 }))

	s.ScheduleResolution(pred("p1"))

	select {
	case call := <-book.done:
		assert.Equal(t, "p1", call.predictionID)
		assert.True(t, call.won, "roll of 60 with 60%% threshold wins")
	case <-time.After(time.Second):
		t.Fatal("resolution never fired")
	}
}

func TestResolvesAsLossWhenRollAboveThreshold(t *testing.T) {
	book := newFakeBook()
	s := New(zap.NewNop(), book, fastOpts(func() int { return 61 }))

	s.ScheduleResolution(pred("p1"))

	select {
	case call := <-book.done:
		assert.False(t, call.won)
	case <-time.After(time.Second):
		t.Fatal("resolution never fired")
	}
}

func TestShutdownDropsPendingResolutions(t *testing.T) {
	book := newFakeBook()
	s := New(zap.NewNop(), book, Options{
		MinDelay:   time.Hour,
		MaxDelay:   2 * time.Hour,
		WinPercent: 60,
	})

	s.ScheduleResolution(pred("p1"))
	s.ScheduleResolution(pred("p2"))
	require.Equal(t, 2, s.InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.Equal(t, 0, s.InFlight())
	book.mu.Lock()
	defer book.mu.Unlock()
	assert.Empty(t, book.calls, "dropped settlements must not touch the book")
}

func TestFailedResolutionIsIsolated(t *testing.T) {
	book := newFakeBook()
	book.errBy["bad"] = errors.New("account vanished")
	s := New(zap.NewNop(), book, fastOpts(func() int { return 1 }))

	s.ScheduleResolution(pred("bad"))
	s.ScheduleResolution(pred("good"))

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case call := <-book.done:
			seen[call.predictionID] = true
		case <-time.After(time.Second):
			t.Fatal("missing resolution")
		}
	}
	assert.True(t, seen["good"], "one failing settlement must not block the others")
	assert.True(t, seen["bad"])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestDefaultsApplied(t *testing.T) {
	s := New(zap.NewNop(), newFakeBook(), Options{})
	assert.Equal(t, 30*time.Second, s.minDelay)
	assert.Equal(t, 120*time.Second, s.maxDelay)
	assert.Equal(t, 60, s.winPercent)
}

// Fluxo completo contra o store real: cria, resolve, credita
func TestEndToEndWinCreditsAccount(t *testing.T) {
	led := ledger.New(zap.NewNop(), ledger.Options{})
	require.NoError(t, led.Add(ledger.Account{ID: "u1", Balance: decimal.RequireFromString("1000.00")}))

	feed := predictions.NewFeed()
	store := predictions.NewStore(zap.NewNop(), led, feed, predictions.Options{})
	s := New(zap.NewNop(), store, fastOpts(func() int { return 1 }))
	store.SetSettler(s)

	ctx := context.Background()
	_, err := store.Create(ctx, predictions.Draft{
		UserID:         "u1",
		EventID:        "fb_001",
		Type:           predictions.TypeMatchResult,
		SelectedOption: "home",
		Odds:           decimal.RequireFromString("2.1"),
		Amount:         decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got := store.UserPredictions(ctx, "u1")
		return len(got) == 1 && got[0].Status == predictions.StatusWon
	}, time.Second, 5*time.Millisecond)

	assert.True(t, led.Balance(ctx, "u1").Equal(decimal.RequireFromString("1055.00")))

	drain, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(drain))
}

// A corrida cancelamento vs resolução: quem vê PENDING primeiro ganha
func TestLateResolutionAfterCancelIsNoop(t *testing.T) {
	led := ledger.New(zap.NewNop(), ledger.Options{})
	require.NoError(t, led.Add(ledger.Account{ID: "u1", Balance: decimal.RequireFromString("1000.00")}))

	feed := predictions.NewFeed()
	store := predictions.NewStore(zap.NewNop(), led, feed, predictions.Options{})
	s := New(zap.NewNop(), store, Options{
		MinDelay:   50 * time.Millisecond,
		MaxDelay:   60 * time.Millisecond,
		WinPercent: 60,
		Roll:       func() int { return 1 },
	})
	store.SetSettler(s)

	ctx := context.Background()
	p, err := store.Create(ctx, predictions.Draft{
		UserID:  "u1",
		EventID: "fb_001",
		Type:    predictions.TypeMatchResult,
		Odds:    decimal.RequireFromString("2.1"),
		Amount:  decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	// Cancela antes do timer da resolução disparar
	require.NoError(t, store.Cancel(ctx, p.ID))
	require.True(t, led.Balance(ctx, "u1").Equal(decimal.RequireFromString("1000.00")))

	// Espera a resolução atrasada rodar e não fazer nada
	drain, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Shutdown(drain))

	got := store.UserPredictions(ctx, "u1")
	assert.Equal(t, predictions.StatusCancelled, got[0].Status)
	assert.True(t, led.Balance(ctx, "u1").Equal(decimal.RequireFromString("1000.00")))
}
