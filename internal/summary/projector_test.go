package summary

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polibet/engine-poc/internal/predictions"
)

type staticSource struct{ preds []predictions.Prediction }

func (s staticSource) UserPredictions(context.Context, string) []predictions.Prediction {
	return s.preds
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeEmptyHistory(t *testing.T) {
	p := New(staticSource{})
	sum := p.Summarize(context.Background(), "u1")

	assert.Equal(t, 0, sum.Total)
	assert.Zero(t, sum.WinRate, "win rate must be zero without predictions")
	assert.True(t, sum.TotalStaked.IsZero())
	assert.True(t, sum.TotalWon.IsZero())
}

func TestSummarizeMixedHistory(t *testing.T) {
	p := New(staticSource{preds: []predictions.Prediction{
		{Status: predictions.StatusWon, Amount: d("25"), PotentialWin: d("62.5")},
		{Status: predictions.StatusLost, Amount: d("50"), PotentialWin: d("90")},
		{Status: predictions.StatusPending, Amount: d("10"), PotentialWin: d("19")},
	}})

	sum := p.Summarize(context.Background(), "u1")

	require.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Won)
	assert.Equal(t, 1, sum.Lost)
	assert.Equal(t, 1, sum.Pending)
	assert.True(t, sum.TotalStaked.Equal(d("85")), "got %s", sum.TotalStaked)
	// Só apostas ganhas contam no total pago
	assert.True(t, sum.TotalWon.Equal(d("62.5")), "got %s", sum.TotalWon)
	assert.InDelta(t, 33.333, sum.WinRate, 0.01)
}

func TestSummarizeIgnoresCancelledInRates(t *testing.T) {
	p := New(staticSource{preds: []predictions.Prediction{
		{Status: predictions.StatusWon, Amount: d("10"), PotentialWin: d("20")},
		{Status: predictions.StatusCancelled, Amount: d("10"), PotentialWin: d("20")},
	}})

	sum := p.Summarize(context.Background(), "u1")

	// Canceladas entram no total e na stake, mas não em won/lost/pending
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Won)
	assert.Equal(t, 0, sum.Lost)
	assert.Equal(t, 0, sum.Pending)
	assert.True(t, sum.TotalStaked.Equal(d("20")))
	assert.InDelta(t, 50.0, sum.WinRate, 0.001)
}

func TestSummarizeAllWon(t *testing.T) {
	p := New(staticSource{preds: []predictions.Prediction{
		{Status: predictions.StatusWon, Amount: d("5"), PotentialWin: d("10")},
		{Status: predictions.StatusWon, Amount: d("5"), PotentialWin: d("12.5")},
	}})

	sum := p.Summarize(context.Background(), "u1")
	assert.InDelta(t, 100.0, sum.WinRate, 0.001)
	assert.True(t, sum.TotalWon.Equal(d("22.5")))
}
