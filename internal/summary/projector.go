package summary

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polibet/engine-poc/internal/predictions"
)

// Summary agrega o histórico de apostas de um usuário
type Summary struct {
	Total   int
	Won     int
	Lost    int
	Pending int

	TotalStaked decimal.Decimal
	TotalWon    decimal.Decimal

	// Percentual de vitórias sobre o total; zero sem apostas
	WinRate float64
}

// PredictionSource é a visão de leitura que o projetor tem do store
type PredictionSource interface {
	UserPredictions(ctx context.Context, userID string) []predictions.Prediction
}

// Projector recalcula o resumo a cada chamada a partir do snapshot atual do
// store. Sem cache e sem efeito colateral.
type Projector struct {
	source PredictionSource
}

func New(source PredictionSource) *Projector {
	return &Projector{source: source}
}

func (pr *Projector) Summarize(ctx context.Context, userID string) Summary {
	preds := pr.source.UserPredictions(ctx, userID)

	out := Summary{
		TotalStaked: decimal.Zero,
		TotalWon:    decimal.Zero,
	}
	for _, p := range preds {
		out.Total++
		out.TotalStaked = out.TotalStaked.Add(p.Amount)

		switch p.Status {
		case predictions.StatusWon:
			out.Won++
			out.TotalWon = out.TotalWon.Add(p.PotentialWin)
		case predictions.StatusLost:
			out.Lost++
		case predictions.StatusPending:
			out.Pending++
		}
	}

	if out.Total > 0 {
		out.WinRate = float64(out.Won) / float64(out.Total) * 100
	}
	return out
}
