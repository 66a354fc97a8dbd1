package metrics

import "github.com/prometheus/client_golang/prometheus"

// Métricas Prometheus do engine de apostas
var (
	PredictionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polibet_predictions_created_total",
		Help: "Total de apostas criadas",
	})
	PredictionsSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "polibet_predictions_settled_total",
		Help: "Total de apostas resolvidas, por resultado",
	}, []string{"outcome"})
	PredictionsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polibet_predictions_cancelled_total",
		Help: "Total de apostas canceladas pelo usuário",
	})

	LedgerDebits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polibet_ledger_debits_total",
		Help: "Total de débitos efetivados",
	})
	LedgerCredits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polibet_ledger_credits_total",
		Help: "Total de créditos efetivados",
	})
	InsufficientFunds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polibet_insufficient_funds_total",
		Help: "Débitos rejeitados por saldo insuficiente",
	})
)

func init() {
	prometheus.MustRegister(
		PredictionsCreated,
		PredictionsSettled,
		PredictionsCancelled,
		LedgerDebits,
		LedgerCredits,
		InsufficientFunds,
	)
}
