package predictions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type é o mercado apostado
type Type string

const (
	TypeMatchResult    Type = "MATCH_RESULT" // 1x2
	TypeOverUnder      Type = "OVER_UNDER"
	TypeHandicap       Type = "HANDICAP"
	TypeBothTeamsScore Type = "BOTH_TEAMS_SCORE"
)

// Status do ciclo de vida de uma aposta. Transições partem sempre de PENDING;
// WON, LOST, CANCELLED e VOID são terminais.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusWon       Status = "WON"
	StatusLost      Status = "LOST"
	StatusCancelled Status = "CANCELLED"
	// VOID é reservado para anulação administrativa; nenhuma operação do engine o produz
	StatusVoid Status = "VOID"
)

// Prediction é uma aposta simulada contra um evento do catálogo
type Prediction struct {
	ID             string
	UserID         string
	EventID        string
	Type           Type
	SelectedOption string
	Odds           decimal.Decimal
	Amount         decimal.Decimal
	PotentialWin   decimal.Decimal
	Status         Status
	CreatedAt      time.Time
}

// Draft carrega os campos vindos do chamador para criar uma aposta.
// Id, payout, status e timestamp são sempre atribuídos pelo store.
type Draft struct {
	UserID         string
	EventID        string
	Type           Type
	SelectedOption string
	Odds           decimal.Decimal
	Amount         decimal.Decimal
}
