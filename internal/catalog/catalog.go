package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventLive      EventStatus = "LIVE"
	EventFinished  EventStatus = "FINISHED"
	EventCancelled EventStatus = "CANCELLED"
)

// Sport é uma modalidade disponível para apostas
type Sport struct {
	ID           string
	Name         string
	Icon         string
	Description  string
	ActiveEvents int
}

// EventOdds agrupa as odds dos mercados de um evento.
// Draw é nil em esportes sem empate.
type EventOdds struct {
	HomeWin   decimal.Decimal
	Draw      *decimal.Decimal
	AwayWin   decimal.Decimal
	OverUnder map[string]decimal.Decimal
	Handicap  map[string]decimal.Decimal
}

// Event é uma partida do catálogo
type Event struct {
	ID        string
	SportID   string
	HomeTeam  string
	AwayTeam  string
	League    string
	StartTime time.Time
	Status    EventStatus
	Odds      EventOdds
}

type Options struct {
	// Latência simulada antes de cada consulta. Zero desativa.
	SimLatency time.Duration
}

// Provider serve o catálogo estático de esportes e eventos. Somente leitura:
// o engine só consome o id e as odds de um evento, nunca muta nada aqui.
type Provider struct {
	latency time.Duration

	sports  []Sport
	bySport map[string][]Event
	byID    map[string]Event
}

func NewProvider(opts Options) *Provider {
	p := &Provider{
		latency: opts.SimLatency,
		bySport: make(map[string][]Event),
		byID:    make(map[string]Event),
	}
	p.seed()
	return p
}

// Sports lista as modalidades disponíveis
func (p *Provider) Sports(ctx context.Context) []Sport {
	_ = p.yield(ctx)
	out := make([]Sport, len(p.sports))
	copy(out, p.sports)
	return out
}

// EventsBySport lista os eventos de uma modalidade
func (p *Provider) EventsBySport(ctx context.Context, sportID string) []Event {
	_ = p.yield(ctx)
	list := p.bySport[sportID]
	out := make([]Event, len(list))
	copy(out, list)
	return out
}

// EventByID resolve um evento do catálogo
func (p *Provider) EventByID(ctx context.Context, eventID string) (Event, bool) {
	_ = p.yield(ctx)
	e, ok := p.byID[eventID]
	return e, ok
}

// LiveEvents emite periodicamente o snapshot dos eventos ao vivo até o ctx encerrar
func (p *Provider) LiveEvents(ctx context.Context, interval time.Duration) <-chan []Event {
	ch := make(chan []Event, 1)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			live := p.liveSnapshot()
			select {
			case <-ctx.Done():
				return
			case ch <- live:
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return ch
}

func (p *Provider) liveSnapshot() []Event {
	var live []Event
	for _, s := range p.sports {
		for _, e := range p.bySport[s.ID] {
			if e.Status == EventLive {
				live = append(live, e)
			}
		}
	}
	return live
}

func (p *Provider) yield(ctx context.Context) error {
	if p.latency <= 0 {
		return nil
	}
	t := time.NewTimer(p.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// seed planta o catálogo fixo de demonstração
func (p *Provider) seed() {
	now := time.Now()

	football := []Event{
		{ID: "fb_001", SportID: "football", HomeTeam: "Barcelona SC", AwayTeam: "Emelec",
			League: "Liga Pro Ecuador", StartTime: now.Add(1 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("2.1"), Draw: decPtr("3.2"), AwayWin: dec("3.8")}},
		{ID: "fb_002", SportID: "football", HomeTeam: "Real Madrid", AwayTeam: "FC Barcelona",
			League: "La Liga", StartTime: now.Add(2 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("2.5"), Draw: decPtr("3.1"), AwayWin: dec("2.9")}},
		{ID: "fb_003", SportID: "football", HomeTeam: "Manchester United", AwayTeam: "Liverpool",
			League: "Premier League", StartTime: now.Add(3 * time.Hour), Status: EventLive,
			Odds: EventOdds{HomeWin: dec("3.2"), Draw: decPtr("3.0"), AwayWin: dec("2.3")}},
		{ID: "fb_004", SportID: "football", HomeTeam: "PSG", AwayTeam: "Bayern Munich",
			League: "Champions League", StartTime: now.Add(4 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("2.8"), Draw: decPtr("3.4"), AwayWin: dec("2.6")}},
		{ID: "fb_005", SportID: "football", HomeTeam: "Aucas", AwayTeam: "Liga de Quito",
			League: "Liga Pro Ecuador", StartTime: now.Add(5 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("2.2"), Draw: decPtr("3.1"), AwayWin: dec("3.5")}},
		{ID: "fb_006", SportID: "football", HomeTeam: "Chelsea", AwayTeam: "Arsenal",
			League: "Premier League", StartTime: now.Add(6 * time.Hour), Status: EventLive,
			Odds: EventOdds{HomeWin: dec("2.4"), Draw: decPtr("3.3"), AwayWin: dec("3.0")}},
		{ID: "fb_007", SportID: "football", HomeTeam: "Juventus", AwayTeam: "AC Milan",
			League: "Serie A", StartTime: now.Add(7 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("2.7"), Draw: decPtr("3.2"), AwayWin: dec("2.8")}},
	}

	basketball := []Event{
		{ID: "bb_001", SportID: "basketball", HomeTeam: "Lakers", AwayTeam: "Warriors",
			League: "NBA", StartTime: now.Add(90 * time.Minute), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("1.9"), AwayWin: dec("1.9")}},
		{ID: "bb_002", SportID: "basketball", HomeTeam: "Celtics", AwayTeam: "Heat",
			League: "NBA", StartTime: now.Add(3 * time.Hour), Status: EventLive,
			Odds: EventOdds{HomeWin: dec("1.7"), AwayWin: dec("2.2")}},
		{ID: "bb_003", SportID: "basketball", HomeTeam: "Bucks", AwayTeam: "Nets",
			League: "NBA", StartTime: now.Add(5 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("1.6"), AwayWin: dec("2.4")}},
	}

	tennis := []Event{
		{ID: "tn_001", SportID: "tennis", HomeTeam: "Alcaraz", AwayTeam: "Sinner",
			League: "ATP Masters", StartTime: now.Add(2 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("1.8"), AwayWin: dec("2.0")}},
		{ID: "tn_002", SportID: "tennis", HomeTeam: "Djokovic", AwayTeam: "Medvedev",
			League: "ATP Masters", StartTime: now.Add(4 * time.Hour), Status: EventLive,
			Odds: EventOdds{HomeWin: dec("1.5"), AwayWin: dec("2.6")}},
	}

	volleyball := []Event{
		{ID: "vb_001", SportID: "volleyball", HomeTeam: "Brasil", AwayTeam: "Italia",
			League: "VNL", StartTime: now.Add(3 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("1.6"), AwayWin: dec("2.3")}},
	}

	baseball := []Event{
		{ID: "bs_001", SportID: "baseball", HomeTeam: "Yankees", AwayTeam: "Red Sox",
			League: "MLB", StartTime: now.Add(6 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("1.85"), AwayWin: dec("1.95")}},
	}

	boxing := []Event{
		{ID: "bx_001", SportID: "boxing", HomeTeam: "Canelo", AwayTeam: "Benavidez",
			League: "WBC", StartTime: now.Add(8 * time.Hour), Status: EventUpcoming,
			Odds: EventOdds{HomeWin: dec("1.7"), AwayWin: dec("2.1")}},
	}

	p.bySport = map[string][]Event{
		"football":   football,
		"basketball": basketball,
		"tennis":     tennis,
		"volleyball": volleyball,
		"baseball":   baseball,
		"boxing":     boxing,
	}

	p.sports = []Sport{
		{ID: "football", Name: "Football", Icon: "⚽", Description: "The world's most popular sport"},
		{ID: "basketball", Name: "Basketball", Icon: "🏀", Description: "Hoops"},
		{ID: "tennis", Name: "Tennis", Icon: "🎾", Description: "Racket sport"},
		{ID: "volleyball", Name: "Volleyball", Icon: "🏐", Description: "Net sport"},
		{ID: "baseball", Name: "Baseball", Icon: "⚾", Description: "America's pastime"},
		{ID: "boxing", Name: "Boxing", Icon: "🥊", Description: "Combat sport"},
	}
	for i := range p.sports {
		p.sports[i].ActiveEvents = len(p.bySport[p.sports[i].ID])
	}

	for _, list := range p.bySport {
		for _, e := range list {
			p.byID[e.ID] = e
		}
	}
}
