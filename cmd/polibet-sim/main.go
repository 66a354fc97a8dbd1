package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polibet/engine-poc/internal/catalog"
	"github.com/polibet/engine-poc/internal/credentials"
	"github.com/polibet/engine-poc/internal/ledger"
	"github.com/polibet/engine-poc/internal/predictions"
	"github.com/polibet/engine-poc/internal/settlement"
	"github.com/polibet/engine-poc/internal/shared/config"
	"github.com/polibet/engine-poc/internal/shared/logger"
	"github.com/polibet/engine-poc/internal/shared/metrics"
	"github.com/polibet/engine-poc/internal/summary"
)

func main() {
	// .env é opcional; ambiente real sobrescreve
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting engine", zap.String("env", cfg.Env))

	// Servidor de métricas e health check
	metricsSrv := metrics.StartServer(cfg.MetricsPort, nil)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Montagem explícita do engine: nada de singletons globais
	led := ledger.New(log, ledger.Options{SimLatency: cfg.SimLatency})
	feed := predictions.NewFeed()
	store := predictions.NewStore(log, led, feed, predictions.Options{SimLatency: cfg.SimLatency})
	sched := settlement.New(log, store, settlement.Options{
		MinDelay:   cfg.SettleDelayMin,
		MaxDelay:   cfg.SettleDelayMax,
		WinPercent: cfg.SettleWinPercent,
	})
	store.SetSettler(sched)

	creds := credentials.NewStore(log, led, credentials.Options{
		StartingBalance: cfg.StartingBalance,
		SimLatency:      cfg.SimLatency,
	})
	events := catalog.NewProvider(catalog.Options{SimLatency: cfg.SimLatency})
	projector := summary.New(store)

	// Replanta os dados de demonstração da sessão
	store.ClearSession()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Observa o feed agregado, como a UI faria
	go func() {
		updates, cancel := feed.Subscribe()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot := <-updates:
				log.Info("feed update", zap.Int("predictions", len(snapshot)))
			}
		}
	}()

	// Acompanha os eventos ao vivo do catálogo
	go func() {
		for live := range events.LiveEvents(ctx, cfg.LiveRefreshInterval) {
			log.Debug("live events", zap.Int("count", len(live)))
		}
	}()

	runDemoSession(ctx, log, creds, led, store, events, projector)

	<-ctx.Done()
	log.Info("shutting down, draining settlements", zap.Int("inFlight", sched.InFlight()))

	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sched.Shutdown(drainCtx); err != nil {
		log.Warn("settlement drain", zap.Error(err))
	}
	_ = metricsSrv.Shutdown(drainCtx)
}

// runDemoSession percorre o fluxo típico de um usuário: login, apostas contra
// o catálogo, um cancelamento e o resumo ao final
func runDemoSession(
	ctx context.Context,
	log *zap.Logger,
	creds *credentials.Store,
	led *ledger.Ledger,
	store *predictions.Store,
	events *catalog.Provider,
	projector *summary.Projector,
) {
	user, err := creds.Login(ctx, "demo", "123456")
	if err != nil {
		log.Error("demo login", zap.Error(err))
		return
	}
	log.Info("logged in",
		zap.String("userId", user.ID),
		zap.String("balance", user.Balance.StringFixed(2)),
	)

	ev, ok := events.EventByID(ctx, "fb_004")
	if !ok {
		log.Error("demo event missing")
		return
	}

	first, err := store.Create(ctx, predictions.Draft{
		UserID:         user.ID,
		EventID:        ev.ID,
		Type:           predictions.TypeMatchResult,
		SelectedOption: ev.HomeTeam + " win",
		Odds:           ev.Odds.HomeWin,
		Amount:         decimal.RequireFromString("50.00"),
	})
	if err != nil {
		log.Error("place bet", zap.Error(err))
		return
	}

	second, err := store.Create(ctx, predictions.Draft{
		UserID:         user.ID,
		EventID:        "fb_003",
		Type:           predictions.TypeOverUnder,
		SelectedOption: "Over 2.5",
		Odds:           decimal.RequireFromString("1.95"),
		Amount:         decimal.RequireFromString("20.00"),
	})
	if err != nil {
		log.Error("place bet", zap.Error(err))
		return
	}

	// Cancela a segunda antes da resolução; stake volta para a conta
	if err := store.Cancel(ctx, second.ID); err != nil {
		log.Error("cancel bet", zap.Error(err))
	}

	current, _ := led.Current()
	log.Info("session state",
		zap.String("balance", current.Balance.StringFixed(2)),
		zap.Int("pending", store.PendingCount(user.ID)),
		zap.String("awaiting", first.ID),
	)

	sum := projector.Summarize(ctx, user.ID)
	log.Info("summary",
		zap.Int("total", sum.Total),
		zap.Int("won", sum.Won),
		zap.Int("lost", sum.Lost),
		zap.Int("pending", sum.Pending),
		zap.String("totalStaked", sum.TotalStaked.StringFixed(2)),
		zap.String("totalWon", sum.TotalWon.StringFixed(2)),
		zap.Float64("winRate", sum.WinRate),
	)
}
