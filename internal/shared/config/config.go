package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config centraliza variáveis de ambiente e parâmetros de execução do engine.
// Os pacotes do core não leem ambiente diretamente; recebem estes valores via injeção.
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string

	// Saldo inicial de contas recém-registradas
	StartingBalance decimal.Decimal

	// Janela de resolução das apostas simuladas
	SettleDelayMin time.Duration
	SettleDelayMax time.Duration

	// Probabilidade fixa de vitória do engine, em percentual inteiro (1..100).
	// Parâmetro de simulação: não deriva das odds oferecidas.
	SettleWinPercent int

	// Latência simulada de "rede" antes de cada operação dos stores
	SimLatency time.Duration

	// Intervalo de republicação dos eventos ao vivo do catálogo
	LiveRefreshInterval time.Duration

	// Porta exclusiva para /metrics e /healthz
	MetricsPort string
}

// Load carrega variáveis de ambiente e define defaults do engine
func Load() Config {
	return Config{
		Env:         getEnv("ENV", "local"),
		ServiceName: getEnv("SERVICE_NAME", "polibet-engine"),

		StartingBalance: getDecimal("STARTING_BALANCE", "1000.00"),

		SettleDelayMin:   getDuration("SETTLE_DELAY_MIN", 30*time.Second),
		SettleDelayMax:   getDuration("SETTLE_DELAY_MAX", 120*time.Second),
		SettleWinPercent: getInt("SETTLE_WIN_PERCENT", 60),

		SimLatency:          getDuration("SIM_LATENCY", 300*time.Millisecond),
		LiveRefreshInterval: getDuration("LIVE_REFRESH_INTERVAL", 5*time.Second),

		MetricsPort: getEnv("METRICS_PORT", "9095"),
	}
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getDecimal(key, def string) decimal.Decimal {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(def)
	return d
}
