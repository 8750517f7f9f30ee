package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	// Webhook ingestion
	TallyWebhookSecret string
	FallbackFirstHotel bool

	// Spreadsheet mirror bridge
	SheetsBridgeURL string
	SheetsBridgeKey string
	SheetsBridgeRPS int

	// Catalog importer
	ImportWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:             env("APP_ENV", "prod"),
		HTTPAddr:           env("HTTP_ADDR", ":8080"),
		MetricsAddr:        env("METRICS_ADDR", ":9100"),
		MySQLDSN:           env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotelsat?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:          env("REDIS_ADDR", "localhost:6379"),
		RedisPass:          env("REDIS_PASSWORD", ""),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		TallyWebhookSecret: env("TALLY_WEBHOOK_SECRET", ""),
		FallbackFirstHotel: env("WEBHOOK_FALLBACK_FIRST_HOTEL", "") == "true",
		SheetsBridgeURL:    env("SHEETS_BRIDGE_URL", ""),
		SheetsBridgeKey:    env("SHEETS_BRIDGE_KEY", ""),
		SheetsBridgeRPS:    atoi("SHEETS_BRIDGE_RPS", 2),
		ImportWorkers:      atoi("IMPORT_WORKERS", 8),
	}
	if c.TallyWebhookSecret == "" {
		log.Warn().Msg("TALLY_WEBHOOK_SECRET is empty, webhook signatures will not be checked")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
