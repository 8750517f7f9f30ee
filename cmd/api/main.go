package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotelsat/internal/adapters/http_server"
	"hotelsat/internal/adapters/observability"
	redisad "hotelsat/internal/adapters/redis"
	"hotelsat/internal/adapters/sheets"
	"hotelsat/internal/analytics"
	"hotelsat/internal/app"
	"hotelsat/internal/domain"
	"hotelsat/internal/shared"
	mysqlrepo "hotelsat/internal/storage/mysql"
	"hotelsat/internal/webhook"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var mirror domain.SpreadsheetMirror
	if cfg.SheetsBridgeURL != "" {
		m, err := sheets.New(cfg.SheetsBridgeURL, cfg.SheetsBridgeKey, cfg.SheetsBridgeRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize sheets mirror")
		}
		mirror = m
	} else {
		log.Warn().Msg("SHEETS_BRIDGE_URL not set, spreadsheet mirroring disabled")
	}

	engine := analytics.New(repo)
	ing := app.NewIngestionService(repo, mirror, cfg.FallbackFirstHotel)
	q := app.NewQueryService(repo, engine, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Store:      repo,
		Ingest:     ing,
		Q:          q,
		Processor:  webhook.NewProcessor(cfg.TallyWebhookSecret),
		Structured: webhook.NewStructuredProcessor(),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
