package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"feverscan/internal/advisor"
	"feverscan/internal/auth"
	"feverscan/internal/config"
	"feverscan/internal/db"
	httpserver "feverscan/internal/http"
	"feverscan/internal/llm"
	"feverscan/internal/refdata"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// Open and verify the database connection; a broken persistence backend
	// at startup is the one unrecoverable condition.
	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	repo := db.NewRepository(dbConn)

	// Reference data is best-effort: a load failure only degrades prompts.
	reference := refdata.Load(cfg.ReferenceCSV, logger)

	generator, err := llm.New(context.Background(), cfg.Generator, cfg.APIKey(), cfg.Model, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("failed to construct generator: %v", err)
	}
	adv := advisor.New(generator, reference, cfg.RetryAttempts, cfg.RetryBaseDelay, logger)
	if adv.LocalOnly() {
		logger.Info("running in local-fallback mode, no generative backend")
	}

	authSvc := auth.NewService(repo)

	srv, err := httpserver.NewServer(repo, authSvc, adv, httpserver.Config{
		RateWindow:    cfg.RateWindow,
		RateBudget:    cfg.RateBudget,
		HistoryLimit:  cfg.HistoryLimit,
		SessionCookie: cfg.SessionCookie,
	}, logger)
	if err != nil {
		log.Fatalf("failed to construct server: %v", err)
	}

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "generator", cfg.Generator)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
