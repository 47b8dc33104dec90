package main

import (
	"database/sql"
	"net/http"

	"click-merchant/internal/click"
	"click-merchant/internal/config"
	"click-merchant/internal/db"
	"click-merchant/internal/logger"
	"click-merchant/internal/metrics"
	"click-merchant/internal/middleware"
	"click-merchant/internal/payment"
	"click-merchant/internal/transport"

	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = http.ListenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router, err := newServer(cfg, database)
	if err != nil {
		return err
	}

	logger.L().Info("click merchant server running",
		zap.String("port", cfg.AppPort),
		zap.String("endpoint", cfg.ClickEndpoint),
	)
	return startServerFunc(":"+cfg.AppPort, router)
}

func newServer(cfg *config.Config, database *sql.DB) (http.Handler, error) {
	repo := payment.NewRepository(database, cfg.PaymentsTable)

	registry, err := click.NewRegistry(cfg, repo, nil)
	if err != nil {
		return nil, err
	}
	if len(registry.Names()) == 0 {
		logger.L().Warn("no click service configured; merchant operations will be refused")
	}

	if cfg.SessionToken == "" {
		logger.L().Warn("no session token configured; only allow-listed paths are served",
			zap.Strings("access", cfg.SessionAccess),
		)
	}

	handler := transport.NewHandler(registry, repo, metrics.NewCallbacks())

	mux := http.NewServeMux()
	handler.Routes(mux)

	session := middleware.SessionMiddleware(cfg.SessionHeader, cfg.SessionToken, cfg.SessionAccess)
	api := middleware.RateLimitMiddleware(cfg.InternalSecretKey)(session(mux))

	return setupRouter(api, session(http.HandlerFunc(handler.Stats))), nil
}

func setupRouter(api http.Handler, stats http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", stats)
	mux.Handle("/", api)

	return logger.RequestIDMiddleware(middleware.LoggingMiddleware(mux))
}
