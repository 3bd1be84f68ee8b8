package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/triage-ai/composcan/internal/api"
	"github.com/triage-ai/composcan/internal/collector"
	"github.com/triage-ai/composcan/internal/oracle"
	"github.com/triage-ai/composcan/internal/registry"
	"github.com/triage-ai/composcan/internal/results"
	"github.com/triage-ai/composcan/internal/scanner"
	"github.com/triage-ai/composcan/internal/scheduler"
	"github.com/triage-ai/composcan/internal/storage"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("COMPOSCAN_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("COMPOSCAN_HTTP_PORT", "8080")
	resultsDir := envOrDefault("COMPOSCAN_RESULTS_DIR", "results")
	mcpConfig := os.Getenv("COMPOSCAN_MCP_CONFIG")
	oracleURL := envOrDefault("COMPOSCAN_ORACLE_URL", "https://api.openai.com/v1")
	oracleKey := os.Getenv("COMPOSCAN_ORACLE_API_KEY")
	oracleModel := envOrDefault("COMPOSCAN_ORACLE_MODEL", "gpt-4o")
	oracleTimeout := envOrDefaultInt("COMPOSCAN_ORACLE_TIMEOUT_S", 300)
	listTimeout := envOrDefaultInt("COMPOSCAN_LIST_TIMEOUT_S", 30)
	apiKeyHash := os.Getenv("COMPOSCAN_API_KEY_HASH")
	postgresDSN := os.Getenv("POSTGRES_DSN")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")

	logger.Info("starting composcan server",
		zap.String("http_port", httpPort),
		zap.String("results_dir", resultsDir),
		zap.String("oracle_url", oracleURL),
		zap.String("oracle_model", oracleModel),
	)

	// Server registry — Postgres or mcp.json
	var reg registry.ServerRegistry
	if postgresDSN != "" {
		db, err := sql.Open("pgx", postgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		reg = registry.NewPostgresRegistry(registry.PostgresRegistryConfig{
			DB:     db,
			Logger: logger,
		})
		logger.Info("postgres server registry connected")
	} else {
		fileReg, err := registry.LoadFileRegistry(mcpConfig)
		if err != nil {
			logger.Fatal("failed to load server registry", zap.Error(err))
		}
		reg = fileReg
		logger.Info("file server registry loaded", zap.Int("servers", fileReg.Len()))
	}

	// Audit events — ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Reasoning oracle
	if oracleKey == "" {
		logger.Fatal("COMPOSCAN_ORACLE_API_KEY is required")
	}
	oracleClient, err := oracle.NewHTTPClient(oracle.HTTPClientConfig{
		BaseURL: oracleURL,
		APIKey:  oracleKey,
		Model:   oracleModel,
		Timeout: time.Duration(oracleTimeout) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to build oracle client", zap.Error(err))
	}

	// Pipeline
	lister := collector.NewMCPToolLister(time.Duration(listTimeout) * time.Second)
	store := results.NewStore(resultsDir, logger)
	svc := scanner.New(scanner.Config{
		Collector: collector.New(lister, logger),
		Oracle:    oracleClient,
		Store:     store,
		Events:    writer,
		Model:     oracleModel,
		Logger:    logger,
	})
	queue := scheduler.New(logger)

	deps := &api.Dependencies{
		Scanner:    svc,
		Queue:      queue,
		Registry:   reg,
		Store:      store,
		Logger:     logger,
		APIKeyHash: apiKeyHash,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("composcan server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
