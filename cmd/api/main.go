package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-vault-backend/internal/config"
	"smart-vault-backend/internal/handlers"
	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
	"smart-vault-backend/internal/services"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audit, err := services.OpenAuditLog(cfg.Audit.DSN)
	if err != nil {
		slog.Error("failed to open audit log", "dsn", cfg.Audit.DSN, "error", err)
		os.Exit(1)
	}
	defer audit.Close()

	settings := ledger.Settings{
		RewardThreshold:         cfg.Ledger.RewardThreshold,
		MaxRollsPerCall:         cfg.Ledger.MaxRollsPerCall,
		MaxBatchSize:            cfg.Ledger.MaxBatchSize,
		DefaultMaintenanceHours: cfg.Ledger.MaintenanceHours,
	}

	var (
		engine     *ledger.Engine
		airdropper handlers.Airdropper
		nonces     services.NonceStore
		redisHost  *services.RedisHost
	)
	switch cfg.Store.Driver {
	case config.DriverRedis:
		redisHost, err = services.NewRedisHost(ctx, cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer redisHost.Close()
		engine = ledger.NewEngine(redisHost, settings, redisHost)
		airdropper = redisHost
		nonces = redisHost
	default:
		host := services.NewMemoryHost()
		engine = ledger.NewEngine(host, settings, audit)
		airdropper = host
		nonces = services.NewMemoryNonceStore()
	}

	wsHandler := handlers.NewWebSocketHandler(engine)
	if redisHost != nil {
		// Local subscribers and the audit log are fed from the shared events channel.
		deliver := func(env *models.EventEnvelope) {
			audit.Consume(env)
			wsHandler.BroadcastEvent(env)
		}
		if err := redisHost.Subscribe(ctx, deliver); err != nil {
			slog.Error("failed to subscribe to ledger events", "error", err)
			os.Exit(1)
		}
	} else {
		engine.AddSink(services.NewBroadcastSink(wsHandler))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Engine:        engine,
		JWT:           services.NewJWTService(cfg.Auth.TokenMaxAge),
		Nonces:        nonces,
		Audit:         audit,
		Airdropper:    airdropper,
		WebSocket:     wsHandler,
		Production:    cfg.IsProduction(),
		RatePerSecond: cfg.RateLimit.PerSecond,
		RateBurst:     cfg.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Server.Port, "env", cfg.Server.Env, "store", cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
