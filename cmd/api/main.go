package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/splax/fintrack/internal/app/migrate"
	"github.com/splax/fintrack/internal/app/seed"
	"github.com/splax/fintrack/internal/app/store"
	httpx "github.com/splax/fintrack/internal/http"
	"github.com/splax/fintrack/internal/service/account"
	"github.com/splax/fintrack/internal/service/ledger"
	"github.com/splax/fintrack/pkg/config"
	"github.com/splax/fintrack/pkg/logger"
)

func main() {
	config.LoadDotEnv(".env")
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Error("database ping failed", "driver", st.Driver, "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(st.DB, st.Driver, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	accountSvc, err := account.New(st.Accounts, log)
	if err != nil {
		log.Error("failed to build account service", "error", err)
		os.Exit(1)
	}
	ledgerSvc := ledger.New(accountSvc, st.Transactions, log)

	if cfg.SeedDemoData {
		if err := seed.DemoData(ctx, accountSvc, ledgerSvc, log); err != nil {
			log.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(ctx, addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable, using in-memory limiter", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, accountSvc, ledgerSvc, limiter, st.Ping, cfg.CORSOrigins)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "driver", st.Driver, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
