package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/splax/fintrack/internal/app/migrate"
	"github.com/splax/fintrack/internal/app/store"
	"github.com/splax/fintrack/pkg/config"
	"github.com/splax/fintrack/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|version|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	config.LoadDotEnv(".env")
	cfg := config.LoadAPIConfig()
	log := logger.New("migrate", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	runner, err := migrate.New(st.DB, st.Driver, log)
	if err != nil {
		log.Error("failed to configure migration runner", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Ensure(ctx)
	case "status":
		err = runner.Status(ctx)
	case "version":
		var version int64
		version, err = runner.Version(ctx)
		if err == nil {
			log.Info("schema version", "version", version)
		}
	case "down":
		err = runner.Down(ctx, *target)
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(2)
	}
	if err != nil {
		log.Error("migration command failed", "command", *command, "error", err)
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command, "driver", st.Driver)
}
