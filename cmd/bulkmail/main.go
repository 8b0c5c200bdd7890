package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/pure-golang/bulkmail/app"
	"github.com/pure-golang/bulkmail/env"
	"github.com/pure-golang/bulkmail/logger"
	"github.com/pure-golang/bulkmail/metrics"
	"github.com/pure-golang/bulkmail/tracing"
	"github.com/pure-golang/bulkmail/tracing/jaeger"
)

func main() {
	envFile := flag.String("env", env.DefaultEnvFile, "dotenv file loaded before the environment")
	flag.Parse()

	cfg, err := app.LoadConfig(*envFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.InitDefault(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Default().Error("bulkmail stopped", "error", err.Error())
		os.Exit(1)
	}
	slog.Default().Info("bulkmail stopped")
}

func run(ctx context.Context, cfg app.Config) error {
	if cfg.Tracing.EndPoint != "" {
		provider, err := tracing.Init(jaeger.NewProviderBuilder(cfg.Tracing))
		if err != nil {
			slog.Default().Warn("tracing disabled", "error", err.Error())
		}
		defer provider.Close()
	}

	if cfg.Metrics.Enabled {
		m, err := metrics.InitDefault(cfg.Metrics)
		if err != nil {
			return err
		}
		defer m.Close()
		slog.Default().Info("metrics listening", slog.String("addr", m.Addr()))
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", cfg.Server.Addr())
	}
	return a.Run(ctx, ln)
}
