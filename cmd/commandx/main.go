package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"commandx/internal/adapters/cli"
	"commandx/internal/app"
	"commandx/internal/bootstrap"
	"commandx/internal/config"
	"commandx/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logCfg := cfg.GetLoggerConfig()
	if os.Getenv("LOG_OUTPUT") == "" {
		logCfg.Output = "stderr"
	}
	if err := logger.Setup(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cfg, open, os.Args[1:])
	stop()
	os.Exit(code)
}

func open(ctx context.Context, cfg *config.Config) (app.ApplicationService, func(), error) {
	rt, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return rt.Service, rt.Close, nil
}
