package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hwbot/internal/app"
	"hwbot/internal/config"
	logx "hwbot/pkg/logx"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "optional path to a yaml/json config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot := logx.NewConsole("INFO").With(logx.String("comp", "main"))

	cfg, file, err := config.Load(cfgPath)
	if err != nil {
		boot.Critical("configuration error; exiting", logx.Err(err))
		os.Exit(1)
	}

	var cfgm *config.Manager
	if strings.TrimSpace(cfgPath) != "" {
		cfgm = config.NewManager(cfgPath)
		cfgm.Commit(file)
	}

	a, err := app.New(cfg, cfgm)
	if err != nil {
		boot.Critical("startup failed", logx.Err(err))
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		boot.Critical("start failed", logx.Err(err))
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-a.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	// Stop also reports the first fatal error of any supervised goroutine.
	if err := a.Stop(stopCtx); err != nil {
		boot.Error("shutdown with error", logx.Err(err))
		stopCancel()
		os.Exit(1)
	}
}
