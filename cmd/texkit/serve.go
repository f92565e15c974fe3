package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli"

	"texkit/internal/server"
)

// Serve runs the HTTP API until interrupted.
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return server.New(cfg).ListenAndServe(runCtx, cfg.ListenAddr)
}
