package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Itish41/DocLens/cli"
	"github.com/Itish41/DocLens/initializers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := initializers.LoadEnv(); err != nil {
		return err
	}
	cfg, err := initializers.LoadConfig(os.Getenv("DOCLENS_CONFIG_DIR"))
	if err != nil {
		return err
	}
	logger, err := initializers.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initializers.BuildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	cli.SetServices(app.Documents, app.Search)
	return cli.Execute(ctx)
}
