package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/securebank/internal/buildinfo"
	"github.com/dmitrijs2005/securebank/internal/client/cli"
	"github.com/dmitrijs2005/securebank/internal/client/config"
	"github.com/dmitrijs2005/securebank/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

	// the signal context may already be done; cleanup still has to run
	if err := app.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Error(ctx, "shutdown", "error", err)
	}
}
