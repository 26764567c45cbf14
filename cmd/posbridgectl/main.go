package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/erp/posbridge/internal/bootstrap"
	"github.com/erp/posbridge/internal/infrastructure/config"
	"github.com/erp/posbridge/internal/infrastructure/logger"
	"github.com/erp/posbridge/internal/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var log *zap.Logger
	defer func() {
		if log != nil {
			_ = logger.Sync(log)
		}
	}()

	// the POS client signs in lazily on its first call
	factory := func(_ context.Context) (*cli.Env, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		// progress goes to stderr so that --format json stays parseable
		cfg.Log.Output = "stderr"
		log, err = bootstrap.NewLogger(cfg)
		if err != nil {
			return nil, err
		}

		crmClient, err := bootstrap.NewCRMClient(cfg, log)
		if err != nil {
			return nil, err
		}
		posClient, err := bootstrap.NewPOSClient(cfg, log)
		if err != nil {
			return nil, err
		}

		return &cli.Env{
			Runner:    bootstrap.NewReconciler(cfg, crmClient, posClient, nil, log),
			Webhooks:  posClient,
			Goods:     posClient,
			Reference: crmClient,
		}, nil
	}

	if err := cli.NewRootCommand(factory).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
