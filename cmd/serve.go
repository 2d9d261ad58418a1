package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JhonesBR/go-ledger/internal/api"
	"github.com/JhonesBR/go-ledger/internal/config"
	"github.com/JhonesBR/go-ledger/internal/db"
	"github.com/JhonesBR/go-ledger/internal/ledger"
	"github.com/JhonesBR/go-ledger/internal/logger"
	"github.com/JhonesBR/go-ledger/internal/memstore"
)

func newServeCommand() *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), memory)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "keep the ledger in memory instead of Postgres")
	return cmd
}

func serve(ctx context.Context, memory bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store ledger.Store
	if memory {
		log.Warn("using in-memory store, data is lost on exit")
		store = memstore.New()
	} else {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		pool, err := db.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = db.NewStore(pool)
	}

	svc := ledger.NewService(store,
		ledger.WithLogger(log.Named("ledger")),
		ledger.WithMaxRetries(cfg.TxMaxRetries),
		ledger.WithPasswordCost(cfg.PasswordCost),
	)
	app := api.NewApp(svc, log.Named("api"))

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
		return app.Shutdown()
	}
}
