package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/JhonesBR/go-ledger/internal/config"
	"github.com/JhonesBR/go-ledger/internal/db"
	"github.com/JhonesBR/go-ledger/internal/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(db.Up), string(db.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			return db.Migrate(cfg.DatabaseURL, db.Direction(args[0]), log)
		},
	}
}
