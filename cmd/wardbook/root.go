package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/wardbook/config"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/records"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/logger"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wardbook",
		Short:         "Clinical records API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newCreateUserCommand(),
		newSeedCommand(),
	)
	return root
}

// env is what every subcommand starts from.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	registry *subrecord.Registry
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db, registry: records.Registry()}, nil
}

func (e *env) migrate() error {
	return database.Migrate(e.db, e.registry, e.log)
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Sync()
}
