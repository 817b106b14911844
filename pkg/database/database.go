package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmehra2102/prod-golang-projects/wardbook/config"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/lookuplist"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
)

func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: newGormLogger(log, cfg.SlowQueryThreshold),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		gormCfg.PrepareStmt = true
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN()})
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Models lists every table the service owns, subrecord tables included.
func Models(registry *subrecord.Registry) []any {
	models := []any{
		&domain.User{},
		&domain.UserProfile{},
		&domain.AuditLog{},
		&patient.Patient{},
		&team.Team{},
		&team.Grant{},
		&episode.Episode{},
		&episode.Tagging{},
		&lookuplist.Item{},
		&lookuplist.Synonym{},
		&lookuplist.Macro{},
	}
	return append(models, registry.Models()...)
}

func Migrate(db *gorm.DB, registry *subrecord.Registry, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	if err := db.AutoMigrate(Models(registry)...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db, registry); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB, registry *subrecord.Registry) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_taggings_live ON taggings (team_id, episode_id) WHERE archived = false`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_synonyms_item_name ON synonyms (item_id, name)`,
	}

	// one row per owner for singleton subrecords
	for _, t := range registry.Types() {
		if !t.Single {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(t.New()); err != nil {
			return fmt.Errorf("parsing %s: %w", t.APIName, err)
		}
		table, key := stmt.Schema.Table, t.Owner.Key()
		indexes = append(indexes, fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_single_%s ON %s (%s)`, table, key, table, key))
	}

	for _, q := range indexes {
		if err := db.Exec(q).Error; err != nil {
			return err
		}
	}
	return nil
}

// gormLogger routes slow queries and errors into zap.
type gormLogger struct {
	log           *zap.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newGormLogger(log *zap.Logger, slow time.Duration) gormlogger.Interface {
	if log == nil {
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return &gormLogger{log: log.Named("gorm"), slowThreshold: slow, level: gormlogger.Warn}
}
