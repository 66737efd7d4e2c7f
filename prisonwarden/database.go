package prisonwarden

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	dbTypeSQLite   = "sqlite"
	dbTypePostgres = "postgres"
)

var (
	sqliteMaxOpenConns    = 1
	sqliteMaxIdleConns    = 1
	sqliteMaxConnLifetime = 5 * time.Minute
	sqliteExecPragma      = []string{
		"pragma journal_mode=WAL;",
		"pragma synchronous = normal;",
		"pragma temp_store = memory;",
		"pragma foreign_keys = ON;",
	}
)

// migrateModels is the full set of persisted models; the gorm tags on these
// structs are the source of truth for the schema of the notes, joins,
// config, modlog_channels and appeals_roles tables.
var migrateModels = []any{
	&Note{},
	&JoinLog{},
	&GuildConfig{},
	&ModlogChannels{},
	&AppealRole{},
}

// ModelUnixTime is an embeddable model with Unix timestamps for
// creation, update, and deletion, stored in milliseconds.
type ModelUnixTime struct {
	CreatedAt int64          `gorm:"autoCreateTime:milli" json:"created_at,omitempty"`
	UpdatedAt int64          `gorm:"autoUpdateTime:milli" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type ModelUintID struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

// CreateDB opens (and migrates) the bot database. dbType must be
// 'sqlite' or 'postgres'.
func CreateDB(
	ctx context.Context,
	dbType string,
	dsn string,
	opts ...gorm.Option,
) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbType {
	case dbTypeSQLite:
		dialector = sqlite.Open(dsn)
	case dbTypePostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf(
			"invalid database type '%s' (must be one of: sqlite, postgres)",
			dbType,
		)
	}

	db, err := gorm.Open(dialector, opts...)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if dbType == dbTypeSQLite {
		sqlDB, e := db.DB()
		if e != nil {
			return nil, e
		}
		sqlDB.SetMaxOpenConns(sqliteMaxOpenConns)
		sqlDB.SetMaxIdleConns(sqliteMaxIdleConns)
		sqlDB.SetConnMaxLifetime(sqliteMaxConnLifetime)
		for _, pragma := range sqliteExecPragma {
			if e = db.WithContext(ctx).Exec(pragma).Error; e != nil {
				return nil, fmt.Errorf("error setting pragma: %w", e)
			}
		}
	}

	if err = db.WithContext(ctx).AutoMigrate(migrateModels...); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return db, nil
}

// initDB opens the configured database with the bot's structured logger
// attached.
func (p *PrisonWarden) initDB(ctx context.Context) error {
	gormLogger := newGORMLogger(
		tintHandler(p.config.DatabaseLogLevel),
		p.config.DatabaseSlowThreshold,
	)
	db, err := CreateDB(
		ctx,
		p.config.DatabaseType,
		p.config.Database,
		&gorm.Config{Logger: gormLogger},
	)
	if err != nil {
		return err
	}
	p.db = db
	p.logger.LogAttrs(
		ctx,
		slog.LevelInfo,
		"database initialized",
		slog.String("database_type", p.config.DatabaseType),
	)
	return nil
}
