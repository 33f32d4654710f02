package database

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// RunMigrations applies every pending goose migration found in dir to the
// master database.
func RunMigrations(db *dbpg.DB, dir string) error {
	if db == nil || db.Master == nil {
		return fmt.Errorf("run migrations: database is not connected")
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db.Master, dir); err != nil {
		return fmt.Errorf("apply migrations from %s: %w", dir, err)
	}

	version, err := goose.GetDBVersion(db.Master)
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to read migration version")
		return nil
	}
	zlog.Logger.Info().Int64("version", version).Str("dir", dir).Msg("database migrations applied")
	return nil
}
