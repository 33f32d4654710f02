package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
	"github.com/yokitheyo/avatarservice/internal/helpers"
)

const (
	defaultConnectRetries = 15
	defaultConnectDelay   = 3
)

// Connect opens the master and slave pools described by cfg, retrying until
// the master answers a ping.
func Connect(cfg *config.DatabaseConfig) (*dbpg.DB, error) {
	var slaves []string
	if strings.TrimSpace(cfg.Slaves) != "" {
		slaves = helpers.SplitAndTrim(cfg.Slaves, ",")
	}
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSec) * time.Second,
	}

	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = defaultConnectRetries
	}
	delay := cfg.ConnectRetryDelaySec
	if delay <= 0 {
		delay = defaultConnectDelay
	}
	return ConnectWithRetries(cfg.DSN, slaves, opts, retries, delay)
}

func ConnectWithRetries(masterDSN string, slaves []string, opts *dbpg.Options, retries int, delaySec int) (*dbpg.DB, error) {
	if retries <= 0 {
		retries = 1
	}
	if delaySec <= 0 {
		delaySec = 1
	}

	var db *dbpg.DB
	var err error

	for i := 0; i < retries; i++ {
		zlog.Logger.Info().Msgf("Database connection attempt %d/%d", i+1, retries)

		db, err = dbpg.New(masterDSN, slaves, opts)
		switch {
		case err != nil:
			zlog.Logger.Warn().Err(err).Msgf("dbpg.New failed on attempt %d/%d", i+1, retries)
			db = nil
		case db.Master == nil:
			err = fmt.Errorf("database.Master is nil")
			zlog.Logger.Warn().Err(err).Msgf("nil master connection on attempt %d/%d", i+1, retries)
			db = nil
		default:
			if err = db.Master.Ping(); err == nil {
				zlog.Logger.Info().Int("slaves", len(db.Slaves)).Msg("Database connection established")
				return db, nil
			}
			zlog.Logger.Warn().Err(err).Msgf("db ping failed on attempt %d/%d", i+1, retries)
			Close(db)
			db = nil
		}

		if i < retries-1 {
			time.Sleep(time.Duration(delaySec) * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
}

// Close releases the master and every slave pool.
func Close(db *dbpg.DB) {
	if db == nil {
		return
	}
	if db.Master != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("closing db master failed")
		}
	}
	for i, s := range db.Slaves {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave_index", i).Msg("closing db slave failed")
		}
	}
}
