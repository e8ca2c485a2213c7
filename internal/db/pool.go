// Package db owns the PostgreSQL connection pool used by tile construction.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/tobilg/mvt-tileserver/internal/conf"
)

// Connect builds the bounded pgx pool from the resolved configuration. The
// pool caps concurrent connections and bounds connection establishment by
// the configured acquire timeout; contention past the cap blocks the request.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dbConf := conf.Configuration.Database
	if dbConf.URL == "" {
		return nil, errors.New("no database configured, set DATABASE_URL")
	}

	cfg, err := pgxpool.ParseConfig(dbConf.URL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = dbConf.MaxConns
	cfg.ConnConfig.ConnectTimeout = time.Duration(dbConf.AcquireTimeoutSeconds) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Infof("Connected to database %s (max_conns=%d acquire_timeout=%ds)",
		cfg.ConnConfig.Host, cfg.MaxConns, dbConf.AcquireTimeoutSeconds)
	return pool, nil
}
