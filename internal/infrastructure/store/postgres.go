// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package store implements the relational store repositories on PostgreSQL.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// tracerName is the instrumentation name for the store package.
const tracerName = "github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/infrastructure/store"

// Pool sizing matches the deployment's worker concurrency.
const (
	defaultMinConns = 1
	defaultMaxConns = 5
)

// Config holds the PostgreSQL connection settings.
type Config struct {
	// DSN is the connection string. It may be absent at startup; the pool
	// then reports a configuration error on first use instead of crashing
	// the process.
	DSN      string
	MinConns int32
	MaxConns int32
}

// DB is a lazily-opened PostgreSQL connection pool shared by the
// repositories. Construction never fails; the pool opens on first use so a
// momentarily absent configuration does not prevent startup.
type DB struct {
	mu     sync.Mutex
	pool   *pgxpool.Pool
	config Config
}

// NewDB creates a disconnected handle. The pool is opened by the first call
// to Pool.
func NewDB(config Config) *DB {
	if config.MinConns == 0 {
		config.MinConns = defaultMinConns
	}
	if config.MaxConns == 0 {
		config.MaxConns = defaultMaxConns
	}
	return &DB{config: config}
}

// Pool returns the connection pool, opening it on first use. A missing DSN
// is a typed configuration error so callers can distinguish it from a
// connectivity failure.
func (d *DB) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		return d.pool, nil
	}

	if d.config.DSN == "" {
		return nil, domain.NewUnavailableError("postgres connection string is not configured")
	}

	poolConfig, err := pgxpool.ParseConfig(d.config.DSN)
	if err != nil {
		return nil, domain.NewInternalError("invalid postgres connection string", err)
	}
	poolConfig.MinConns = d.config.MinConns
	poolConfig.MaxConns = d.config.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.ErrorContext(ctx, "error opening postgres pool", logging.ErrKey, err)
		return nil, domain.NewUnavailableError("failed to open postgres pool", err)
	}

	d.pool = pool
	slog.InfoContext(ctx, "postgres pool opened",
		"min_conns", d.config.MinConns,
		"max_conns", d.config.MaxConns,
	)
	return d.pool, nil
}

// Close releases the pool if it was ever opened.
func (d *DB) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
}
