// Package kv is the durable key-value layer under the inventory and history
// snapshots. Keys and values are plain strings; a value is always rewritten
// as a whole.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

var (
	ErrQuotaExceeded = errors.New("kv: storage quota exceeded")
	ErrClosed        = errors.New("kv: store closed")
)

// Store is a synchronous string store with no transactions. Concurrent
// writers from different processes are not coordinated: the last Set wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Drivers lists the accepted values for Open.
var Drivers = []string{DriverMemory, DriverBolt, DriverSQLite, DriverPostgres}

// Open returns the Store for driver. dsn is a file path for bolt and sqlite
// and a connection string for postgres; memory ignores it.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemStore(), nil
	case DriverBolt:
		return OpenBolt(dsn)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", driver)
	}
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
