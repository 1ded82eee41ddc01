package storage

import (
	"context"
	"fmt"
	"path/filepath"
)

// Supported drivers
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Options selects and configures a gateway
type Options struct {
	Driver   string
	DataDir  string
	DSN      string
	RedisURL string
}

// Open builds the gateway named by opts.Driver
func Open(ctx context.Context, opts Options) (Gateway, error) {
	switch opts.Driver {
	case DriverFile, "":
		return NewFileGateway(filepath.Join(opts.DataDir, "store"))
	case DriverSQLite:
		path := opts.DSN
		if path == "" {
			path = filepath.Join(opts.DataDir, "fitbuddy.db")
		}
		return NewSQLiteGateway(ctx, path)
	case DriverPostgres:
		return NewPostgresGateway(ctx, opts.DSN)
	case DriverRedis:
		return NewRedisGateway(ctx, opts.RedisURL, DefaultRedisPrefix)
	case DriverMemory:
		return NewMemoryGateway(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", opts.Driver)
	}
}
