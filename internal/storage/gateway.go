// Package storage is the durable key/value layer. Gateways only move bytes;
// the JSON helpers here are the single place where records are encoded.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/benvon/fitness-buddy/internal/observability"
	json "github.com/goccy/go-json"
)

// Record keys. Each one is stored and loaded independently.
const (
	KeyProfile        = "profile"
	KeyTodaySteps     = "todaySteps"
	KeyWorkoutHistory = "workoutHistory"
)

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("storage: key not found")

// Gateway is a durable key/value store
type Gateway interface {
	// Get returns the stored value for key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value for key. A successful Put is durable.
	Put(ctx context.Context, key string, value []byte) error
	// Close releases the underlying resources
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateKey rejects keys that are unsafe as file names or record ids
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}

// LoadJSON decodes the value stored under key into v. found is false when the
// key is absent; a value that cannot be decoded reports found=true and an error.
func LoadJSON(ctx context.Context, gw Gateway, key string, v any) (found bool, err error) {
	data, err := gw.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: load %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and writes it under key
func SaveJSON(ctx context.Context, gw Gateway, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		observability.RecordPersistenceWrite(key, err)
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	return SaveRaw(ctx, gw, key, data)
}

// SaveRaw writes already-encoded bytes under key
func SaveRaw(ctx context.Context, gw Gateway, key string, data []byte) error {
	err := gw.Put(ctx, key, data)
	observability.RecordPersistenceWrite(key, err)
	if err != nil {
		return fmt.Errorf("storage: save %q: %w", key, err)
	}
	return nil
}
