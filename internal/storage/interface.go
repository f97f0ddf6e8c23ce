package storage

import "errors"

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is the durable per-device key/value port. Keys and values are strings;
// callers must treat a failed Set as non-fatal.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(key string) error
	// Keys lists every stored key in ascending order.
	Keys() ([]string, error)
}

// Provider is a Store with a lifecycle, as opened by the CLI.
type Provider interface {
	Store

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Utils
	GetConfigPath() string
}
