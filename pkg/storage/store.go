package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Store is the persistent local blob store for keys and bootstrap flags.
// It plays the role the browser's localStorage plays for the web client:
// a flat string→string map that survives restarts. Values are small
// (private keys, addresses, flags, cached allowances), so everything is
// written synchronously.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) a store at the given path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the value for key, with ok=false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	val, closer, err := s.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	defer closer.Close()
	return string(val), true, nil
}

// Set writes key=value durably.
func (s *Store) Set(key, value string) error {
	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
