package scope

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// Bucket and key names in bbolt
var (
	bucketScope = []byte("scope")
	keyLastUsed = []byte("last_used")
)

// Store persists the single last-used scope value across processes.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens (or creates) the scope store at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open scope store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketScope)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init scope store: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the persisted scope, or "" when none has been set.
func (s *Store) Get() (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketScope).Get(keyLastUsed)
		if raw != nil {
			value = string(raw)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read scope: %w", err)
	}
	return value, nil
}

// Set records the scope. Last write wins.
func (s *Store) Set(scopeID string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketScope).Put(keyLastUsed, []byte(scopeID))
	})
	if err != nil {
		return fmt.Errorf("write scope: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
