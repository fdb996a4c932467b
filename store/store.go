// ABOUTME: Local persistent store on BadgerDB
// ABOUTME: Mirrors the entity collections and settings under fixed keys
package store

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
)

// Storage keys. One key per collection; writes are independent, so there
// is no transactionality across them.
const (
	KeyClients  = "clients"
	KeyPolicies = "policies"
	KeyProducts = "products"
	KeySettings = "settings"
)

// Store is the per-install durable key-value store. Every mutation to
// the in-memory collections is mirrored here immediately.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Set serializes v to JSON under key.
func (s *Store) Set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get decodes the value under key into out. Returns false with no error
// when the key is absent, leaving out untouched.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SaveCollections mirrors all three collections. Each key is written
// independently; a failure part-way leaves the earlier keys updated.
func (s *Store) SaveCollections(c state.Collections) error {
	if err := s.Set(KeyClients, c.Clients); err != nil {
		return err
	}
	if err := s.Set(KeyPolicies, c.Policies); err != nil {
		return err
	}
	return s.Set(KeyProducts, c.Products)
}

// LoadCollections restores the collections, leaving the seed value in
// place for any key that has never been written.
func (s *Store) LoadCollections(seed state.Collections) (state.Collections, error) {
	c := seed.Clone()
	if _, err := s.Get(KeyClients, &c.Clients); err != nil {
		return seed, err
	}
	if _, err := s.Get(KeyPolicies, &c.Policies); err != nil {
		return seed, err
	}
	if _, err := s.Get(KeyProducts, &c.Products); err != nil {
		return seed, err
	}
	return c, nil
}

// SaveSettings persists the app settings locally. Settings never go to a
// remote backend.
func (s *Store) SaveSettings(settings models.AppSettings) error {
	return s.Set(KeySettings, settings)
}

// LoadSettings returns persisted settings, or the defaults when none exist.
func (s *Store) LoadSettings() (models.AppSettings, error) {
	settings := models.DefaultSettings()
	if _, err := s.Get(KeySettings, &settings); err != nil {
		return models.DefaultSettings(), err
	}
	return settings, nil
}
