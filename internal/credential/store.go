package credential

import (
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketCredentials = []byte("credentials")
	keyAccessToken    = []byte("access_token")
)

// ErrEmptyToken is returned when saving a blank token
var ErrEmptyToken = errors.New("empty token")

// Store persists the single bearer token of a client instance
type Store interface {
	Save(token string) error
	// Load returns the stored token; ok is false when logged out.
	Load() (token string, ok bool, err error)
	Clear() error
}

// BoltStore keeps the token in a BoltDB file so it survives restarts
type BoltStore struct {
	db *bolt.DB
}

// Open opens (or creates) the credential file at path
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential file: %w", err)
	}

	s, err := NewBoltStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewBoltStore creates a credential store using the provided BoltDB instance
func NewBoltStore(db *bolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credentials bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save replaces the stored token
func (s *BoltStore) Save(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).Put(keyAccessToken, []byte(token))
	})
}

// Load returns the stored token, if any
func (s *BoltStore) Load() (string, bool, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketCredentials).Get(keyAccessToken); v != nil {
			token = string(v)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return token, token != "", nil
}

// Clear deletes the stored token
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).Delete(keyAccessToken)
	})
}

// Close releases the underlying file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load() (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != "", nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
