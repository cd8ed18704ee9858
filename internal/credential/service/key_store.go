package service

import (
	"fmt"
	"log/slog"
	"sync"

	credentialDomain "github.com/finboard/finboard/internal/credential/domain"
)

// KeyLoader returns the hex form of the encryption key.
type KeyLoader func() (string, error)

// KeyStore holds the one validated encryption key of the process.
//
// The key is loaded exactly once and is immutable afterwards, so reads need no locking.
// A store whose load failed is poisoned: it holds no key and every Seal or Open against it
// fails with credentialDomain.ErrKeyUnavailable. There is no way to replace the key;
// rotating it requires a restart with a new configuration value.
type KeyStore struct {
	loader KeyLoader
	logger *slog.Logger

	once sync.Once
	key  []byte
	err  error
}

// NewKeyStore validates encodedKey and returns a store holding it.
//
// On invalid input the returned store is poisoned and the error describes why, without
// including the value. Callers are expected to treat that error as fatal at startup.
func NewKeyStore(encodedKey string) (*KeyStore, error) {
	store := NewLazyKeyStore(func() (string, error) { return encodedKey, nil }, nil)
	return store, store.Init()
}

// NewLazyKeyStore returns a store that runs loader on first use.
//
// Concurrent first uses block until the single load completes. A failed load is recorded
// on logger (when non-nil) and poisons the store for the rest of the process lifetime.
func NewLazyKeyStore(loader KeyLoader, logger *slog.Logger) *KeyStore {
	return &KeyStore{
		loader: loader,
		logger: logger,
	}
}

// Init runs the load if it has not run yet and reports its outcome. Startup code calls it
// to fail fast on a missing or invalid key instead of waiting for the first Seal or Open.
func (s *KeyStore) Init() error {
	_, err := s.material()
	return err
}

// material returns the validated key. The returned slice must not be modified.
func (s *KeyStore) material() ([]byte, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	return s.key, nil
}

func (s *KeyStore) load() {
	if s.loader == nil {
		s.err = credentialDomain.ErrKeyNotSet
		return
	}

	encoded, err := s.loader()
	if err != nil {
		s.err = fmt.Errorf("%w: %v", credentialDomain.ErrKeyUnavailable, err)
	} else {
		s.key, s.err = credentialDomain.DecodeKey(encoded)
	}

	if s.err != nil && s.logger != nil {
		s.logger.Error("failed to initialize encryption key", slog.Any("error", s.err))
	}
}
