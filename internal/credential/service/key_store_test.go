package service

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credentialDomain "github.com/finboard/finboard/internal/credential/domain"
)

func TestNewKeyStore(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		store, err := NewKeyStore(strings.Repeat("0f", 32))
		require.NoError(t, err)
		require.NotNil(t, store)

		key, err := store.material()
		require.NoError(t, err)
		assert.Len(t, key, credentialDomain.KeySize)
	})

	tests := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{name: "absent", encoded: "", wantErr: credentialDomain.ErrKeyNotSet},
		{name: "too short", encoded: strings.Repeat("00", 16), wantErr: credentialDomain.ErrInvalidKeyLength},
		{name: "too long", encoded: strings.Repeat("00", 64), wantErr: credentialDomain.ErrInvalidKeyLength},
		{name: "not hex", encoded: strings.Repeat("xy", 32), wantErr: credentialDomain.ErrInvalidKeyEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewKeyStore(tt.encoded)
			assert.ErrorIs(t, err, tt.wantErr)
			require.NotNil(t, store, "a poisoned store is still returned")

			key, err := store.material()
			assert.Nil(t, key)
			assert.ErrorIs(t, err, credentialDomain.ErrKeyUnavailable)
		})
	}
}

func TestNewLazyKeyStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("loader runs once under concurrent first use", func(t *testing.T) {
		var calls atomic.Int32
		store := NewLazyKeyStore(func() (string, error) {
			calls.Add(1)
			return strings.Repeat("11", 32), nil
		}, logger)

		var wg sync.WaitGroup
		for range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.material()
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("loader is not called before first use", func(t *testing.T) {
		called := false
		_ = NewLazyKeyStore(func() (string, error) {
			called = true
			return "", nil
		}, logger)
		assert.False(t, called)
	})

	t.Run("loader error poisons the store", func(t *testing.T) {
		var calls atomic.Int32
		store := NewLazyKeyStore(func() (string, error) {
			calls.Add(1)
			return "", errors.New("kms unreachable")
		}, logger)

		_, err := store.material()
		assert.ErrorIs(t, err, credentialDomain.ErrKeyUnavailable)

		_, err = store.material()
		assert.ErrorIs(t, err, credentialDomain.ErrKeyUnavailable)
		assert.Equal(t, int32(1), calls.Load(), "a failed load is not retried")
	})

	t.Run("nil loader", func(t *testing.T) {
		store := NewLazyKeyStore(nil, nil)
		_, err := store.material()
		assert.ErrorIs(t, err, credentialDomain.ErrKeyNotSet)
	})

	t.Run("Init reports the load outcome once", func(t *testing.T) {
		var calls atomic.Int32
		store := NewLazyKeyStore(func() (string, error) {
			calls.Add(1)
			return "zz", nil
		}, logger)

		assert.ErrorIs(t, store.Init(), credentialDomain.ErrKeyUnavailable)
		assert.ErrorIs(t, store.Init(), credentialDomain.ErrKeyUnavailable)
		assert.Equal(t, int32(1), calls.Load())
	})
}
