package service

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	credentialDomain "github.com/finboard/finboard/internal/credential/domain"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func newTestSealer(t *testing.T, encodedKey string) *AESGCMSealer {
	t.Helper()
	keys, err := NewKeyStore(encodedKey)
	require.NoError(t, err)
	return NewAESGCMSealer(keys)
}

func flipHexChar(c byte) byte {
	if c == '0' {
		return '1'
	}
	return '0'
}

func TestAESGCMSealer_KnownKey(t *testing.T) {
	sealer := newTestSealer(t, strings.Repeat("00", 32))

	record, err := sealer.Seal("access-sandbox-abc123")
	require.NoError(t, err)

	parts := strings.Split(record, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 32)
	assert.Len(t, parts[1], 32)
	assert.Len(t, parts[2], 2*len("access-sandbox-abc123"))
	assert.Equal(t, strings.ToLower(record), record)

	plaintext, err := sealer.Open(record)
	require.NoError(t, err)
	assert.Equal(t, "access-sandbox-abc123", plaintext)

	last := len(record) - 1
	tampered := record[:last] + string(flipHexChar(record[last]))
	_, err = sealer.Open(tampered)
	assert.ErrorIs(t, err, credentialDomain.ErrAuthenticationFailed)
}

func TestAESGCMSealer_RoundTrip(t *testing.T) {
	sealer := newTestSealer(t, strings.Repeat("a5", 32))

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "empty", plaintext: ""},
		{name: "ascii token", plaintext: "access-production-5f1e9c2d-7a4b-4c1e-9d0a-2b3c4d5e6f70"},
		{name: "unicode", plaintext: "crédit ünïcödé 日本語 🔐"},
		{name: "contains delimiter", plaintext: "a:b:c:d"},
		{name: "multi kilobyte", plaintext: strings.Repeat("0123456789abcdef", 512)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := sealer.Seal(tt.plaintext)
			require.NoError(t, err)

			parts := strings.Split(record, ":")
			require.Len(t, parts, 3)
			assert.Len(t, parts[2], 2*len(tt.plaintext))

			plaintext, err := sealer.Open(record)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}
}

func TestAESGCMSealer_NonceUniqueness(t *testing.T) {
	sealer := newTestSealer(t, strings.Repeat("3c", 32))

	const n = 1000
	nonces := make(map[string]struct{}, n)
	records := make(map[string]struct{}, n)

	for range n {
		record, err := sealer.Seal("same plaintext every time")
		require.NoError(t, err)

		nonce := strings.SplitN(record, ":", 2)[0]
		nonces[nonce] = struct{}{}
		records[record] = struct{}{}
	}

	assert.Len(t, nonces, n)
	assert.Len(t, records, n)
}

func TestAESGCMSealer_TamperDetection(t *testing.T) {
	sealer := newTestSealer(t, strings.Repeat("7e", 32))

	record, err := sealer.Seal("access-sandbox-tamper-check")
	require.NoError(t, err)

	// Every hex character after the nonce segment belongs to the tag or the ciphertext.
	tagStart := 2*credentialDomain.NonceSize + 1
	for i := tagStart; i < len(record); i++ {
		if record[i] == ':' {
			continue
		}
		tampered := []byte(record)
		tampered[i] = flipHexChar(tampered[i])

		_, err := sealer.Open(string(tampered))
		assert.ErrorIs(t, err, credentialDomain.ErrAuthenticationFailed, "position %d", i)
	}
}

func TestAESGCMSealer_OpenRejectsMalformedRecords(t *testing.T) {
	sealer := newTestSealer(t, strings.Repeat("00", 32))

	valid, err := sealer.Seal("access-sandbox-abc123")
	require.NoError(t, err)
	parts := strings.Split(valid, ":")

	tests := []struct {
		name    string
		record  string
		wantErr error
	}{
		{name: "empty", record: "", wantErr: credentialDomain.ErrMalformedRecord},
		{name: "one segment", record: parts[0], wantErr: credentialDomain.ErrMalformedRecord},
		{name: "two segments", record: parts[0] + ":" + parts[1], wantErr: credentialDomain.ErrMalformedRecord},
		{name: "four segments", record: valid + ":00", wantErr: credentialDomain.ErrMalformedRecord},
		{
			name:    "12 byte nonce",
			record:  strings.Repeat("00", 12) + ":" + parts[1] + ":" + parts[2],
			wantErr: credentialDomain.ErrInvalidNonceLength,
		},
		{
			name:    "15 byte tag",
			record:  parts[0] + ":" + strings.Repeat("00", 15) + ":" + parts[2],
			wantErr: credentialDomain.ErrInvalidTagLength,
		},
		{
			name:    "non hex ciphertext",
			record:  parts[0] + ":" + parts[1] + ":zz",
			wantErr: credentialDomain.ErrDecodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext, err := sealer.Open(tt.record)
			assert.Empty(t, plaintext)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, credentialDomain.ErrCredential)
		})
	}
}

func TestAESGCMSealer_KeyMismatch(t *testing.T) {
	sealerA := newTestSealer(t, strings.Repeat("01", 32))
	sealerB := newTestSealer(t, strings.Repeat("02", 32))

	record, err := sealerA.Seal("access-sandbox-abc123")
	require.NoError(t, err)

	plaintext, err := sealerB.Open(record)
	assert.Empty(t, plaintext)
	assert.ErrorIs(t, err, credentialDomain.ErrAuthenticationFailed)
}

func TestAESGCMSealer_InvalidUTF8Plaintext(t *testing.T) {
	sealer := newTestSealer(t, strings.Repeat("44", 32))

	record, err := sealer.Seal(string([]byte{0xff, 0xfe, 0xfd}))
	require.NoError(t, err)

	_, err = sealer.Open(record)
	assert.ErrorIs(t, err, credentialDomain.ErrDecodeError)
}

func TestAESGCMSealer_PoisonedKeyStore(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{name: "absent key", encoded: ""},
		{name: "short key", encoded: strings.Repeat("00", 31)},
		{name: "long key", encoded: strings.Repeat("00", 33)},
		{name: "non hex key", encoded: strings.Repeat("g0", 32)},
	}

	valid := newTestSealer(t, strings.Repeat("00", 32))
	record, err := valid.Seal("access-sandbox-abc123")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := NewKeyStore(tt.encoded)
			require.Error(t, err)
			sealer := NewAESGCMSealer(keys)

			for range 2 {
				sealed, err := sealer.Seal("access-sandbox-abc123")
				assert.Empty(t, sealed)
				assert.ErrorIs(t, err, credentialDomain.ErrKeyUnavailable)

				opened, err := sealer.Open(record)
				assert.Empty(t, opened)
				assert.ErrorIs(t, err, credentialDomain.ErrKeyUnavailable)
			}
		})
	}
}

func TestAESGCMSealer_EntropyFailure(t *testing.T) {
	sealer := newTestSealer(t, strings.Repeat("00", 32))
	sealer.random = failingReader{}

	record, err := sealer.Seal("access-sandbox-abc123")
	assert.Empty(t, record)
	assert.ErrorIs(t, err, credentialDomain.ErrSealFailed)
}

func TestAESGCMSealer_ConcurrentUse(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sealer := newTestSealer(t, strings.Repeat("5a", 32))

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plaintext := strings.Repeat("x", i)
			record, err := sealer.Seal(plaintext)
			if !assert.NoError(t, err) {
				return
			}
			opened, err := sealer.Open(record)
			assert.NoError(t, err)
			assert.Equal(t, plaintext, opened)
		}(i)
	}
	wg.Wait()
}
