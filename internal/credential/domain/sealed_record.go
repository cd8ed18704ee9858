package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// SealedRecord is the decoded form of a sealed credential.
type SealedRecord struct {
	// Nonce is the NonceSize random value used for this record only.
	Nonce []byte
	// Tag is the TagSize GCM authentication tag.
	Tag []byte
	// Ciphertext has the same length as the sealed plaintext.
	Ciphertext []byte
}

// String encodes the record as lowercase hex segments in nonce, tag, ciphertext order.
func (r SealedRecord) String() string {
	var b strings.Builder
	b.Grow(hex.EncodedLen(len(r.Nonce)+len(r.Tag)+len(r.Ciphertext)) + 2*len(Delimiter))
	b.WriteString(hex.EncodeToString(r.Nonce))
	b.WriteString(Delimiter)
	b.WriteString(hex.EncodeToString(r.Tag))
	b.WriteString(Delimiter)
	b.WriteString(hex.EncodeToString(r.Ciphertext))
	return b.String()
}

// ParseSealedRecord splits and decodes a sealed record, validating its shape.
//
// Checks run in a fixed order and stop at the first violation: segment count
// (ErrMalformedRecord), nonce (ErrDecodeError or ErrInvalidNonceLength), tag
// (ErrDecodeError or ErrInvalidTagLength), then ciphertext (ErrDecodeError).
// Parsing says nothing about authenticity; that is decided by Open.
func ParseSealedRecord(s string) (*SealedRecord, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedRecord)
	}

	parts := strings.Split(s, Delimiter)
	if len(parts) != segmentCount {
		return nil, fmt.Errorf(
			"%w: expected %d segments, got %d",
			ErrMalformedRecord,
			segmentCount,
			len(parts),
		)
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: nonce segment", ErrDecodeError)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidNonceLength,
			NonceSize,
			len(nonce),
		)
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: tag segment", ErrDecodeError)
	}
	if len(tag) != TagSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidTagLength, TagSize, len(tag))
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext segment", ErrDecodeError)
	}

	return &SealedRecord{
		Nonce:      nonce,
		Tag:        tag,
		Ciphertext: ciphertext,
	}, nil
}
