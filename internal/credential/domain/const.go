package domain

// Sealed record layout.
//
// A sealed record is the opaque text persisted in place of a plaintext credential:
//
//	hex(nonce) ":" hex(tag) ":" hex(ciphertext)
//
// It is produced only by Seal and consumed only by Open. It carries neither the type of
// the credential nor an identifier of the key that sealed it.
const (
	// KeySize is the length in bytes of the AES-256 key.
	KeySize = 32

	// EncodedKeySize is the length of the hex form of the key as supplied by configuration.
	EncodedKeySize = KeySize * 2

	// NonceSize is the length in bytes of the per-record GCM nonce.
	NonceSize = 16

	// TagSize is the length in bytes of the GCM authentication tag.
	TagSize = 16

	// Delimiter separates the hex segments of a sealed record. It is outside the hex alphabet.
	Delimiter = ":"

	// segmentCount is the number of Delimiter separated segments of a sealed record.
	segmentCount = 3
)
