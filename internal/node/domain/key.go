package domain

import "encoding/hex"

const (
	// MaxKeySize is the largest key accepted by any store.
	MaxKeySize = 64 * 1024

	// MaxValueSize is the largest value accepted by any store (e.g., 8MB).
	MaxValueSize = 8 * 1024 * 1024
)

// Key is an opaque byte sequence. Two keys are equal when their contents are equal.
type Key []byte

// String renders the key for logs.
func (k Key) String() string {
	if len(k) > 64 {
		return hex.EncodeToString(k[:64]) + "..."
	}
	return hex.EncodeToString(k)
}

// Validate checks the key is usable by a store.
func (k Key) Validate() error {
	if len(k) == 0 {
		return &ValidationError{Field: "key", Reason: "must not be empty"}
	}
	if len(k) > MaxKeySize {
		return &ValidationError{Field: "key", Reason: "exceeds maximum size"}
	}
	return nil
}

// Clone returns a copy that does not share the caller's backing array.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	out := make(Key, len(k))
	copy(out, k)
	return out
}
