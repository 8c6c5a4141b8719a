package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Key is the SHA-256 digest identifying one set of compiled programs.
type Key [32]byte

// String returns the first 8 bytes in hex.
func (k Key) String() string { return hex.EncodeToString(k[:8]) }

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool { return k == Key{} }

// shardIndex selects a shard from the leading key bytes.
func (k Key) shardIndex() uint64 { return binary.LittleEndian.Uint64(k[:8]) & shardMask }

// KeyBuilder accumulates the inputs of a cache key. Every variable-length
// field is length-prefixed so adjacent fields cannot alias.
type KeyBuilder struct {
	h   hash.Hash
	buf [8]byte
}

// NewKeyBuilder returns an empty builder.
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{h: sha256.New()}
}

// Bytes adds a byte slice.
func (b *KeyBuilder) Bytes(p []byte) *KeyBuilder {
	b.Uint64(uint64(len(p)))
	_, _ = b.h.Write(p) // hash.Hash.Write never returns an error
	return b
}

// Text adds a string.
func (b *KeyBuilder) Text(s string) *KeyBuilder {
	b.Uint64(uint64(len(s)))
	_, _ = b.h.Write([]byte(s))
	return b
}

// Uint32 adds a 32-bit value.
func (b *KeyBuilder) Uint32(v uint32) *KeyBuilder {
	binary.LittleEndian.PutUint32(b.buf[:4], v)
	_, _ = b.h.Write(b.buf[:4])
	return b
}

// Uint64 adds a 64-bit value.
func (b *KeyBuilder) Uint64(v uint64) *KeyBuilder {
	binary.LittleEndian.PutUint64(b.buf[:], v)
	_, _ = b.h.Write(b.buf[:])
	return b
}

// Bool adds a flag.
func (b *KeyBuilder) Bool(v bool) *KeyBuilder {
	if v {
		return b.Uint32(1)
	}
	return b.Uint32(0)
}

// Digest adds a fixed-size digest.
func (b *KeyBuilder) Digest(d [32]byte) *KeyBuilder {
	_, _ = b.h.Write(d[:])
	return b
}

// Sum returns the key. The builder must not be used afterwards.
func (b *KeyBuilder) Sum() Key {
	var k Key
	b.h.Sum(k[:0])
	return k
}
