// Package chain implements the per-section append-only block log and the
// keyed hashing it uses to seed relocation target selection.
package chain

import (
	"encoding/binary"
	"math/bits"

	"golang.org/x/crypto/sha3"
)

// Hash is a 256-bit digest, used both as a block hash and, through
// repeated rehashing, as a stream of pseudo-random bits for relocation
// selection (spec.md §4.6).
type Hash [32]byte

// hashBytes runs a single Keccak-256 pass over data, the same construction
// the corpus's go-ethereum stacktrie uses for incremental node hashing.
func hashBytes(data []byte) Hash {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	var h Hash
	copy(h[:], d.Sum(nil))
	return h
}

// Rehash feeds h's own bytes back through Keccak, producing the next hash
// in a deterministic, rehashing-resistant chain (spec.md §4.6 step 4).
func (h Hash) Rehash() Hash {
	return hashBytes(h[:])
}

// NewFromU64 hashes the big-endian bytes of v, the starting point for
// re-hashing a rejected relocation's destination (spec.md §4.6 step 6).
func NewFromU64(v uint64) Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return hashBytes(buf[:])
}

// ToU64 returns the low 64 bits of h.
func (h Hash) ToU64() uint64 {
	return binary.BigEndian.Uint64(h[24:32])
}

// TrailingZeros counts trailing zero bits across the whole 256-bit value,
// treating h as a big-endian integer: trailing zeros of the low word first,
// continuing into higher words only if the lower ones are entirely zero.
func (h Hash) TrailingZeros() int {
	total := 0
	for i := 24; i >= 0; i -= 8 {
		word := binary.BigEndian.Uint64(h[i : i+8])
		if word != 0 {
			return total + bits.TrailingZeros64(word)
		}
		total += 64
	}
	return total
}
