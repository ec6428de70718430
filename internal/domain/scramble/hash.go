// Package scramble holds the concrete seeded hashes that the bias engine is
// pointed at: a slow reference Owen scramble, a catalogue of fast
// candidate constructions, and the search strategies that tune them.
package scramble

import "math/bits"

// HashU32 is a 32-bit integer hash from skeeto's hash-prospector with the
// seed folded into the input.
func HashU32(n, seed uint32) uint32 {
	n += seed * 0x736caf6f
	n ^= n >> 17
	n *= 0xed5ad4bb
	n ^= n >> 11
	n *= 0xac4c1b51
	n ^= n >> 15
	n *= 0x31848bab
	n ^= n >> 14
	return n
}

// OwenReference is a direct nested uniform scramble of x. Output bit k is
// bit k of x flipped by a random function of (seed, k, bits 0..k-1 of x).
// It costs 32 hashes per call and exists as the ideal fast hashes are
// compared against.
func OwenReference(x, seed uint32) uint32 {
	in := bits.Reverse32(x)
	out := in
	for level := 0; level < 32; level++ {
		prefix := in &^ (^uint32(0) >> level)
		if HashU32(prefix, seed+uint32(level)*0x9e3779b9)>>31 != 0 {
			out ^= 1 << (31 - level)
		}
	}
	return bits.Reverse32(out)
}
