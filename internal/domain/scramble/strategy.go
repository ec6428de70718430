package scramble

import (
	"math/rand/v2"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/mixing"
)

// Pairs is the parameter vector of PairStrategy: four (multiply-xor,
// multiply) constant pairs.
type Pairs [8]uint32

// PairStrategy tunes the last constant pair of a four-round v5-style hash
// while the first three pairs stay at the published v5 values.
type PairStrategy struct {
	rng *rand.Rand
}

// NewPairStrategy returns a PairStrategy drawing from rng.
func NewPairStrategy(rng *rand.Rand) *PairStrategy {
	return &PairStrategy{rng: rng}
}

// Generate returns the fixed pairs plus a random (even, odd) final pair.
func (s *PairStrategy) Generate() Pairs {
	var p Pairs
	for i, pair := range v5Pairs {
		p[2*i], p[2*i+1] = pair[0], pair[1]
	}
	p[6] = s.rng.Uint32() &^ 1
	p[7] = s.rng.Uint32() | 1
	return p
}

// Mutate flips one bit of one of the two tuned constants. Bit 0 is never
// flipped, so the constants keep their parity.
func (s *PairStrategy) Mutate(p Pairs) Pairs {
	idx := len(p) - 2 + int(s.rng.Uint32()%2)
	bit := max(s.rng.Uint32()%32, 1)
	p[idx] ^= 1 << bit
	return p
}

// Execute runs the tuned hash. The raw seed is added to the input and a
// hashed seed multiplies in at the start of every round.
func (s *PairStrategy) Execute(x uint32, p Pairs, seed uint32) uint32 {
	s2 := HashU32(seed, 0) | 1
	x += seed
	for i := 0; i < len(p); i += 2 {
		x *= s2
		x ^= x * (p[i] &^ 1)
		x *= p[i+1] | 1
	}
	return x
}

// SequenceStrategy searches over op sequences of a fixed length.
type SequenceStrategy struct {
	rng    *rand.Rand
	length int
}

// NewSequenceStrategy returns a SequenceStrategy producing sequences of
// length ops.
func NewSequenceStrategy(rng *rand.Rand, length int) *SequenceStrategy {
	return &SequenceStrategy{rng: rng, length: max(length, 1)}
}

// Generate returns a random sequence.
func (s *SequenceStrategy) Generate() mixing.Sequence {
	return mixing.RandomSequence(s.rng, s.length)
}

// Mutate returns a copy of seq with one op changed. Half the time a fixed
// constant gets one bit flipped; otherwise, or when the flip would zero a
// shift amount, the op is redrawn.
func (s *SequenceStrategy) Mutate(seq mixing.Sequence) mixing.Sequence {
	out := seq.Clone()
	if len(out) == 0 {
		return s.Generate()
	}
	i := int(s.rng.Uint32() % uint32(len(out)))
	op := out[i]
	if s.rng.Uint32()&1 == 0 && op.Kind != mixing.Nop && !op.Param.FromSeed {
		width := uint32(32)
		if op.Kind == mixing.ShlXor || op.Kind == mixing.ShlAdd {
			width = 5
		}
		flipped := op.Param.Value ^ 1<<(s.rng.Uint32()%width)
		if flipped != 0 {
			out[i] = mixing.NewOp(op.Kind, mixing.Fixed(flipped))
			return out
		}
	}
	out[i] = mixing.Random(s.rng)
	return out
}

// Execute adds a hashed seed to x and runs seq.
func (s *SequenceStrategy) Execute(x uint32, seq mixing.Sequence, seed uint32) uint32 {
	return seq.Execute(x+HashU32(seed, 0), seed)
}

// SequenceHash is the hash SequenceStrategy scores for seq. With raw set the
// hashed-seed offset is skipped and seq runs on the input as written.
func SequenceHash(seq mixing.Sequence, raw bool) bias.HashFunc {
	seq = seq.Clone()
	if raw {
		return seq.Execute
	}
	return func(x, seed uint32) uint32 {
		return seq.Execute(x+HashU32(seed, 0), seed)
	}
}
