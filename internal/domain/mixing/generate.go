package mixing

// Rand is the randomness Random needs. *rand.Rand from math/rand/v2
// satisfies it; tests can supply a fixed script of values.
type Rand interface {
	Uint32() uint32
}

// Random returns an op of uniformly chosen kind. One time in four the operand
// is the seed; otherwise it is a uniform 32-bit constant post-processed for
// the kind (odd for Mul, even for MulXor, (c % 31) + 1 for shift amounts).
func Random(rng Rand) Op {
	useSeed := rng.Uint32()&0b11 == 0
	var c uint32
	if !useSeed {
		c = rng.Uint32()
	}
	kind := Kind(rng.Uint32() % uint32(kindCount))

	if useSeed && kind != Nop {
		return NewOp(kind, Seed())
	}
	switch kind {
	case ShlXor, ShlAdd:
		c = c%31 + 1
	}
	return NewOp(kind, Fixed(c))
}

// RandomSequence returns n independently generated ops.
func RandomSequence(rng Rand, n int) Sequence {
	seq := make(Sequence, n)
	for i := range seq {
		seq[i] = Random(rng)
	}
	return seq
}
