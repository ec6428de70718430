package mixing

// Sequence is an ordered composition of ops:
// f(x, seed) = op_n(...op_1(x, seed)..., seed). Order matters.
type Sequence []Op

// Execute folds every op over x from left to right with the same seed.
func (s Sequence) Execute(x, seed uint32) uint32 {
	for _, op := range s {
		x = op.Execute(x, seed)
	}
	return x
}

// Execute is the function form of Sequence.Execute.
func Execute(ops []Op, x, seed uint32) uint32 {
	return Sequence(ops).Execute(x, seed)
}

// Clone returns an independent copy, safe to mutate.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Invertible reports whether every op in the sequence is a bijection.
func (s Sequence) Invertible() bool {
	for _, op := range s {
		if !op.Invertible() {
			return false
		}
	}
	return true
}

// SeedOps counts the ops whose operand comes from the seed.
func (s Sequence) SeedOps() int {
	n := 0
	for _, op := range s {
		if op.Kind != Nop && op.Param.FromSeed {
			n++
		}
	}
	return n
}
