// Package mixing models the elementary bit-mixing steps that Owen-scramble
// hashes are built from. An Op is one step; a Sequence is an ordered
// composition of steps applied with a shared seed.
//
// All arithmetic is modulo 2^32. Every Op is total over its inputs.
package mixing

// Kind identifies the mixing step.
type Kind uint8

const (
	Nop    Kind = iota // x
	Xor                // x ^ c
	Add                // x + c
	Mul                // x * odd(c)
	ShlXor             // x ^ (x << c)
	ShlAdd             // x + (x << c)
	MulXor             // x ^ (x * even(c))

	kindCount
)

// shiftMask keeps shift amounts inside [0, 31].
const shiftMask = 0b11111

var kindNames = [kindCount]string{
	Nop:    "nop",
	Xor:    "xor",
	Add:    "add",
	Mul:    "mul",
	ShlXor: "shl_xor",
	ShlAdd: "shl_add",
	MulXor: "mul_xor",
}

// String returns the lower-case name used by the text codec.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "invalid"
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool { return k < kindCount }

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Nop; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Param is the operand of an Op: either a fixed constant or the seed
// supplied at execution time.
type Param struct {
	Value    uint32
	FromSeed bool
}

// Fixed returns a constant parameter.
func Fixed(v uint32) Param { return Param{Value: v} }

// Seed returns a parameter that is substituted with the execution seed.
func Seed() Param { return Param{FromSeed: true} }

// resolve returns the operand value for one execution.
func (p Param) resolve(seed uint32) uint32 {
	if p.FromSeed {
		return seed
	}
	return p.Value
}

// Op is a single mixing step.
type Op struct {
	Kind  Kind
	Param Param
}

// NewOp builds an Op and normalizes a fixed operand for its kind:
// multipliers of Mul are forced odd, multipliers of MulXor forced even and
// shift amounts masked to 5 bits. Seed operands are left untouched; they are
// normalized on every execution instead.
func NewOp(kind Kind, p Param) Op {
	if !p.FromSeed {
		p.Value = normalize(kind, p.Value)
	}
	if kind == Nop {
		p = Param{}
	}
	return Op{Kind: kind, Param: p}
}

// FromLegacy decodes the packed encoding where a constant of zero stands for
// "use the seed". A literal zero operand cannot be expressed this way.
func FromLegacy(kind Kind, c uint32) Op {
	if c == 0 {
		return NewOp(kind, Seed())
	}
	return NewOp(kind, Fixed(c))
}

// Legacy returns the packed constant for op, zero meaning "use the seed".
// The second result is false when a fixed zero operand has no packed form.
func (op Op) Legacy() (uint32, bool) {
	if op.Param.FromSeed {
		return 0, true
	}
	if op.Param.Value == 0 && op.Kind != Nop {
		return 0, false
	}
	return op.Param.Value, true
}

func normalize(kind Kind, c uint32) uint32 {
	switch kind {
	case Mul:
		return c | 1
	case MulXor:
		return c &^ 1
	case ShlXor, ShlAdd:
		return c & shiftMask
	}
	return c
}

// Execute applies op to x. It never fails: overflow wraps and shift amounts
// are masked into [0, 31].
func (op Op) Execute(x, seed uint32) uint32 {
	c := op.Param.resolve(seed)
	switch op.Kind {
	case Xor:
		return x ^ c
	case Add:
		return x + c
	case Mul:
		return x * (c | 1)
	case ShlXor:
		return x ^ (x << (c & shiftMask))
	case ShlAdd:
		return x + (x << (c & shiftMask))
	case MulXor:
		return x ^ (x * (c &^ 1))
	default:
		return x
	}
}

// Invertible reports whether op is a bijection on 32-bit values for every
// seed. A zero shift turns ShlXor into x ^ x and ShlAdd into 2x, so shift
// steps only qualify with a fixed non-zero amount. MulXor always does: bit i
// of x * even depends only on bits below i.
func (op Op) Invertible() bool {
	switch op.Kind {
	case Nop, Xor, Add, Mul, MulXor:
		return true
	case ShlXor, ShlAdd:
		return !op.Param.FromSeed && op.Param.Value&shiftMask != 0
	}
	return false
}
