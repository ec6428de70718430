package mixing

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a malformed op in text form.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mixing: parse %q: %s", e.Input, e.Reason)
}

// String renders op as kind(seed) or kind(0x0000abcd). Nop renders bare.
func (op Op) String() string {
	if op.Kind == Nop {
		return Nop.String()
	}
	if op.Param.FromSeed {
		return op.Kind.String() + "(seed)"
	}
	if op.Kind == ShlXor || op.Kind == ShlAdd {
		return fmt.Sprintf("%s(%d)", op.Kind, op.Param.Value)
	}
	return fmt.Sprintf("%s(0x%08x)", op.Kind, op.Param.Value)
}

// MarshalText implements encoding.TextMarshaler.
func (op Op) MarshalText() ([]byte, error) {
	if !op.Kind.Valid() {
		return nil, fmt.Errorf("mixing: invalid kind %d", op.Kind)
	}
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Op) UnmarshalText(text []byte) error {
	parsed, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// ParseOp parses the form produced by Op.String. Constants may be written in
// hex (0x prefix), octal (0o), binary (0b) or decimal. Fixed operands are
// normalized exactly as NewOp does.
func ParseOp(s string) (Op, error) {
	in := strings.TrimSpace(s)
	name, arg, hasArg := strings.Cut(in, "(")
	name = strings.ToLower(strings.TrimSpace(name))

	kind, ok := kindByName(name)
	if !ok {
		return Op{}, &ParseError{Input: s, Reason: "unknown kind " + strconv.Quote(name)}
	}
	if !hasArg {
		if kind != Nop {
			return Op{}, &ParseError{Input: s, Reason: "missing operand"}
		}
		return NewOp(Nop, Param{}), nil
	}
	arg, closed := strings.CutSuffix(strings.TrimSpace(arg), ")")
	if !closed {
		return Op{}, &ParseError{Input: s, Reason: "missing closing parenthesis"}
	}
	arg = strings.TrimSpace(arg)

	if kind == Nop {
		if arg != "" {
			return Op{}, &ParseError{Input: s, Reason: "nop takes no operand"}
		}
		return NewOp(Nop, Param{}), nil
	}
	if strings.EqualFold(arg, "seed") {
		return NewOp(kind, Seed()), nil
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(arg, "_", ""), 0, 32)
	if err != nil {
		return Op{}, &ParseError{Input: s, Reason: "bad operand: " + err.Error()}
	}
	return NewOp(kind, Fixed(uint32(v))), nil
}

// ParseSequence parses ops separated by semicolons or newlines. Blank
// entries and lines starting with '#' are skipped.
func ParseSequence(s string) (Sequence, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' })
	var seq Sequence
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || strings.HasPrefix(f, "#") {
			continue
		}
		op, err := ParseOp(f)
		if err != nil {
			return nil, err
		}
		seq = append(seq, op)
	}
	return seq, nil
}

// String renders the sequence in the form ParseSequence reads.
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, op := range s {
		parts[i] = op.String()
	}
	return strings.Join(parts, "; ")
}

func kindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}
