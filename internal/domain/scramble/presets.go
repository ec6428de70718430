package scramble

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
)

// TableSize is the length of the random constant table test runs draw.
const TableSize = 4096

// ErrUnknownPreset is returned by Lookup for a name not in the catalogue.
var ErrUnknownPreset = errors.New("scramble: unknown preset")

// ErrShortTable is returned when a preset needs more constants than given.
var ErrShortTable = errors.New("scramble: constant table too short")

// Preset is a named construction of a seeded hash. Constructions that take
// rounds consume constants from a shared random table; optimized variants
// carry their own constants and cap the round count at what they have.
type Preset struct {
	Name        string
	Description string

	// PerRound is the number of table words one round consumes. Zero for
	// presets that ignore the table.
	PerRound int

	// MaxRounds caps the rounds actually applied. Zero means no cap.
	MaxRounds int

	// Cycles reports that rounds wrap around the table instead of
	// consuming fresh words.
	Cycles bool

	build func(rounds int, table []uint32) bias.HashFunc
}

// Rounds is the number of rounds the preset applies when asked for n.
func (p Preset) Rounds(n int) int {
	if p.PerRound == 0 && p.MaxRounds == 0 {
		return 0
	}
	if p.MaxRounds > 0 && n > p.MaxRounds {
		return p.MaxRounds
	}
	return n
}

// Hash builds the hash for n rounds over table.
func (p Preset) Hash(n int, table []uint32) (bias.HashFunc, error) {
	if n < 0 {
		return nil, fmt.Errorf("preset %s: negative rounds %d", p.Name, n)
	}
	rounds := p.Rounds(n)
	need := p.PerRound * rounds
	if p.Cycles && rounds > 0 {
		need = p.PerRound
	}
	if len(table) < need {
		return nil, fmt.Errorf("preset %s: %d rounds need %d words, have %d: %w",
			p.Name, rounds, need, len(table), ErrShortTable)
	}
	return p.build(rounds, table), nil
}

// Published constant pairs from earlier optimization runs.
var (
	v4Pairs = [][2]uint32{
		{0xa2d0f65a, 0x22bbe06d},
		{0xeb8e0374, 0x0c8c8841},
		{0xed3a0b98, 0xd1f0ca7b},
	}
	v5Pairs = [][2]uint32{
		{0xfad85de6, 0xf6db595b},
		{0x17ebb038, 0xe100f46f},
		{0x09e4ac1a, 0xe1d8c1ff},
	}
)

var presets = []Preset{
	{
		Name:        "owen",
		Description: "reference nested uniform scramble, one hash per bit",
		build: func(int, []uint32) bias.HashFunc {
			return OwenReference
		},
	},
	{
		Name:        "lk",
		Description: "Laine-Karras: add seed, four fixed multiply-xor steps",
		build: func(int, []uint32) bias.HashFunc {
			return func(n, seed uint32) uint32 {
				n += seed
				n ^= n * 0x6c50b47c
				n ^= n * 0xb82f1e52
				n ^= n * 0xc7afe638
				n ^= n * 0x8d22f6e6
				return n
			}
		},
	},
	{
		Name:        "lk-rounds",
		Description: "hashed seed, then one multiply-xor per round from the table",
		PerRound:    1,
		build: func(rounds int, table []uint32) bias.HashFunc {
			consts := evenWords(table[:rounds])
			return func(n, seed uint32) uint32 {
				n += HashU32(seed, 0)
				for _, c := range consts {
					n ^= n * c
				}
				return n
			}
		},
	},
	{
		Name:        "v3",
		Description: "hashed seed, then multiply and xor per round",
		PerRound:    2,
		build: func(rounds int, table []uint32) bias.HashFunc {
			pairs := tablePairs(table, rounds)
			return func(n, seed uint32) uint32 {
				n += HashU32(seed, 0)
				for _, p := range pairs {
					n *= p[0] | 1
					n ^= p[1]
				}
				return n
			}
		},
	},
	{
		Name:        "v4",
		Description: "hashed seed, then multiply-xor and multiply per round",
		PerRound:    2,
		build: func(rounds int, table []uint32) bias.HashFunc {
			return v4Hash(tablePairs(table, rounds))
		},
	},
	{
		Name:        "v4-opt",
		Description: "v4 with optimized constants, at most three rounds",
		MaxRounds:   len(v4Pairs),
		build: func(rounds int, _ []uint32) bias.HashFunc {
			return v4Hash(v4Pairs[:rounds])
		},
	},
	{
		Name:        "v5",
		Description: "v4 with a seed-derived multiplier at the start of each round",
		PerRound:    2,
		build: func(rounds int, table []uint32) bias.HashFunc {
			return v5Hash(tablePairs(table, rounds))
		},
	},
	{
		Name:        "v5-opt",
		Description: "v5 with optimized constants, at most three rounds",
		MaxRounds:   len(v5Pairs),
		build: func(rounds int, _ []uint32) bias.HashFunc {
			return v5Hash(v5Pairs[:rounds])
		},
	},
	{
		Name:        "add-xor",
		Description: "hashed seed, then add and xor per round, cycling the table",
		PerRound:    2,
		Cycles:      true,
		build: func(rounds int, table []uint32) bias.HashFunc {
			all := tablePairs(table, len(table)/2)
			pairs := make([][2]uint32, rounds)
			for i := range pairs {
				pairs[i] = all[i%len(all)]
			}
			return func(n, seed uint32) uint32 {
				n += HashU32(seed, 0)
				for _, p := range pairs {
					n += p[0]
					n ^= p[1]
				}
				return n
			}
		},
	},
}

func v4Hash(pairs [][2]uint32) bias.HashFunc {
	return func(n, seed uint32) uint32 {
		n += HashU32(seed, 0)
		for _, p := range pairs {
			n ^= n * (p[0] &^ 1)
			n *= p[1] | 1
		}
		return n
	}
}

func v5Hash(pairs [][2]uint32) bias.HashFunc {
	return func(n, seed uint32) uint32 {
		scramble := HashU32(seed, 0)
		scramble2 := HashU32(seed, 1) | 1
		n += scramble
		for _, p := range pairs {
			n *= scramble2
			n ^= n * (p[0] &^ 1)
			n *= p[1] | 1
		}
		return n
	}
}

func tablePairs(table []uint32, n int) [][2]uint32 {
	pairs := make([][2]uint32, n)
	for i := range pairs {
		pairs[i] = [2]uint32{table[2*i], table[2*i+1]}
	}
	return pairs
}

func evenWords(words []uint32) []uint32 {
	out := make([]uint32, len(words))
	for i, w := range words {
		out[i] = w &^ 1
	}
	return out
}

// Lookup returns the preset called name.
func Lookup(name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w %q (have %v)", ErrUnknownPreset, name, Names())
}

// Names lists the catalogue in declaration order.
func Names() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// Presets returns a copy of the catalogue.
func Presets() []Preset {
	return slices.Clone(presets)
}

// RandomTable draws n constants from rng.
func RandomTable(rng *rand.Rand, n int) []uint32 {
	table := make([]uint32, n)
	for i := range table {
		table[i] = rng.Uint32()
	}
	return table
}

// DefaultRounds is the round sweep of a test run.
var DefaultRounds = []int{1, 2, 3, 4, 8, 16, 32, 64, 128, 256}
