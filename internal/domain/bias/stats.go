package bias

import "math"

// Bits is the operand width every measurement works on.
const Bits = 32

// bins is the number of tree-seeding cells, Bits×Bits.
const bins = Bits * Bits

// Matrix is a Bits×Bits table of bias values.
type Matrix [Bits][Bits]float64

// Add adds o to m cell by cell.
func (m *Matrix) Add(o *Matrix) {
	for i := range m {
		for j := range m[i] {
			m[i][j] += o[i][j]
		}
	}
}

// Scale multiplies every cell by f.
func (m *Matrix) Scale(f float64) {
	for i := range m {
		for j := range m[i] {
			m[i][j] *= f
		}
	}
}

// Stats holds the two bias matrices of one measurement.
//
// Avalanche is indexed [bit_in][bit_out]. After normalization a cell is
// |P(flip) - 1/2| * 2: 0 for an unbiased pair, 1 when flipping bit_in always
// or never flips bit_out.
//
// Tree is indexed [x_bin][y_bin]. After normalization a cell is its hit count
// scaled by the number of bins, so an unbiased hash gives 0.5 everywhere.
type Stats struct {
	Avalanche Matrix
	Tree      Matrix

	// Samples is the number of samples behind the matrices, after rounding
	// up to whole chunks. Zero while accumulating.
	Samples uint64
}

// Add accumulates o into s. The reduction is elementwise, so any grouping of
// partial results sums to the same totals.
func (s *Stats) Add(o *Stats) {
	s.Avalanche.Add(&o.Avalanche)
	s.Tree.Add(&o.Tree)
}

// Normalize converts accumulated deviations and hit counts into bias values
// for total samples.
func (s *Stats) Normalize(total uint64) {
	n := float64(total)
	s.Avalanche.Scale(2 / n)
	s.Tree.Scale(bins / n)
	s.Samples = total
}

// AverageBias is the mean avalanche bias over bit_in < bit_out.
func (s *Stats) AverageBias() float64 {
	var sum float64
	for in := 0; in < Bits; in++ {
		for out := in + 1; out < Bits; out++ {
			sum += s.Avalanche[in][out]
		}
	}
	return sum / (Bits * (Bits - 1) / 2)
}

// MaxBias is the largest avalanche bias over bit_in < bit_out.
func (s *Stats) MaxBias() float64 {
	var hi float64
	for in := 0; in < Bits; in++ {
		for out := in + 1; out < Bits; out++ {
			hi = math.Max(hi, s.Avalanche[in][out])
		}
	}
	return hi
}

// ReducedBias averages, per output bit, the bias contributed by every lower
// input bit. Entry 0 has no lower bits and is always 0.
func (s *Stats) ReducedBias() [Bits]float64 {
	var out [Bits]float64
	for in := 0; in < Bits; in++ {
		for o := in + 1; o < Bits; o++ {
			out[o] += s.Avalanche[in][o] / float64(o)
		}
	}
	return out
}

// TreeMean is the mean tree cell. Close to 0.5 when about half the samples
// land inside the measured bin range.
func (s *Stats) TreeMean() float64 {
	var sum float64
	for x := range s.Tree {
		for y := range s.Tree[x] {
			sum += s.Tree[x][y]
		}
	}
	return sum / bins
}

// TreeDeviation is the RMS distance of the tree cells above the diagonal
// from the unbiased 0.5.
func (s *Stats) TreeDeviation() float64 {
	var sum float64
	for x := 0; x < Bits; x++ {
		for y := x + 1; y < Bits; y++ {
			d := s.Tree[x][y] - 0.5
			sum += d * d
		}
	}
	return math.Sqrt(sum / (Bits * (Bits - 1) / 2))
}
