package search

import "github.com/gkoulin/owen-hash-experiments/internal/domain/bias"

// TargetCurve gives, per output bit, the avalanche bias a candidate should
// show for every lower input bit.
type TargetCurve [bias.Bits]float64

// OwenTarget approximates the per-seed avalanche bias of a true nested
// uniform (Owen) scramble: output bit k depends on the k bits below it
// through a random function, so low bits are strongly biased and the bias
// decays by roughly 0.7 per bit.
var OwenTarget = TargetCurve{
	0.0, 1.0, 0.5, 0.375, 0.273437, 0.19638, 0.139949, 0.099346,
	0.070386, 0.049819, 0.035244, 0.024927, 0.017628, 0.012466, 0.008815, 0.006233,
	0.004407, 0.003117, 0.002204, 0.001558, 0.001102, 0.000779, 0.000551, 0.000390,
	0.000275, 0.000195, 0.000138, 0.000097, 0.000069, 0.000049, 0.000034, 0.000024,
}

// Objective turns a measurement into a score. Lower is better.
type Objective interface {
	Score(st *bias.Stats) float64
}

// ObjectiveFunc adapts a function to Objective.
type ObjectiveFunc func(st *bias.Stats) float64

// Score implements Objective.
func (f ObjectiveFunc) Score(st *bias.Stats) float64 { return f(st) }

// TargetObjective scores a candidate by its squared distance from an ideal
// Owen scramble: tree cells should sit at 0.5 and avalanche cells on Curve.
type TargetObjective struct {
	Curve TargetCurve
}

// Score implements Objective.
func (o TargetObjective) Score(st *bias.Stats) float64 {
	return TreeTerm(st) + AvalancheTerm(st, &o.Curve)
}

// TreeTerm is Σ (tree[x][y] - 0.5)² over x < y.
func TreeTerm(st *bias.Stats) float64 {
	var score float64
	for x := 0; x < bias.Bits; x++ {
		for y := x + 1; y < bias.Bits; y++ {
			d := st.Tree[x][y] - 0.5
			score += d * d
		}
	}
	return score
}

// AvalancheTerm is Σ (avalanche[in][out] - curve[out])² over in < out.
func AvalancheTerm(st *bias.Stats, curve *TargetCurve) float64 {
	var score float64
	for out := 0; out < bias.Bits; out++ {
		for in := 0; in < out; in++ {
			d := st.Avalanche[in][out] - curve[out]
			score += d * d
		}
	}
	return score
}
