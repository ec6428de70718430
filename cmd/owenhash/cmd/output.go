package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/mixing"
	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// styles holds the terminal styles for one invocation. The zero-color set
// renders text unchanged.
type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title: lipgloss.NewStyle().Bold(true),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
		good:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

// formatStats renders the summary lines of one measurement.
//
//	Average bias: 0.123
//	  max 0.456 │ tree dev 0.012 │ score 20.311 │ 8388608 samples
func formatStats(st *bias.Stats, score float64, s styles) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", s.title.Render("Average bias:"), s.value.Render(fmt.Sprintf("%0.3f", st.AverageBias())))
	fmt.Fprintf(&sb, "  %s %0.3f │ %s %0.3f │ %s %0.3f │ %d samples\n",
		s.label.Render("max"), st.MaxBias(),
		s.label.Render("tree dev"), st.TreeDeviation(),
		s.label.Render("score"), score,
		st.Samples)
	return sb.String()
}

// formatReducedBias renders the per-output-bit reduced bias, eight bits per line.
func formatReducedBias(st *bias.Stats, s styles) string {
	reduced := st.ReducedBias()
	var sb strings.Builder
	for i := 0; i < bias.Bits; i += 8 {
		sb.WriteString(s.dim.Render(fmt.Sprintf("  %2d-%2d", i, i+7)))
		for _, v := range reduced[i : i+8] {
			fmt.Fprintf(&sb, " %0.3f", v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// formatWords renders constants one per line in binary, then as a hex list
// ready to paste back into code.
//
//	11111010110110000101110111100110
//	...
//	[0xfad85de6, 0xf6db595b, ...]
func formatWords(words []uint32) string {
	var sb strings.Builder
	for _, w := range words {
		fmt.Fprintf(&sb, "%032b\n", w)
	}
	sb.WriteString(formatHexList(words))
	sb.WriteByte('\n')
	return sb.String()
}

// formatHexList renders words as [0x........, ...].
func formatHexList(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("0x%08x", w)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatSequence renders ops one per line, in the form eval reads back.
func formatSequence(seq mixing.Sequence) string {
	var sb strings.Builder
	for _, op := range seq {
		sb.WriteString(op.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// formatRunLine renders one archive entry for runs list.
//
//	#12  optimize  pair      2026-10-19 14:03  bias 0.123  score 20.311
func formatRunLine(rec *ports.RunRecord, s styles) string {
	label := rec.Label
	if len(label) > 24 {
		label = "…" + label[len(label)-23:]
	}
	return fmt.Sprintf("%s  %-8s  %-24s  %s  bias %0.3f  score %0.3f",
		s.value.Render(fmt.Sprintf("#%-4d", rec.ID)),
		rec.Kind,
		label,
		s.dim.Render(rec.CreatedAt.Local().Format("2006-01-02 15:04")),
		rec.AverageBias,
		rec.Score,
	)
}

// formatRunDetail renders every stored field of a run.
func formatRunDetail(rec *ports.RunRecord, s styles) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", s.title.Render(fmt.Sprintf("Run #%d (%s)", rec.ID, rec.Kind)))
	row := func(k, v string) {
		fmt.Fprintf(&sb, "  %s %s\n", s.label.Render(fmt.Sprintf("%-10s", k+":")), v)
	}
	row("Label", rec.Label)
	row("Created", rec.CreatedAt.Local().Format(time.RFC3339))
	row("Seed", fmt.Sprintf("%d", rec.Seed))
	row("Rounds", fmt.Sprintf("%d", rec.Rounds))
	row("Samples", fmt.Sprintf("%d", rec.Samples))
	row("Bias", fmt.Sprintf("%0.3f", rec.AverageBias))
	row("Score", fmt.Sprintf("%0.3f", rec.Score))
	if len(rec.Params) > 0 {
		row("Params", strings.Join(rec.Params, " "))
	}
	if n := len(rec.History); n > 0 {
		row("History", fmt.Sprintf("%d rounds, %0.3f → %0.3f", n, rec.History[0], rec.History[n-1]))
	}
	return sb.String()
}
