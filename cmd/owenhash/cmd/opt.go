package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gkoulin/owen-hash-experiments/internal/app"
)

var (
	optStrategy       string
	optPopulation     int
	optLength         int
	optScoringSamples int
	optPlot           bool
)

var optCmd = &cobra.Command{
	Use:   "opt [rounds]",
	Short: "Search for mixing constants with the lowest bias score",
	Long: "Runs the population search for the given number of rounds (default 2500).\n" +
		"The pair strategy tunes the last multiply pair of the v5 construction; the\n" +
		"sequence strategy searches whole op sequences. The winner is archived.",
	Args: cobra.MaximumNArgs(1),
	RunE: runOpt,
}

func init() {
	optCmd.Flags().StringVar(&optStrategy, "strategy", app.StrategyPair, "search strategy: pair or sequence")
	optCmd.Flags().IntVar(&optPopulation, "population", 0, "simultaneous candidates (default 2)")
	optCmd.Flags().IntVar(&optLength, "length", 0, "ops per candidate for the sequence strategy (default 6)")
	optCmd.Flags().IntVar(&optScoringSamples, "scoring-samples", 0, "samples per scoring call (default 1<<14)")
	optCmd.Flags().BoolVar(&optPlot, "plot", false, "plot the best score per round")
}

func runOpt(cmd *cobra.Command, args []string) error {
	req := app.OptimizeRequest{
		Strategy:   optStrategy,
		Population: optPopulation,
		Length:     optLength,
		Samples:    optScoringSamples,
		Plot:       optPlot,
	}
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("rounds must be a positive integer, got %q", args[0])
		}
		req.Rounds = n
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.RunOptimize(req)
	if err != nil {
		return err
	}

	s := newStyles(resolveColor(noColorFlag))
	out := cmd.OutOrStdout()
	switch res.Strategy {
	case app.StrategyPair:
		fmt.Fprint(out, formatWords(res.Pairs[:]))
	case app.StrategySequence:
		fmt.Fprint(out, formatSequence(res.Sequence))
	}
	fmt.Fprint(out, formatStats(&res.Stats, res.Score, s))
	fmt.Fprintf(out, "  %s #%d  %s %d\n", s.label.Render("run"), res.RunID, s.label.Render("seed"), res.Seed)
	if res.Plot != "" {
		fmt.Fprintf(out, "  %s %s\n", s.label.Render("plot"), res.Plot)
	}
	return nil
}
