package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gkoulin/owen-hash-experiments/internal/adapters/png"
	"github.com/gkoulin/owen-hash-experiments/internal/app"
)

var (
	runsLimit int
	runsImage string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived results",
	Long:  "Every test, opt and eval run is archived in .owenhash/owenhash.db.",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete archived runs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRunsRm,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "show at most this many runs; 0 for all")
	runsShowCmd.Flags().StringVar(&runsImage, "img", "", "also write the run's bias image to this path")
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRmCmd)
}

func parseRunID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.ListRuns(runsLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no archived runs")
		return nil
	}
	s := newStyles(resolveColor(noColorFlag))
	for _, rec := range runs {
		fmt.Fprintln(out, formatRunLine(rec, s))
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.ShowRun(id)
	if err != nil {
		return err
	}
	s := newStyles(resolveColor(noColorFlag))
	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatRunDetail(rec, s))

	st, ok := app.StatsOf(rec)
	if !ok {
		return nil
	}
	fmt.Fprint(out, formatReducedBias(&st, s))
	if runsImage != "" {
		if err := png.SaveBiasImage(runsImage, &st); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s %s\n", s.label.Render("image"), runsImage)
	}
	return nil
}

func runRunsRm(cmd *cobra.Command, args []string) error {
	ids := make([]uint64, len(args))
	for i, arg := range args {
		id, err := parseRunID(arg)
		if err != nil {
			return err
		}
		ids[i] = id
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range ids {
		if err := a.DeleteRun(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted run #%d\n", id)
	}
	return nil
}
