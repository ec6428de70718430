package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gkoulin/owen-hash-experiments/internal/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Measure every op file created or changed in a directory",
	Long: "Watches dir recursively for .ops and .json files and evaluates each one\n" +
		"as it is written, like eval. Runs until interrupted.",
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&evalRaw, "raw", false, "run the ops on the input as written")
	watchCmd.Flags().BoolVar(&evalReduced, "reduced", false, "also print the per-bit reduced bias")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newStyles(resolveColor(noColorFlag))
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s\n", s.title.Render("Watching"), args[0], s.dim.Render("(ctrl-c to stop)"))

	return a.Watch(ctx, app.WatchRequest{
		Dir: args[0],
		Raw: evalRaw,
		OnResult: func(res *app.EvalResult, err error) {
			if err != nil {
				fmt.Fprintf(out, "%s %v\n\n", s.warn.Render("error:"), err)
				return
			}
			printEval(cmd, res, s)
			fmt.Fprintln(out)
		},
	})
}
