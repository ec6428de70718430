package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gkoulin/owen-hash-experiments/internal/app"
)

var (
	evalRaw     bool
	evalReduced bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <file>",
	Short: "Measure the op sequence in a file",
	Long: "Reads an op sequence (.json array of ops, or one op per line / separated\n" +
		"by ';') such as \"mul(0x2c6fe96f)\" or \"xor(seed)\", measures it and archives\n" +
		"the result. The input is offset by a hashed seed first unless --raw is set.",
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalRaw, "raw", false, "run the ops on the input as written")
	evalCmd.Flags().BoolVar(&evalReduced, "reduced", false, "also print the per-bit reduced bias")
}

func runEval(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Evaluate(app.EvalRequest{Path: args[0], Raw: evalRaw})
	if err != nil {
		return err
	}
	printEval(cmd, res, newStyles(resolveColor(noColorFlag)))
	return nil
}

func printEval(cmd *cobra.Command, res *app.EvalResult, s styles) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", s.title.Render("File:"), res.Path)
	fmt.Fprintln(out, s.dim.Render(res.Sequence.String()))
	fmt.Fprint(out, formatStats(&res.Stats, res.Score, s))
	if evalReduced {
		fmt.Fprint(out, formatReducedBias(&res.Stats, s))
	}
	fmt.Fprintf(out, "  %s #%d\n", s.label.Render("run"), res.RunID)
}
