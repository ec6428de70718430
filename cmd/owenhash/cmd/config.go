package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gkoulin/owen-hash-experiments/internal/app"
)

var configSave bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long: "Shows the resolved configuration (config file, .env, OWENHASH_* variables\n" +
		"and flags, in increasing precedence) and the project paths. --save writes\n" +
		"the resolved values to .owenhash/config.json.",
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configSave, "save", false, "write the resolved configuration to the config file")
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg, err := resolveConfig(cmd, root)
	if err != nil {
		return err
	}
	paths := app.NewPaths(root)
	s := newStyles(resolveColor(noColorFlag))
	out := cmd.OutOrStdout()

	seed := fmt.Sprintf("%d", cfg.Seed)
	if cfg.Seed == 0 {
		seed = "fresh per run"
	}
	rounds := make([]string, len(cfg.Rounds))
	for i, r := range cfg.Rounds {
		rounds[i] = fmt.Sprintf("%d", r)
	}

	row := func(k, v string) {
		fmt.Fprintf(out, "  %s %s\n", s.label.Render(fmt.Sprintf("%-12s", k+":")), v)
	}
	fmt.Fprintln(out, s.title.Render("⚡ owenhash config"))
	row("Root", root)
	row("DB", paths.DB)
	row("Config", paths.Config)
	row("Log", paths.Log)
	row("Images", paths.ImageDir)
	row("Plots", paths.PlotDir)
	row("Workers", fmt.Sprintf("%d", cfg.Workers))
	row("Seed", seed)
	row("Samples", fmt.Sprintf("%d", cfg.Samples))
	row("Scoring", fmt.Sprintf("%d samples", cfg.ScoringSamples))
	row("Chunk", fmt.Sprintf("%d", cfg.ChunkSize))
	row("Preset", cfg.Preset)
	row("Rounds", strings.Join(rounds, ","))
	row("Opt rounds", fmt.Sprintf("%d", cfg.OptRounds))
	row("Population", fmt.Sprintf("%d", cfg.Population))
	row("Seq length", fmt.Sprintf("%d", cfg.SeqLength))
	row("Log level", cfg.LogLevel)
	row("Progress", fmt.Sprintf("%t", cfg.Progress))

	if configSave {
		if err := app.SaveConfig(paths.Config, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", s.good.Render("✓ saved"), paths.Config)
	}
	return nil
}
