package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gkoulin/owen-hash-experiments/internal/adapters/mpb"
	"github.com/gkoulin/owen-hash-experiments/internal/app"
	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

var rootCmd = &cobra.Command{
	Use:   "owenhash",
	Short: "owenhash: bias measurement for Owen-scramble hashes",
	Long: "Measures avalanche and tree-seeding bias of seeded 32-bit hashes and\n" +
		"searches for mixing constants that behave like a nested uniform scramble.",
	SilenceUsage: true,
}

var (
	workersFlag    int
	seedFlag       uint64
	samplesFlag    int
	chunkFlag      int
	noColorFlag    bool
	logLevelFlag   string
	noProgressFlag bool
)

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&workersFlag, "workers", 0, "concurrent measurement workers (default: logical cores)")
	pf.Uint64Var(&seedFlag, "seed", 0, "sampling seed; 0 picks a fresh seed per run")
	pf.IntVar(&samplesFlag, "samples", 0, "samples per measurement (default 1<<23)")
	pf.IntVar(&chunkFlag, "chunk", 0, "samples per chunk, each chunk drawing one seed (default 256)")
	pf.BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&noProgressFlag, "no-progress", false, "hide progress bars")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(optCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)
}

// resolveConfig layers the config file, .env files, OWENHASH_* variables
// and finally the flags the user actually set.
func resolveConfig(cmd *cobra.Command, root string) (app.Config, error) {
	paths := app.NewPaths(root)
	if err := app.LoadDotEnv(filepath.Join(root, ".env"), paths.Env); err != nil {
		return app.Config{}, err
	}
	cfg, err := app.LoadConfig(paths.Config)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workersFlag
	}
	if flags.Changed("seed") {
		cfg.Seed = seedFlag
	}
	if flags.Changed("samples") {
		cfg.Samples = samplesFlag
	}
	if flags.Changed("chunk") {
		cfg.ChunkSize = chunkFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}
	if noProgressFlag {
		cfg.Progress = false
	}
	return cfg, nil
}

// openApp resolves the configuration and opens the project's App.
func openApp(cmd *cobra.Command) (*app.App, error) {
	root := projectRoot()
	cfg, err := resolveConfig(cmd, root)
	if err != nil {
		return nil, err
	}

	var progress ports.ProgressFactory = ports.NoProgress{}
	if cfg.Progress && isTTY(os.Stderr) {
		progress = mpb.NewFactory(os.Stderr)
	}

	a, err := app.New(app.Options{ProjectRoot: root, Config: cfg, Progress: progress})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%s", diagnoseDBLock(root))
		}
		return nil, err
	}
	return a, nil
}
