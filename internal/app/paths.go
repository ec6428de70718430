package app

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// DirName is the per-project state directory.
const DirName = ".owenhash"

// Paths holds all resolved filesystem paths for the .owenhash/ directory.
// All fields are pre-computed strings.
type Paths struct {
	Root   string // .owenhash/
	DB     string // .owenhash/owenhash.db
	Config string // .owenhash/config.json
	Env    string // .owenhash/.env

	LogDir string // .owenhash/log/
	Log    string // .owenhash/log/owenhash.log

	ImageDir string // .owenhash/images/
	PlotDir  string // .owenhash/plots/
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, DirName)
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "owenhash.db"),
		Config: filepath.Join(root, "config.json"),
		Env:    filepath.Join(root, ".env"),

		LogDir: filepath.Join(root, "log"),
		Log:    filepath.Join(root, "log", "owenhash.log"),

		ImageDir: filepath.Join(root, "images"),
		PlotDir:  filepath.Join(root, "plots"),
	}
}

// EnsureDirs creates all subdirectories under .owenhash/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir, p.ImageDir, p.PlotDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ImagePath is the bias image of a test run at the given round count.
func (p *Paths) ImagePath(preset string, rounds int) string {
	return filepath.Join(p.ImageDir, imageName(preset, rounds))
}

// PlotPath is the score-history plot of an archived optimize run.
func (p *Paths) PlotPath(runID uint64) string {
	return filepath.Join(p.PlotDir, plotName(runID))
}

// removeIfExists deletes path, treating a missing file as success.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
