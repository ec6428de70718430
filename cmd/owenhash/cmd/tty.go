package cmd

import "os"

// isTTY returns true if f is connected to a terminal.
func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// resolveColor determines whether to use color output based on the
// --no-color flag, the NO_COLOR convention and stdout's TTY status.
func resolveColor(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return isTTY(os.Stdout)
}
