package cmd

import (
	"fmt"
	"strings"

	"github.com/gkoulin/owen-hash-experiments/internal/app"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when the run archive is held by
// another owenhash process, usually a long opt run or a watch.
func diagnoseDBLock(root string) string {
	return fmt.Sprintf("run archive %s is locked by another owenhash process\n"+
		"  → a long opt run or owenhash watch may still be going\n"+
		"  → find the process:  ps aux | grep owenhash\n"+
		"  → wait for it or stop it, then retry your command", app.NewPaths(root).DB)
}
