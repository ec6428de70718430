// owenhash measures the bias of 32-bit Owen-scramble hashes and searches
// for mixing constants that bring them closer to a true nested scramble.
package main

import (
	"os"

	"github.com/gkoulin/owen-hash-experiments/cmd/owenhash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
