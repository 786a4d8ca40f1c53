// Package main implements the microC analysis CLI (mca).
// It builds program graphs of microC programs and solves data-flow analyses
// over them.
package main

import (
	"os"

	"github.com/l3aro/microc-analysis/cmd/mca/commands"
)

var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
