package main

import (
	"os"

	"github.com/vertiops/evtol-ops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
