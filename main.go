package main

import (
	"os"

	"github.com/oif-solver/solver-svc/internal/cli"
)

func main() {
	if !cli.Run(os.Args) {
		os.Exit(1)
	}
}
