// Package main is the entry point for the descrefine CLI.
package main

import (
	"os"

	"github.com/jmylchreest/descrefine/cmd/descrefine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
