package main

import (
	"os"

	"github.com/voltmesh/voltmesh/cmd/voltmesh/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
