package main

import (
	"os"

	"github.com/perfin-dev/perfin/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
