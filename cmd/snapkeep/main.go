package main

import (
	"os"

	"github.com/bianoble/snapkeep/cmd/snapkeep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
