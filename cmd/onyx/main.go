package main

import (
	"os"

	"onyxnet/cmd/onyx/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
