package main

import (
	"os"

	"github.com/msto63/koi/cmd/koi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
