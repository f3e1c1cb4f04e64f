package main

import (
	"os"

	"github.com/thayduy/lythuyet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
