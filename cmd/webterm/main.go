package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/GriffinCanCode/webterm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
