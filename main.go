package main

import (
	"os"

	"github.com/replicate/pcat/cmd"
	"github.com/replicate/pcat/pkg/logging"
)

func main() {
	logging.SetupLogger()
	rootCMD := cmd.GetRootCommand()

	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
