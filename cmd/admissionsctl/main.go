package main

import (
	"os"

	"github.com/yigit/admissions/cmd/admissionsctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
