package main

import (
	"os"

	"github.com/GriffinCanCode/AgencySite/backend/cmd/pricectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
