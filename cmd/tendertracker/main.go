package main

import (
	"os"

	"tendertracker/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
