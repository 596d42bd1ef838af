// Package main is the entry point for the sensor CLI binary.
package main

import (
	"os"

	cli "sensor-dash/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
