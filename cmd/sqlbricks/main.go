// Package main provides the sqlbricks command.
package main

import (
	"os"

	"github.com/gaborage/sqlbricks/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
