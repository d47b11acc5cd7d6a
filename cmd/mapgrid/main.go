// Package main is the single-binary entrypoint for MapGrid.
package main

import "github.com/mapgrid-network/mapgrid/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
