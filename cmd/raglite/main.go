package main

import "github.com/raglite/raglite/internal/cli"

// Version is set via -ldflags at release time.
var Version = "dev"

func main() {
	cli.Main(Version)
}
