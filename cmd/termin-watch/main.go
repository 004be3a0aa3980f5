package main

import "github.com/pfrederiksen/termin-watch/internal/cli"

// set by -ldflags at release time
var version = "dev"

func main() {
	cli.Version = version
	cli.Execute()
}
