// Command prodsched is the production scheduler entrypoint.
package main

import "github.com/Ilay3/ProductionScheduler/internal/cli"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.Execute(version)
}
