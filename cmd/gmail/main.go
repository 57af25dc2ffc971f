package main

import (
	"os"

	"github.com/vijay-prabhu/gmail-cli/internal/cli"
)

// Version information (set by build script)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	cli.SetVersionInfo(Version, Commit, BuildTime)
	os.Exit(cli.Execute())
}
