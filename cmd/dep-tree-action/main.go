// Package main is the entry point of the dep-tree GitHub Action.
//
// Build-time variables are injected via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse HEAD)"
package main

import (
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
