// fintrackctl performs maintenance on a local finance-tracker database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

// As a CLI application with a short lifecycle, global flags are fine here.
var dbPath = flag.String("db", "fintrack.db", "Path to database file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(subcommands.HelpCommand(), "")
	commander.Register(subcommands.FlagsCommand(), "")
	commander.Register(&sweepCmd{}, "maintenance")
	commander.Register(&wipeCmd{}, "maintenance")
	commander.Register(&clearSessionsCmd{}, "maintenance")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
