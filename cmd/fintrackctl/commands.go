package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"finance-tracker/internal/entity"
	"finance-tracker/internal/prefs"
	"finance-tracker/internal/session"
	"finance-tracker/internal/storage"

	"github.com/google/subcommands"
)

func openDB() (*storage.DB, error) {
	p := *dbPath
	if env := os.Getenv("DB_PATH"); env != "" && p == "fintrack.db" {
		p = env
	}
	return storage.NewDB(p)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// sweepCmd deletes expired sessions.
type sweepCmd struct{}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "Delete expired sessions." }
func (*sweepCmd) Usage() string {
	return `sweep:
  Delete every session whose expiry is in the past.
`
}
func (*sweepCmd) SetFlags(*flag.FlagSet) {}

func (*sweepCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	sessions := session.NewService(db, prefs.NewMemoryStore())
	n, err := sessions.Sweep(time.Now())
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Removed %d expired session(s)\n", n)
	return subcommands.ExitSuccess
}

// wipeCmd physically removes a user's categories and transactions.
type wipeCmd struct {
	user string
}

func (*wipeCmd) Name() string     { return "wipe" }
func (*wipeCmd) Synopsis() string { return "Delete all data owned by a user." }
func (*wipeCmd) Usage() string {
	return `wipe -user <username-or-email>:
  Physically delete the user's categories and transactions and clear their
  last visited page. Predefined categories are untouched.
`
}

func (c *wipeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Username or email of the user to wipe")
}

func (c *wipeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.user == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	user, err := db.GetUserByLogin(c.user)
	if err != nil {
		if storage.IsNotFound(err) {
			return fail(fmt.Errorf("no user matches %q", c.user))
		}
		return fail(err)
	}

	if err := entity.NewService(db).ClearUserData(user.ID); err != nil {
		return fail(err)
	}
	fmt.Printf("Cleared all data for %s\n", user.Username)
	return subcommands.ExitSuccess
}

// clearSessionsCmd empties the sessions table.
type clearSessionsCmd struct{}

func (*clearSessionsCmd) Name() string     { return "clear-sessions" }
func (*clearSessionsCmd) Synopsis() string { return "Delete every session." }
func (*clearSessionsCmd) Usage() string {
	return `clear-sessions:
  Log every user out by deleting all session rows.
`
}
func (*clearSessionsCmd) SetFlags(*flag.FlagSet) {}

func (*clearSessionsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	if err := session.NewService(db, prefs.NewMemoryStore()).ClearAllSessions(); err != nil {
		return fail(err)
	}
	fmt.Println("All sessions cleared")
	return subcommands.ExitSuccess
}
