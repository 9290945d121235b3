package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/userctl/internal/storage"
)

// handlerFunc runs one command against an open session.
type handlerFunc func(ctx context.Context, a *app, s *storage.Session, args []string) error

// command is one entry of the dispatch table.
type command struct {
	name  string // Hyphenated name; the underscore spelling is registered as an alias
	args  string // Positional argument synopsis for the usage line
	short string
	long  string
	nargs cobra.PositionalArgs
	run   handlerFunc
}

// commands maps every command name to its handler.
var commands = []command{
	{
		name:  "initialize",
		short: "Drop and recreate the users table with the seed users",
		long: `Drop the users table, recreate it, and insert the seed users bob and john.

Any existing users are lost.`,
		nargs: cobra.NoArgs,
		run:   runInitialize,
	},
	{
		name:  "get-user",
		args:  "<username>",
		short: "Show a user by exact username",
		nargs: cobra.ExactArgs(1),
		run:   runGetUser,
	},
	{
		name:  "get-all-users",
		short: "List every user",
		nargs: cobra.NoArgs,
		run:   runGetAllUsers,
	},
	{
		name:  "change-email",
		args:  "<username> <new_email>",
		short: "Change a user's email",
		nargs: cobra.ExactArgs(2),
		run:   runChangeEmail,
	},
	{
		name:  "create-user",
		args:  "<new_username> <new_email> <new_password>",
		short: "Create a new user",
		long: `Create a new user.

Usernames and emails are unique; a taken value is reported and nothing is written.`,
		nargs: cobra.ExactArgs(3),
		run:   runCreateUser,
	},
	{
		name:  "delete-user",
		args:  "<username>",
		short: "Delete a user",
		nargs: cobra.ExactArgs(1),
		run:   runDeleteUser,
	},
	{
		name:  "get-user-partial",
		args:  "<name>",
		short: "Show the first user whose username or email contains name",
		long: `Show the first user, in creation order, whose username or email
contains name. Matching ignores case.`,
		nargs: cobra.ExactArgs(1),
		run:   runGetUserPartial,
	},
	{
		name:  "get-range",
		args:  "[offset] [limit]",
		short: "List a page of users",
		long: fmt.Sprintf(`List up to limit users in creation order, skipping the first offset.

Defaults: offset %d, limit %d.`, DefaultRangeOffset, DefaultRangeLimit),
		nargs: cobra.MatchAll(cobra.MaximumNArgs(2), nonNegativeIntArgs),
		run:   runGetRange,
	},
}

// reservedNames are added by cobra itself.
var reservedNames = map[string]bool{"help": true, "completion": true}

// validateCommands checks the table: every entry needs a name, an argument
// policy and a handler, and no two entries may share a name or alias.
func validateCommands(cmds []command) error {
	seen := make(map[string]string)
	for i, c := range cmds {
		if c.name == "" {
			return fmt.Errorf("command #%d has no name", i)
		}
		if c.run == nil {
			return fmt.Errorf("command %q has no handler", c.name)
		}
		if c.nargs == nil {
			return fmt.Errorf("command %q has no argument policy", c.name)
		}
		for _, n := range append([]string{c.name}, aliasesFor(c.name)...) {
			if reservedNames[n] {
				return fmt.Errorf("command name %q is reserved", n)
			}
			if other, ok := seen[n]; ok {
				return fmt.Errorf("command name %q used by both %q and %q", n, other, c.name)
			}
			seen[n] = c.name
		}
	}
	return nil
}

// aliasesFor returns the underscore spelling of a hyphenated name.
func aliasesFor(name string) []string {
	if alias := strings.ReplaceAll(name, "-", "_"); alias != name {
		return []string{alias}
	}
	return nil
}

// cobraCommand turns a table entry into a cobra command that runs the
// handler inside one store session.
func (a *app) cobraCommand(c command) *cobra.Command {
	use := c.name
	if c.args != "" {
		use += " " + c.args
	}
	long := c.long
	if long == "" {
		long = c.short + "."
	}

	return &cobra.Command{
		Use:     use,
		Aliases: aliasesFor(c.name),
		Short:   c.short,
		Long:    long,
		Args:    c.nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.log.WithField("command", c.name).Debug("running command")
			return a.withSession(ctx, func(s *storage.Session) error {
				return c.run(ctx, a, s, args)
			})
		},
	}
}
