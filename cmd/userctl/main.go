// Package main provides the userctl CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/matsen/userctl/internal/config"
	"github.com/matsen/userctl/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	root, err := newRootCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}

	if err := root.ExecuteContext(context.Background()); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

// app carries what every command needs once the root command has run setup.
type app struct {
	cfg        *config.Config
	log        *logrus.Logger
	out        io.Writer
	jsonOutput bool

	// Flag values
	configPath string
	dbDriver   string
	dbDSN      string
	logLevel   string
}

// newRootCmd validates the command table and builds the command tree from it.
func newRootCmd() (*cobra.Command, error) {
	if err := validateCommands(commands); err != nil {
		return nil, fmt.Errorf("invalid command table: %w", err)
	}

	a := &app{}
	root := &cobra.Command{
		Use:   "userctl",
		Short: "Manage user records in a relational store",
		Long: `userctl manages the users table of a SQLite or PostgreSQL database.

Every command opens one session against the store, runs, and releases it.
Lookups that find nothing and duplicate usernames or emails are reported
on stdout without failing the command.

Configuration is read from ` + "`$XDG_CONFIG_HOME/userctl/config.yml`" + `, then
USERCTL_* environment variables (a .env file is honored), then flags.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config file (default: "+config.Path()+")")
	flags.StringVar(&a.dbDriver, "db-driver", "", "Database driver: sqlite or postgres")
	flags.StringVar(&a.dbDSN, "db", "", "Database DSN (SQLite file path or PostgreSQL URL)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&a.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	for _, c := range commands {
		root.AddCommand(a.cobraCommand(c))
	}

	return root, nil
}

// setup resolves configuration and the logger. Flags win over the
// environment, which wins over the config file.
func (a *app) setup(cmd *cobra.Command) error {
	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &exitError{code: ExitConfigError, err: fmt.Errorf("loading config: %w", err)}
	}

	if a.dbDriver != "" {
		cfg.Database.Driver = a.dbDriver
	}
	if a.dbDSN != "" {
		cfg.Database.DSN = a.dbDSN
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}

	log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}

	a.cfg = cfg
	a.log = log
	a.out = cmd.OutOrStdout()
	return nil
}

// withSession opens the store, runs fn inside a single session, and closes
// the store on every exit path.
func (a *app) withSession(ctx context.Context, fn func(*storage.Session) error) error {
	log := a.log.WithField("driver", a.cfg.Database.Driver)
	log.Debug("opening database")

	db, err := storage.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}()

	return db.WithSession(ctx, fn)
}
