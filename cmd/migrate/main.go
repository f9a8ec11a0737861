package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/freelance/backend/internal/infrastructure/config"
	"github.com/freelance/backend/internal/infrastructure/logger"
	"github.com/freelance/backend/internal/infrastructure/migration"
	"github.com/freelance/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

type cli struct {
	dir      string
	logLevel string
	log      *zap.Logger
	out      io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the billing database schema",
		Long:          "Apply, roll back and author SQL migrations. Without --path the migrations compiled into the binary are used.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(logger.Config{Level: c.logLevel, Format: "console", Output: "stderr"})
			if err != nil {
				return err
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.dir, "path", "", "migrations directory (default: embedded migrations)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		c.dbCommand("up", "Apply all pending migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Up()
		}),
		c.dbCommand("down", "Roll back all migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Down()
		}),
		c.dbCommand("steps <n>", "Apply n migrations, negative to roll back", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
		c.dbCommand("goto <version>", "Migrate to a specific version", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(v))
		}),
		c.dbCommand("version", "Show the current schema version", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			status, err := m.Version()
			if err != nil {
				return err
			}
			if !status.Applied {
				fmt.Fprintln(c.out, "no migrations applied")
				return nil
			}
			fmt.Fprintf(c.out, "version %d (dirty: %t)\n", status.Version, status.Dirty)
			return nil
		}),
		c.dbCommand("force <version>", "Record a version without running migrations", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(v)
		}),
		c.dropCommand(),
		c.createCommand(),
		c.listCommand(),
	)
	return root
}

func (c *cli) dbCommand(use, short string, args cobra.PositionalArgs, run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := c.openMigrator()
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					c.log.Warn("close migrator", zap.Error(err))
				}
			}()
			return run(m, args)
		},
	}
}

func (c *cli) dropCommand() *cobra.Command {
	var confirm bool
	cmd := c.dbCommand("drop", "Drop every database object", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
		if !confirm {
			return errors.New("refusing to drop without --confirm")
		}
		return m.Drop()
	})
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm that all data will be lost")
	return cmd
}

func (c *cli) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			f, err := migration.Create(c.authoringDir(), args[0], description, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, f.UpPath)
			fmt.Fprintln(c.out, f.DownPath)
			return nil
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations in the migrations directory",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			files, err := migration.List(c.authoringDir())
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(c.out, f.BaseName())
			}
			return nil
		},
	}
}

// authoringDir is where new files go; embedded migrations are read-only
func (c *cli) authoringDir() string {
	if c.dir != "" {
		return c.dir
	}
	return defaultMigrationsDir
}

func (c *cli) openMigrator() (*migration.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	src := migration.Source{FS: migrations.FS}
	if c.dir != "" {
		abs, err := filepath.Abs(c.dir)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		src = migration.Source{Dir: abs}
	}
	c.log.Info("migration source", zap.String("path", src.Dir), zap.Bool("embedded", src.Dir == ""))

	m, err := migration.New(db, src, c.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}
