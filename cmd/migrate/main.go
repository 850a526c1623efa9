// Command migrate manages the Mayavriksh PostgreSQL schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/mayavriksh/backend/internal/infrastructure/logger"
	"github.com/mayavriksh/backend/internal/infrastructure/migration"
	"github.com/mayavriksh/backend/migrations"
	"go.uber.org/zap"
)

// cli is the state shared by every command
type cli struct {
	log      *zap.Logger
	cfg      *config.Config
	dir      string
	source   fs.FS
	wait     time.Duration
	migrator *migration.Migrator
}

type command struct {
	usage   string
	args    int
	needsDB bool
	run     func(c *cli, args []string) error
}

var commands = map[string]command{
	"up":      {usage: "up", needsDB: true, run: func(c *cli, _ []string) error { return c.migrator.Up() }},
	"down":    {usage: "down", needsDB: true, run: func(c *cli, _ []string) error { return c.migrator.Down() }},
	"step":    {usage: "step <n>", args: 1, needsDB: true, run: runStep},
	"goto":    {usage: "goto <version>", args: 1, needsDB: true, run: runGoto},
	"version": {usage: "version", needsDB: true, run: runVersion},
	"status":  {usage: "status", needsDB: true, run: runStatus},
	"force":   {usage: "force <version>", args: 1, needsDB: true, run: runForce},
	"drop":    {usage: "drop -confirm", needsDB: true, run: runDrop},
	"create":  {usage: "create <name> [description]", args: 1, run: runCreate},
	"list":    {usage: "list", run: runList},
}

func main() {
	var (
		dir      string
		logLevel string
		wait     time.Duration
	)
	flag.StringVar(&dir, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&wait, "wait", 0, "Keep retrying the database connection for this long")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	if len(args)-1 < cmd.args {
		fmt.Fprintf(os.Stderr, "usage: migrate %s\n", cmd.usage)
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	c := &cli{log: log, dir: dir, source: migrations.FS, wait: wait}
	if dir != "" {
		c.source = os.DirFS(dir)
	}

	err = c.execute(args[0], cmd, args[1:])
	_ = log.Sync()
	if err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func (c *cli) execute(name string, cmd command, args []string) error {
	source := "embedded"
	if c.dir != "" {
		source = c.dir
	}
	c.log.Info("Migration CLI started", zap.String("command", name), zap.String("source", source))

	if !cmd.needsDB {
		return cmd.run(c, args)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("versioned migrations target postgres, got driver %q; sqlite schemas are auto-migrated by the server", cfg.Database.Driver)
	}
	c.cfg = cfg

	db, err := c.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	c.migrator, err = migration.New(db, c.source, c.log)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer c.migrator.Close()

	return cmd.run(c, args)
}

// connect opens the database, retrying the ping for up to -wait so the tool
// can run as an init job next to a starting database.
func (c *cli) connect() (*sql.DB, error) {
	db, err := sql.Open("postgres", c.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.wait > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.MaxElapsedTime = c.wait
		policy = eb
	}
	notify := func(err error, next time.Duration) {
		c.log.Warn("Database not reachable, retrying", zap.Error(err), zap.Duration("retry_in", next))
	}
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func runStep(c *cli, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n == 0 {
		return fmt.Errorf("invalid step count %q", args[0])
	}
	return c.migrator.Steps(n)
}

func runGoto(c *cli, args []string) error {
	version, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid version %q", args[0])
	}
	return c.migrator.GoTo(uint(version))
}

func runVersion(c *cli, _ []string) error {
	version, dirty, err := c.migrator.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		c.log.Info("No migrations applied")
		return nil
	}
	c.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// runStatus prints every known migration and whether it is applied.
func runStatus(c *cli, _ []string) error {
	version, dirty, err := c.migrator.Version()
	if err != nil {
		return err
	}
	names, err := migration.ListMigrations(c.source)
	if err != nil {
		return err
	}
	for _, name := range names {
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		state := "pending"
		switch {
		case err != nil:
			state = "unknown"
		case uint(v) == version && dirty:
			state = "dirty"
		case uint(v) <= version:
			state = "applied"
		}
		fmt.Printf("  %-8s %s\n", state, name)
	}
	return nil
}

func runForce(c *cli, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[0])
	}
	c.log.Warn("Forcing migration version", zap.Int("version", version))
	return c.migrator.Force(version)
}

func runDrop(c *cli, args []string) error {
	if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
		return errors.New("drop removes every database object; rerun as 'migrate drop -confirm'")
	}
	c.log.Warn("Dropping all database objects", zap.String("database", c.cfg.Database.DBName))
	return c.migrator.Drop()
}

func runCreate(c *cli, args []string) error {
	if c.dir == "" {
		return errors.New("create writes files and needs -path, e.g. migrate -path ./migrations create <name>")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(c.dir, args[0], description)
	if err != nil {
		return err
	}
	c.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func runList(c *cli, _ []string) error {
	names, err := migration.ListMigrations(c.source)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		c.log.Info("No migrations found")
		return nil
	}
	c.log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Mayavriksh schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the current version
  status                List migrations with their applied state
  force <version>       Set the version without running migrations
  drop -confirm         Drop every database object
  create <name> [desc]  Write a new up/down pair (requires -path)
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: the set embedded in the binary)
  -log-level string     debug, info, warn or error (default: info)
  -wait duration        Retry the database connection for this long (default: 0)

The database is read from MAYA_DATABASE_HOST, MAYA_DATABASE_PORT,
MAYA_DATABASE_USER, MAYA_DATABASE_PASSWORD, MAYA_DATABASE_DBNAME and
MAYA_DATABASE_SSLMODE.
`)
}
