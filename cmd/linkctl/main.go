// linkctl is the operator tool for the LinkPro analytics database
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"linkpro-analytics/internal/config"
	"linkpro-analytics/internal/repository/postgres"
	"linkpro-analytics/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Command is one linkctl subcommand
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, env *Env, args []string) error
}

// Env is what every command gets: configuration, a logger and an open pool
type Env struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *pgxpool.Pool
}

var commands = []Command{
	&CheckDBCommand{},
	&MigrateCommand{},
	&SeedCommand{},
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional YAML config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd := findCommand(flag.Arg(0))
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel)
	defer appLogger.Close()

	appLogger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.DBName,
		"user", cfg.Database.User,
	)
	db, err := postgres.InitDB(ctx, cfg.Database.DatabaseDSN(), cfg.Database.MaxConns, cfg.Database.MinConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	env := &Env{Config: cfg, Logger: appLogger, DB: db}
	if err := cmd.Execute(ctx, env, flag.Args()[1:]); err != nil {
		appLogger.Error("command failed", "command", cmd.Name(), "error", err)
		os.Exit(1)
	}
}

func findCommand(name string) Command {
	for _, c := range commands {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: linkctl [-config file.yaml] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.Name(), c.Description())
	}
}

// CheckDBCommand verifies connectivity and prints the server version
type CheckDBCommand struct{}

func (c *CheckDBCommand) Name() string        { return "check-db" }
func (c *CheckDBCommand) Description() string { return "Test the database connection" }

func (c *CheckDBCommand) Execute(ctx context.Context, env *Env, args []string) error {
	version, err := postgres.ServerVersion(ctx, env.DB)
	if err != nil {
		return err
	}
	fmt.Printf("Connected to %s\n%s\n", env.Config.Database.DBName, version)
	return nil
}

// MigrateCommand applies the embedded schema
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Create tables and indexes" }

func (c *MigrateCommand) Execute(ctx context.Context, env *Env, args []string) error {
	if err := postgres.Migrate(ctx, env.DB); err != nil {
		return err
	}
	env.Logger.Info("schema applied")
	return nil
}
