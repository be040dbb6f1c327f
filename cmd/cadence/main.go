package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/cli/backups"
	"github.com/julianstephens/cadence/internal/cli/habits"
	"github.com/julianstephens/cadence/internal/cli/reports"
	"github.com/julianstephens/cadence/internal/cli/system"
	"github.com/julianstephens/cadence/internal/cli/tasks"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	DB         string `name:"db" help:"SQLite file path or PostgreSQL connection string. Passwords must not be embedded; use the keyring, PGPASSWORD or .pgpass." env:"CADENCE_DB"`
	ConfigFile string `help:"YAML config file." type:"path" env:"CADENCE_CONFIG"`
	EnvFile    string `help:".env file to load." type:"path"`
	Debug      bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize cadence storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Habit   habits.HabitCmd   `cmd:"" help:"Manage habits."`
	Task    tasks.TaskCmd     `cmd:"" help:"List and complete tasks."`
	Sync    system.SyncCmd    `cmd:"" help:"Archive finished batches and refill habits."`
	Report  reports.ReportCmd `cmd:"" help:"Streaks and archived batches."`
	Backup  backups.BackupCmd `cmd:"" help:"Manage database backups."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Seed    system.SeedCmd    `cmd:"" help:"Fill the database with generated demo history."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the JSON API."`
}

// unloaded commands open the database themselves or never touch it
var unloaded = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Periodic habit tracker with streaks and archived reports"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(config.Overrides{
		Database:   CLI.DB,
		ConfigFile: CLI.ConfigFile,
		Debug:      CLI.Debug,
		EnvFile:    CLI.EnvFile,
	})
	if err != nil {
		errors.Fatal(err)
	}

	database, fromKeyring, err := cli.ResolveDatabase(cfg)
	if err != nil {
		errors.Fatal(err)
	}
	cfg.Database = database

	configDir, err := config.ConfigDir(database)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: configDir,
		LogDir:    cfg.LogDir,
		Level:     cfg.LogLevel,
	}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}
	logger.Debug("Starting", "version", constants.Version, "command", kctx.Command())

	store, err := cli.OpenStore(database, fromKeyring)
	if err != nil {
		errors.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	command := strings.Fields(kctx.Command())[0]
	if !unloaded[command] {
		if err := store.Load(ctx); err != nil {
			stop()
			errors.Fatal(err)
		}
	}

	err = kctx.Run(cli.NewContext(ctx, store, cfg))
	stop()
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close database", "error", cerr)
	}
	errors.Fatal(err)
}
