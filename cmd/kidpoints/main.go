package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/kidpoints/internal/cli"
	"github.com/dukerupert/kidpoints/internal/config"
	"github.com/dukerupert/kidpoints/internal/database"
	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/logging"
	"github.com/dukerupert/kidpoints/internal/store"
)

var version = "dev"

var CLI struct {
	Version   kong.VersionFlag
	Config    kong.ConfigFlag `help:"TOML config file." env:"KIDPOINTS_CONFIG"`
	DBPath    string          `name:"db-path" help:"SQLite database path." default:"kidpoints.db" env:"KIDPOINTS_DB_PATH"`
	LogLevel  string          `name:"log-level" help:"Log level (debug, info, warn, error)." default:"info" env:"KIDPOINTS_LOG_LEVEL"`
	LogFormat string          `name:"log-format" help:"Log format." enum:"text,json" default:"text" env:"KIDPOINTS_LOG_FORMAT"`

	Backup cli.BackupFlags `embed:"" prefix:"backup-"`

	Serve       cli.ServeCmd       `cmd:"" help:"Run the HTTP and websocket server." default:"1"`
	Password    cli.PasswordCmd    `cmd:"" help:"Set the admin password."`
	Reset       cli.ResetDataCmd   `cmd:"" help:"Wipe all household data except the admin password."`
	Leaderboard cli.LeaderboardCmd `cmd:"" help:"Print members ranked by points."`
	Tasks       struct {
		Reset cli.TasksResetCmd `cmd:"" help:"Reopen daily or weekly tasks, or restore the starter board."`
	} `cmd:"" help:"Manage tasks."`
	BackupCmd struct {
		Run     cli.BackupRunCmd     `cmd:"" help:"Upload a backup now."`
		List    cli.BackupListCmd    `cmd:"" help:"List uploaded backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore an uploaded backup."`
		Export  cli.BackupExportCmd  `cmd:"" help:"Write an encrypted backup to a file."`
		Import  cli.BackupImportCmd  `cmd:"" help:"Restore an encrypted backup file."`
	} `cmd:"" name:"backup" help:"Manage encrypted backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("kidpoints"),
		kong.Description("Household chores, points and rewards"),
		kong.UsageOnError(),
		kong.Configuration(config.TOML, "/etc/kidpoints/kidpoints.toml", "~/.config/kidpoints/kidpoints.toml"),
		kong.Vars{"version": version},
	)

	logger := logging.Setup(CLI.LogLevel, CLI.LogFormat)

	db, err := database.Open(CLI.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	hh := household.Open(store.NewSQLiteKV(db), household.Options{Logger: logger})
	if err := hh.Load(); err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Error: load household: %v\n", err)
		os.Exit(1)
	}

	appCtx := &cli.Context{
		Logger:    logger,
		Household: hh,
		Backup:    CLI.Backup.Config(),
	}

	err = ctx.Run(appCtx)
	db.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
