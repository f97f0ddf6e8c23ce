package main

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/cli/account"
	"github.com/julianstephens/ibadah/internal/cli/backups"
	"github.com/julianstephens/ibadah/internal/cli/system"
	"github.com/julianstephens/ibadah/internal/cli/worship"
	"github.com/julianstephens/ibadah/internal/config"
	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/errors"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/metrics"
	"github.com/julianstephens/ibadah/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Local journal path. A .json extension selects the JSON store." type:"path" default:"${config_path}"`
	Env     string `help:"Dotenv file with IBADAH_* settings." type:"path" default:".env"`
	Debug   bool   `help:"Log debug output to stderr."`
	Today   string `help:"Override today's date (YYYY-MM-DD)." hidden:""`

	Init    system.InitCmd     `cmd:"" help:"Initialize ibadah storage."`
	Tui     system.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve   system.ServeCmd    `cmd:"" help:"Serve a read-only JSON feed of local records."`
	Day     worship.DayCmd     `cmd:"" help:"Show the worship checklist for a day."`
	Toggle  worship.ToggleCmd  `cmd:"" help:"Check or uncheck a worship task."`
	Fast    worship.FastCmd    `cmd:"" help:"Mark a day as fasted or not fasted."`
	Streak  worship.StreakCmd  `cmd:"" help:"Show the current fasting streak."`
	History worship.HistoryCmd `cmd:"" help:"Show daily progress and fasting history."`
	Recap   worship.RecapCmd   `cmd:"" help:"Show the Ramadan recap."`
	Profile worship.ProfileCmd `cmd:"" help:"Show the profile overview and monthly breakdown."`
	Signin  account.SigninCmd  `cmd:"" help:"Sign in and sync with the remote store."`
	Signout account.SignoutCmd `cmd:"" help:"Sign out and clear local user data."`
	Sync    account.SyncCmd    `cmd:"" help:"Reconcile local records with the remote store."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage local journal backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the remote database URL or Firebase credentials in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored database URL with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a stored credential."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show keyring availability and which credentials are stored."`
	} `cmd:"" help:"Manage remote credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Ramadan worship and fasting tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
		},
	)

	cfg, err := config.Load(CLI.Env)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Dir(CLI.Config),
		Level:     cfg.LogLevel,
	}); err != nil {
		errors.Fatal(err)
	}

	store := newStore(cfg, CLI.Config)
	appCtx := &cli.Context{
		Store:   store,
		Config:  cfg,
		Metrics: metrics.New(),
		Today:   CLI.Today,
	}
	defer appCtx.Close()
	if err := appCtx.Validate(); err != nil {
		errors.Fatal(err)
	}

	// Keyring commands work without a journal; init opens its own.
	command := ctx.Command()
	if !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "keyring") {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close journal", "error", err)
		}
	}()

	err = ctx.Run(appCtx)
	appCtx.FlushMetrics()
	if err != nil {
		appCtx.Close()
		errors.Fatal(err)
	}
}

func newStore(cfg *config.Config, path string) storage.Provider {
	switch {
	case cfg.LocalBackend == config.LocalRedis:
		return storage.NewRedisStore(cfg.RedisURL, "")
	case cfg.LocalBackend == config.LocalJSON || strings.HasSuffix(path, ".json"):
		return storage.NewJSONStore(path)
	default:
		return storage.NewSQLiteStore(path)
	}
}
