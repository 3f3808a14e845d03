package main

import (
	"log/slog"

	cli "github.com/urfave/cli/v3"

	"github.com/webpilot-io/webpilot/pkg/app"
	"github.com/webpilot-io/webpilot/pkg/config"
	"github.com/webpilot-io/webpilot/pkg/log"
	"github.com/webpilot-io/webpilot/pkg/persistence/file"
)

// globalFlags are shared by every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file",
			Value:   "",
			Sources: cli.EnvVars("WEBPILOT_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "Directory holding automations, schedules and logs",
			Value:   "",
			Sources: cli.EnvVars("WEBPILOT_DATA_DIR"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

// loadConfig resolves the effective configuration: file values first, then
// command line and environment overrides on top.
func loadConfig(command *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if path := command.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	if dataDir := command.String("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if logLevel := command.String("log-level"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

// bootstrap wires the shared pieces every subcommand needs.
func bootstrap(command *cli.Command, module string) (*config.Config, *file.Persistence, *app.Service, *slog.Logger, error) {
	cfg, err := loadConfig(command)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithModule(module)

	store := file.NewPersistence(cfg.DataDir)
	service := app.NewService(cfg, store, logger)

	return cfg, store, service, logger, nil
}
