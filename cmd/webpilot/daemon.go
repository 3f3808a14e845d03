package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/webpilot-io/webpilot/pkg/scheduler"
	"github.com/webpilot-io/webpilot/pkg/web"
)

// NewDaemonCommand serves the HTTP API and keeps every enabled schedule armed
// until the process is told to stop.
func NewDaemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Serve the API and run enabled schedules",
		Flags: append(globalFlags(),
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Address to serve the API on",
				Value:   "",
				Sources: cli.EnvVars("WEBPILOT_LISTEN"),
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, store, service, logger, err := bootstrap(command, "daemon")
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			if listen := command.String("listen"); listen != "" {
				cfg.Listen = listen
			}

			sched := scheduler.NewScheduler(store, service, logger)
			if err := sched.ReplayAll(ctx); err != nil {
				return err
			}

			api := web.NewAPI(service, store, sched, logger)
			fiberApp := api.App()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				sig := <-signals
				logger.Info("Received signal, shutting down", "signal", sig)

				sched.Stop()

				if err := fiberApp.Shutdown(); err != nil {
					logger.Error("Failed to shut down API", "error", err)
				}
			}()

			logger.InfoContext(ctx, "Starting webpilot daemon", "listen", cfg.Listen, "data_dir", cfg.DataDir)

			return fiberApp.Listen(cfg.Listen)
		},
	}
}
