package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"
)

// NewRunCommand executes one automation to completion and reports the outcome.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute one automation immediately",
		ArgsUsage: "<automation-id>",
		Flags: append(globalFlags(),
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Force headless mode for this run",
			},
			&cli.BoolFlag{
				Name:  "windowed",
				Usage: "Force windowed mode for this run",
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return errors.New("automation id is required")
			}

			if command.Bool("headless") && command.Bool("windowed") {
				return errors.New("--headless and --windowed are mutually exclusive")
			}

			_, store, service, logger, err := bootstrap(command, "run")
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var headless *bool

			if command.Bool("headless") {
				v := true
				headless = &v
			} else if command.Bool("windowed") {
				v := false
				headless = &v
			}

			entry, err := service.RunAndLog(ctx, id, headless)
			if err != nil {
				return err
			}

			if !entry.Success {
				return fmt.Errorf("run %s failed: %s", entry.RunID, entry.Error)
			}

			logger.InfoContext(ctx, "Run finished",
				"run_id", entry.RunID,
				"steps_executed", entry.StepsExecuted,
				"steps_succeeded", entry.StepsSucceeded,
				"duration_ms", entry.DurationMS)

			return nil
		},
	}
}
