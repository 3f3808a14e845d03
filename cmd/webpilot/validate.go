package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/webpilot-io/webpilot/pkg/models"
)

// NewValidateCommand checks an automation document without storing or
// running it: graph consistency, schedule spec, and every step configuration
// against its registered schema.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate an automation JSON file",
		ArgsUsage: "<file>",
		Flags:     globalFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return errors.New("automation file is required")
			}

			_, store, service, logger, err := bootstrap(command, "validate")
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			var automation models.Automation
			if err := json.Unmarshal(data, &automation); err != nil {
				return fmt.Errorf("%s is not a valid automation document: %w", path, err)
			}

			if err := automation.Validate(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			for _, node := range automation.Nodes {
				if !node.IsStepNode() {
					continue
				}

				if _, err := service.Registry().Create(node.Step.Type, node.Step.Config); err != nil {
					return fmt.Errorf("%s: node %s: %w", path, node.ID, err)
				}
			}

			logger.InfoContext(ctx, "Automation is valid",
				"file", path,
				"automation_id", automation.ID,
				"nodes", len(automation.Nodes),
				"edges", len(automation.Edges))

			return nil
		},
	}
}
