// Package main provides the webpilot command line interface.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "webpilot",
		Usage:                 "Run and schedule browser automations",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewDaemonCommand(),
			NewRunCommand(),
			NewValidateCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
