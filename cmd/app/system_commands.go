package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/finboard/finboard/cmd/app/commands"
	"github.com/finboard/finboard/internal/app"
	"github.com/finboard/finboard/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "verify-credentials",
			Usage: "Check that every stored access token opens with the configured encryption key",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   100,
					Usage:   "Number of items to load per batch",
				},
				&cli.BoolFlag{
					Name:    "mark-unusable",
					Aliases: []string{"m"},
					Value:   false,
					Usage:   "Flag items whose credentials fail to open so users are asked to relink",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				verifier, err := container.CredentialVerifier()
				if err != nil {
					return err
				}

				return commands.RunVerifyCredentials(
					ctx,
					verifier,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("batch-size")),
					cmd.Bool("mark-unusable"),
					cmd.String("format"),
				)
			},
		},
	}
}
