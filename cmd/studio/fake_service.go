package main

import (
	"context"

	"github.com/dukex/flowstudio/pkg/fakeservice"
	"github.com/dukex/flowstudio/pkg/log"
	"github.com/dukex/flowstudio/pkg/metrics"
	cli "github.com/urfave/cli/v3"
)

const defaultFakeServicePort = 8080

func fakeServiceCommand() *cli.Command {
	return &cli.Command{
		Name:  "fake-service",
		Usage: "Serve an in-memory workflow service for demos and local development",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   defaultFakeServicePort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:  "fail-step",
				Usage: "Step id every execution fails at",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))
			logger := log.WithModule("fake-service")

			opts := []fakeservice.Option{fakeservice.WithMetrics(metrics.NewProm())}
			if step := command.String("fail-step"); step != "" {
				opts = append(opts, fakeservice.WithFailingStep(step))
			}

			err := fakeservice.New(logger, opts...).Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start fake workflow service", "error", err)
			}

			return err
		},
	}
}
