// Package main provides the studio command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/flowstudio/pkg/config"
	cli "github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "studio:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:                  "studio",
		Usage:                 "Build, run and inspect generative media workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML config file",
				Sources: cli.EnvVars("STUDIO_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the workflow service",
				Value:   config.DefaultAPIURL,
				Sources: cli.EnvVars("STUDIO_API_URL"),
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token forwarded to the workflow service",
				Sources: cli.EnvVars("STUDIO_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "workspace-id",
				Usage:   "Workspace new workflows are created in",
				Sources: cli.EnvVars("STUDIO_WORKSPACE_ID"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   config.DefaultLogLevel,
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   config.DefaultLogFormat,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   config.DefaultEventBus,
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often a running execution is polled",
				Value:   config.DefaultPollInterval,
				Sources: cli.EnvVars("STUDIO_POLL_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("STUDIO_TRACING"),
			},
		},
		Commands: []*cli.Command{
			workflowCommand(),
			executionsCommand(),
			catalogCommand(),
			fakeServiceCommand(),
		},
	}
}
