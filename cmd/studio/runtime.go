package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/dukex/flowstudio/pkg/channels/kafka"
	"github.com/dukex/flowstudio/pkg/client"
	"github.com/dukex/flowstudio/pkg/config"
	"github.com/dukex/flowstudio/pkg/log"
	"github.com/dukex/flowstudio/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "flowstudio"

// runtime is what every command needs once flags and the config file are merged.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	tracer   trace.Tracer
	shutdown otelhelper.Shutdown
	client   *client.Client
	out      io.Writer
}

func setup(ctx context.Context, command *cli.Command, module string) (*runtime, error) {
	cfg, err := loadConfig(command)
	if err != nil {
		return nil, err
	}

	log.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := log.WithModule(module)

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		tracer:   otelhelper.NoopTracer(),
		shutdown: func(context.Context) error { return nil },
		out:      command.Root().Writer,
	}

	if cfg.Tracing {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to set up tracing, continuing without it", "error", err)
		} else {
			rt.tracer = tracer
			rt.shutdown = shutdown
		}
	}

	rt.client = client.New(cfg.APIURL,
		client.WithAuthToken(cfg.AuthToken),
		client.WithTracer(rt.tracer),
		client.WithLogger(logger),
	)

	return rt, nil
}

// loadConfig reads the config file and lets explicitly set flags and
// environment variables override it.
func loadConfig(command *cli.Command) (config.Config, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return cfg, err
	}

	overrideString(command, "api-url", &cfg.APIURL)
	overrideString(command, "auth-token", &cfg.AuthToken)
	overrideString(command, "workspace-id", &cfg.WorkspaceID)
	overrideString(command, "log-level", &cfg.LogLevel)
	overrideString(command, "log-format", &cfg.LogFormat)
	overrideString(command, "event-bus", &cfg.EventBus)

	if command.IsSet("kafka-brokers") {
		cfg.KafkaBrokers = kafka.ParseBrokers(command.String("kafka-brokers"))
	}

	if command.IsSet("poll-interval") {
		cfg.PollInterval = command.Duration("poll-interval")
	}

	if command.IsSet("tracing") {
		cfg.Tracing = command.Bool("tracing")
	}

	return cfg, cfg.Validate()
}

func overrideString(command *cli.Command, name string, target *string) {
	if command.IsSet(name) {
		*target = command.String(name)
	}
}

func (rt *runtime) close(ctx context.Context) {
	if err := rt.shutdown(ctx); err != nil {
		rt.logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
	}
}

func (rt *runtime) printJSON(v any) error {
	encoder := json.NewEncoder(rt.out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
