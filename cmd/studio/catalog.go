package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dukex/flowstudio/pkg/catalog"
	"github.com/dukex/flowstudio/pkg/models"
	cli "github.com/urfave/cli/v3"
)

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:      "catalog",
		Usage:     "List the step types a workflow can use",
		ArgsUsage: "[step-type]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "schema", Usage: "Print the settings JSON schema of the step type"},
		},
		Action: showCatalog,
	}
}

func showCatalog(_ context.Context, command *cli.Command) error {
	steps := catalog.Default()
	out := command.Root().Writer

	stepType := command.Args().First()
	if stepType == "" {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, entry := range steps.Palette() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Type, entry.Title, entry.Description)
		}

		return w.Flush()
	}

	cfg, ok := steps.Lookup(models.StepType(stepType))
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrInvalidType, stepType)
	}

	rt := &runtime{out: out}
	if command.Bool("schema") {
		return rt.printJSON(cfg.SettingsSchema())
	}

	return rt.printJSON(cfg)
}
