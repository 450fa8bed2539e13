package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dukex/flowstudio/pkg/history"
	cli "github.com/urfave/cli/v3"
)

var errExecutionIDRequired = errors.New("workflow id and execution id are required")

func executionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "executions",
		Aliases: []string{"ex"},
		Usage:   "Inspect past executions",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the executions of a workflow, newest first",
				ArgsUsage: "<workflow-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "State filter (ALL, SUCCEEDED, FAILED, ...)", Value: history.StatusAll},
					&cli.IntFlag{Name: "pages", Usage: "How many pages to load", Value: 1},
				},
				Action: listExecutions,
			},
			{
				Name:      "show",
				Usage:     "Print the step entries of an execution",
				ArgsUsage: "<workflow-id> <execution-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "data", Usage: "Also print step inputs and outputs"},
				},
				Action: showExecution,
			},
		},
	}
}

func listExecutions(ctx context.Context, command *cli.Command) error {
	rt, err := setup(ctx, command, "studio-history")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	workflowID := command.Args().First()
	if workflowID == "" {
		return errWorkflowIDRequired
	}

	h := history.NewHistory(rt.client, workflowID, rt.logger)
	if err := h.SetStatusFilter(ctx, command.String("status")); err != nil {
		return err
	}

	for page := 1; page < command.Int("pages") && h.HasMore(); page++ {
		if err := h.LoadMore(ctx); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tSTARTED\tDURATION")

	for _, execution := range h.Executions() {
		state := execution.NormalizedState()
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%.1fs\n", execution.ID, state.Tone().Icon(), state, execution.StartTime, execution.Duration)
	}

	if h.HasMore() {
		fmt.Fprintln(w, "...\tmore available")
	}

	return w.Flush()
}

func showExecution(ctx context.Context, command *cli.Command) error {
	rt, err := setup(ctx, command, "studio-history")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	workflowID, executionID := command.Args().Get(0), command.Args().Get(1)
	if workflowID == "" || executionID == "" {
		return errExecutionIDRequired
	}

	details := history.NewDetails(rt.client, rt.logger)
	if err := details.Load(ctx, workflowID, executionID); err != nil {
		return err
	}

	execution, _ := details.Execution()
	state := execution.NormalizedState()

	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Execution:\t%s\t%s\t%.1fs\n", execution.ID, state, execution.Duration)

	if execution.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", execution.Error)
	}

	for _, entry := range execution.StepEntries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.StepID, entry.State, entry.StartTime, entry.EndTime)

		if !command.Bool("data") {
			continue
		}

		if history.HasData(entry.StepInputs) {
			fmt.Fprintf(w, "\t  inputs\t%s\n", entry.StepInputs)
		}

		if history.HasData(entry.StepOutputs) {
			fmt.Fprintf(w, "\t  outputs\t%s\n", entry.StepOutputs)
		}
	}

	return w.Flush()
}
