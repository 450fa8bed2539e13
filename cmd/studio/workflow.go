package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dukex/flowstudio/pkg/catalog"
	"github.com/dukex/flowstudio/pkg/cmd"
	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/editor"
	"github.com/dukex/flowstudio/pkg/events"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/dukex/flowstudio/pkg/notify"
	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"
)

var (
	errWorkflowIDRequired = errors.New("workflow id is required")
	errInvalidParam       = errors.New("parameters must look like name=value")
	errExecutionFailed    = errors.New("execution did not succeed")
)

func workflowCommand() *cli.Command {
	return &cli.Command{
		Name:    "workflow",
		Aliases: []string{"wf"},
		Usage:   "Manage workflows",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print a workflow",
				ArgsUsage: "<workflow-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the raw workflow as JSON"},
				},
				Action: showWorkflow,
			},
			{
				Name:  "save",
				Usage: "Create or update a workflow from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Workflow JSON file", Required: true},
				},
				Action: saveWorkflow,
			},
			{
				Name:      "run",
				Usage:     "Run a saved workflow",
				ArgsUsage: "<workflow-id>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "param", Aliases: []string{"p"}, Usage: "User input value as name=value"},
					&cli.BoolFlag{Name: "no-wait", Usage: "Return once the execution has started"},
				},
				Action: runWorkflow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a workflow",
				ArgsUsage: "<workflow-id>",
				Action:    deleteWorkflow,
			},
			{
				Name:  "search",
				Usage: "Search the workflows of the workspace",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Name filter"},
					&cli.StringFlag{Name: "status", Usage: "Status filter (draft, published)"},
					&cli.IntFlag{Name: "limit", Usage: "Page size", Value: 20},
					&cli.StringFlag{Name: "start-after", Usage: "Cursor returned by a previous search"},
				},
				Action: searchWorkflows,
			},
		},
	}
}

func showWorkflow(ctx context.Context, command *cli.Command) error {
	rt, err := setup(ctx, command, "studio-workflow")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	workflowID := command.Args().First()
	if workflowID == "" {
		return errWorkflowIDRequired
	}

	workflow, err := rt.client.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	if command.Bool("json") {
		return rt.printJSON(workflow)
	}

	doc := document.LoadFrom(*workflow)
	steps := catalog.Default()

	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Workflow:\t%s (%s)\n", doc.Name, doc.ID)
	fmt.Fprintf(w, "Status:\t%s\n", doc.Status)

	for _, def := range doc.OutputDefinitions {
		fmt.Fprintf(w, "User input:\t%s\t%s\n", def.Name, def.Type)
	}

	for i, step := range doc.Steps {
		title := string(step.Type)
		if cfg, ok := steps.Lookup(step.Type); ok {
			title = cfg.Title
		}

		fmt.Fprintf(w, "Step %d:\t%s\t%s\n", i+1, title, step.StepID)

		for _, name := range sortedKeys(step.Inputs) {
			fmt.Fprintf(w, "\t  %s\t%s\n", name, describeValue(step.Inputs[name]))
		}
	}

	return w.Flush()
}

func saveWorkflow(ctx context.Context, command *cli.Command) error {
	rt, err := setup(ctx, command, "studio-workflow")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	data, err := os.ReadFile(command.String("file"))
	if err != nil {
		return fmt.Errorf("read workflow file: %w", err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return fmt.Errorf("parse workflow file: %w", err)
	}

	doc := document.LoadFrom(workflow)
	if doc.Name == "" {
		doc.Name = document.DefaultName
	}

	if doc.WorkspaceID == "" {
		doc.WorkspaceID = rt.cfg.WorkspaceID
	}

	if err := doc.Validate(validator.New(validator.WithRequiredStructEnabled()), catalog.Default()); err != nil {
		return err
	}

	var saved *models.Workflow
	if doc.ID == "" {
		saved, err = rt.client.CreateWorkflow(ctx, doc.CreateRequest())
	} else {
		saved, err = rt.client.UpdateWorkflow(ctx, doc.ID, doc.UpdateRequest())
	}

	if err != nil {
		return err
	}

	rt.logger.InfoContext(ctx, "Workflow saved", "workflow_id", saved.ID)
	fmt.Fprintln(rt.out, saved.ID)

	return nil
}

func runWorkflow(ctx context.Context, command *cli.Command) error {
	rt, err := setup(ctx, command, "studio-run")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	workflowID := command.Args().First()
	if workflowID == "" {
		return errWorkflowIDRequired
	}

	params, err := parseParams(command.StringSlice("param"))
	if err != nil {
		return err
	}

	eventBus, err := cmd.NewEventBus(rt.cfg.EventBus, rt.cfg.KafkaBrokers, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			rt.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	finished := make(chan events.ExecutionFinished, 8)

	err = eventBus.Handle(events.ExecutionFinishedEvent, func(_ context.Context, event any) error {
		if f, ok := event.(*events.ExecutionFinished); ok && f.WorkflowID == workflowID {
			select {
			case finished <- *f:
			default:
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribe to events: %w", err)
	}

	e := editor.New(rt.client, catalog.Default(), rt.logger,
		editor.WithNotifier(notify.Multi{notify.NewLog(rt.logger), notify.NewBus(eventBus)}),
		editor.WithPollInterval(rt.cfg.PollInterval),
		editor.WithParameterPrompt(editor.StaticParameters(params)),
	)
	defer e.Close()

	if err := e.Open(ctx, editor.Route{WorkflowID: workflowID}); err != nil {
		return err
	}

	if err := e.Run(ctx); err != nil {
		return err
	}

	executionID := e.State().ExecutionID
	fmt.Fprintf(rt.out, "Execution %s started\n", executionID)

	if command.Bool("no-wait") {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-finished:
			if f.ExecutionID != executionID {
				continue
			}

			printRunResult(rt, e.State())

			if f.State != models.ExecutionStateSucceeded {
				return fmt.Errorf("%w: %s", errExecutionFailed, f.State)
			}

			return nil
		}
	}
}

func printRunResult(rt *runtime, state editor.State) {
	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Execution:\t%s\t%s\t%.1fs\n", state.ExecutionID, state.ExecutionState, state.ExecutionDuration)

	if state.ExecutionError != "" {
		fmt.Fprintf(w, "Error:\t%s\n", state.ExecutionError)
	}

	for i, step := range state.Document.Steps {
		fmt.Fprintf(w, "Step %d:\t%s\t%s\n", i+1, step.StepID, step.Status)

		for _, name := range sortedKeys(step.Outputs) {
			if output := step.Outputs[name]; output.HasValue() {
				fmt.Fprintf(w, "\t  %s\t%s\n", name, output.Value)
			}
		}
	}

	_ = w.Flush()
}

func deleteWorkflow(ctx context.Context, command *cli.Command) error {
	rt, err := setup(ctx, command, "studio-workflow")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	workflowID := command.Args().First()
	if workflowID == "" {
		return errWorkflowIDRequired
	}

	if err := rt.client.DeleteWorkflow(ctx, workflowID); err != nil {
		return err
	}

	rt.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", workflowID)

	return nil
}

func searchWorkflows(ctx context.Context, command *cli.Command) error {
	rt, err := setup(ctx, command, "studio-workflow")
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	page, err := rt.client.SearchWorkflows(ctx, models.SearchWorkflowsRequest{
		WorkspaceID: rt.cfg.WorkspaceID,
		Limit:       command.Int("limit"),
		StartAfter:  command.String("start-after"),
		Name:        command.String("name"),
		Status:      models.WorkflowStatus(command.String("status")),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(rt.out, 0, 0, 2, ' ', 0)
	for _, workflow := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", workflow.ID, workflow.Name, workflow.Status, workflow.UpdatedAt.Format("2006-01-02 15:04"))
	}

	if page.NextPageCursor != "" {
		fmt.Fprintf(w, "next:\t%s\n", page.NextPageCursor)
	}

	return w.Flush()
}

func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))

	for _, pair := range raw {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidParam, pair)
		}

		params[strings.TrimSpace(name)] = value
	}

	return params, nil
}
