package fakeservice

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukex/flowstudio/pkg/models"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	stateInProgress = "STATE_IN_PROGRESS"
	stateSucceeded  = "STATE_SUCCEEDED"
	stateFailed     = "STATE_FAILED"
)

var (
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrInvalidPageToken  = errors.New("invalid page token")
	ErrMissingArgument   = errors.New("missing argument")
)

type execution struct {
	models.Execution

	steps     []models.Step
	next      int
	startedAt time.Time
	endedAt   time.Time
}

// store keeps workflows and their executions in memory.
type store struct {
	mu         sync.Mutex
	now        func() time.Time
	failStep   string
	workflows  map[string]*models.Workflow
	order      []string
	executions map[string][]*execution
}

func newStore(now func() time.Time, failStep string) *store {
	return &store{
		now:        now,
		failStep:   failStep,
		workflows:  map[string]*models.Workflow{},
		executions: map[string][]*execution{},
	}
}

func (s *store) create(req models.CreateWorkflowRequest) models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	workflow := &models.Workflow{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		WorkspaceID: req.WorkspaceID,
		Status:      models.WorkflowStatusDraft,
		Steps:       cloneSteps(req.Steps),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.workflows[workflow.ID] = workflow
	s.order = append(s.order, workflow.ID)

	return cloneWorkflow(workflow)
}

func (s *store) get(id string) (models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return models.Workflow{}, ErrWorkflowNotFound
	}

	return cloneWorkflow(workflow), nil
}

func (s *store) update(id string, req models.UpdateWorkflowRequest) (models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return models.Workflow{}, ErrWorkflowNotFound
	}

	workflow.Name = req.Name
	workflow.Description = req.Description
	workflow.WorkspaceID = req.WorkspaceID
	workflow.Steps = cloneSteps(req.Steps)

	if req.Status != "" {
		workflow.Status = req.Status
	}

	workflow.UpdatedAt = s.now().UTC()

	return cloneWorkflow(workflow), nil
}

func (s *store) delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[id]; !ok {
		return ErrWorkflowNotFound
	}

	delete(s.workflows, id)
	delete(s.executions, id)
	s.order = slices.DeleteFunc(s.order, func(other string) bool { return other == id })

	return nil
}

// search returns workflows in creation order. StartAfter is the id of the
// last workflow of the previous page.
func (s *store) search(req models.SearchWorkflowsRequest) models.WorkflowPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := clampPageSize(req.Limit)
	page := models.WorkflowPage{Data: []models.Workflow{}}

	started := req.StartAfter == ""

	for _, id := range s.order {
		if !started {
			started = id == req.StartAfter

			continue
		}

		workflow := s.workflows[id]
		if workflow.WorkspaceID != req.WorkspaceID {
			continue
		}

		if req.Name != "" && !strings.Contains(strings.ToLower(workflow.Name), strings.ToLower(req.Name)) {
			continue
		}

		if req.Status != "" && workflow.Status != req.Status {
			continue
		}

		if len(page.Data) == limit {
			page.NextPageCursor = page.Data[len(page.Data)-1].ID

			break
		}

		page.Data = append(page.Data, cloneWorkflow(workflow))
	}

	page.Count = len(page.Data)

	return page
}

// execute starts an execution of every non user-input step, in order.
func (s *store) execute(id string, args map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return "", ErrWorkflowNotFound
	}

	var steps []models.Step

	for _, step := range workflow.Steps {
		if step.Type == models.StepTypeUserInput {
			for name := range step.Outputs {
				if strings.TrimSpace(args[name]) == "" {
					return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
				}
			}

			continue
		}

		steps = append(steps, step.Clone())
	}

	exec := &execution{
		Execution: models.Execution{
			ID:          uuid.NewString(),
			State:       string(models.ExecutionStateActive),
			StepEntries: []models.StepEntry{},
		},
		steps:     steps,
		startedAt: s.now().UTC(),
	}

	s.executions[id] = append(s.executions[id], exec)

	return exec.ID, nil
}

// advance returns the execution after moving it one step forward.
func (s *store) advance(workflowID, executionID string) (models.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec := s.findExecution(workflowID, executionID)
	if exec == nil {
		return models.Execution{}, ErrExecutionNotFound
	}

	s.step(exec)

	return cloneExecution(&exec.Execution), nil
}

func (s *store) step(exec *execution) {
	if exec.NormalizedState().IsTerminal() {
		return
	}

	now := s.now().UTC()

	if n := len(exec.StepEntries); n > 0 && exec.StepEntries[n-1].State == stateInProgress {
		entry := &exec.StepEntries[n-1]
		step := exec.steps[exec.next]
		entry.EndTime = now.Format(time.RFC3339)
		exec.next++

		if step.StepID == s.failStep {
			entry.State = stateFailed
			exec.finish(models.ExecutionStateFailed, now)
			exec.Error = fmt.Sprintf("step %s failed", step.StepID)

			return
		}

		entry.State = stateSucceeded
		entry.StepOutputs = fakeOutputs(exec.ID, step)

		if exec.next == len(exec.steps) {
			exec.finish(models.ExecutionStateSucceeded, now)
		}

		return
	}

	if exec.next == len(exec.steps) {
		exec.finish(models.ExecutionStateSucceeded, now)

		return
	}

	step := exec.steps[exec.next]

	inputs, _ := json.Marshal(step.Inputs)
	exec.StepEntries = append(exec.StepEntries, models.StepEntry{
		StepID:     step.StepID,
		State:      stateInProgress,
		StepInputs: inputs,
		StartTime:  now.Format(time.RFC3339),
	})
}

func (e *execution) finish(state models.ExecutionState, at time.Time) {
	e.State = string(state)
	e.endedAt = at
	e.Duration = at.Sub(e.startedAt).Seconds()

	if state == models.ExecutionStateSucceeded {
		outputs := map[string]json.RawMessage{}
		for _, entry := range e.StepEntries {
			for name, value := range entry.ReportedOutputs() {
				outputs[entry.StepID+"."+name] = value
			}
		}

		e.Result, _ = json.Marshal(outputs)
	}
}

// list returns executions newest first. The page token is an encoded offset.
func (s *store) list(workflowID string, query models.ListExecutionsQuery) (models.ExecutionPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[workflowID]; !ok {
		return models.ExecutionPage{}, ErrWorkflowNotFound
	}

	offset, err := decodePageToken(query.PageToken)
	if err != nil {
		return models.ExecutionPage{}, err
	}

	all := s.executions[workflowID]
	matching := make([]*execution, 0, len(all))

	for i := len(all) - 1; i >= 0; i-- {
		if query.Status != "" && all[i].NormalizedState() != models.NormalizeExecutionState(query.Status) {
			continue
		}

		matching = append(matching, all[i])
	}

	page := models.ExecutionPage{Executions: []models.ExecutionSummary{}}
	if offset >= len(matching) {
		return page, nil
	}

	end := min(offset+clampPageSize(query.PageSize), len(matching))
	for _, exec := range matching[offset:end] {
		page.Executions = append(page.Executions, exec.summary())
	}

	if end < len(matching) {
		page.NextPageToken = encodePageToken(end)
	}

	return page, nil
}

func (e *execution) summary() models.ExecutionSummary {
	summary := models.ExecutionSummary{
		ID:        e.ID,
		State:     e.State,
		StartTime: e.startedAt.Format(time.RFC3339),
		Duration:  e.Duration,
	}

	if !e.endedAt.IsZero() {
		summary.EndTime = e.endedAt.Format(time.RFC3339)
	}

	return summary
}

func (s *store) findExecution(workflowID, executionID string) *execution {
	for _, exec := range s.executions[workflowID] {
		if exec.ID == executionID {
			return exec
		}
	}

	return nil
}

func fakeOutputs(executionID string, step models.Step) json.RawMessage {
	outputs := make(map[string]string, len(step.Outputs))

	for name, output := range step.Outputs {
		switch output.Type {
		case "image":
			outputs[name] = fmt.Sprintf("gs://flowstudio-fake/%s/%s/%s.png", executionID, step.StepID, name)
		case "video":
			outputs[name] = fmt.Sprintf("gs://flowstudio-fake/%s/%s/%s.mp4", executionID, step.StepID, name)
		case "audio":
			outputs[name] = fmt.Sprintf("gs://flowstudio-fake/%s/%s/%s.wav", executionID, step.StepID, name)
		default:
			outputs[name] = fmt.Sprintf("%s output of %s", name, step.StepID)
		}
	}

	raw, _ := json.Marshal(outputs)

	return raw
}

func clampPageSize(size int) int {
	switch {
	case size <= 0:
		return defaultPageSize
	case size > maxPageSize:
		return maxPageSize
	default:
		return size
	}
}

func encodePageToken(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte("offset:" + strconv.Itoa(offset)))
}

func decodePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidPageToken
	}

	offset, err := strconv.Atoi(strings.TrimPrefix(string(raw), "offset:"))
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}

func cloneSteps(steps []models.Step) []models.Step {
	cloned := make([]models.Step, 0, len(steps))
	for _, step := range steps {
		cloned = append(cloned, step.Clone())
	}

	return cloned
}

func cloneWorkflow(workflow *models.Workflow) models.Workflow {
	clone := *workflow
	clone.Steps = cloneSteps(workflow.Steps)

	return clone
}

func cloneExecution(exec *models.Execution) models.Execution {
	clone := *exec
	clone.Result = slices.Clone(exec.Result)
	clone.StepEntries = slices.Clone(exec.StepEntries)

	return clone
}
