package mocks

import (
	"context"

	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/editor"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockWorkflowService is a mock implementation of editor.WorkflowService interface.
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowService) CreateWorkflow(ctx context.Context, req models.CreateWorkflowRequest) (*models.Workflow, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowService) UpdateWorkflow(ctx context.Context, id string, req models.UpdateWorkflowRequest) (*models.Workflow, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowService) ExecuteWorkflow(ctx context.Context, id string, params map[string]string) (string, error) {
	args := m.Called(ctx, id, params)

	return args.String(0), args.Error(1)
}

func (m *MockWorkflowService) GetExecution(ctx context.Context, workflowID, executionID string) (*models.Execution, error) {
	args := m.Called(ctx, workflowID, executionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockWorkflowService) ListExecutions(ctx context.Context, workflowID string, query models.ListExecutionsQuery) (*models.ExecutionPage, error) {
	args := m.Called(ctx, workflowID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ExecutionPage), args.Error(1)
}

// MockNavigator is a mock implementation of editor.Navigator interface.
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Replace(route editor.Route) {
	m.Called(route)
}

// MockParameterPrompt is a mock implementation of editor.ParameterPrompt interface.
type MockParameterPrompt struct {
	mock.Mock
}

func (m *MockParameterPrompt) CollectParameters(ctx context.Context, definitions []document.OutputDefinition) (map[string]string, error) {
	args := m.Called(ctx, definitions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]string), args.Error(1)
}
