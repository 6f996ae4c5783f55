package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
)

// MockService is a mock implementation of appmatrix.Service.
type MockService struct {
	mock.Mock
}

func (m *MockService) Aggregate(ctx context.Context, resp materiality.QuestionResponse) (materiality.QuestionResponse, error) {
	args := m.Called(ctx, resp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(materiality.QuestionResponse), args.Error(1)
}

func (m *MockService) Build(ctx context.Context, req *appmatrix.BuildRequest) (*appmatrix.BuildResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmatrix.BuildResponse), args.Error(1)
}

func (m *MockService) GetDashboard(ctx context.Context, clientID int64, year int) (*materiality.StoredDashboard, error) {
	args := m.Called(ctx, clientID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*materiality.StoredDashboard), args.Error(1)
}

func (m *MockService) SaveDashboard(ctx context.Context, payload *materiality.DashboardPayload) (int64, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockService) GetSelection(ctx context.Context, sessionID string, clientID int64, year int) (*appmatrix.SelectionView, error) {
	args := m.Called(ctx, sessionID, clientID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmatrix.SelectionView), args.Error(1)
}

func (m *MockService) ToggleGroup(ctx context.Context, req *appmatrix.ToggleRequest) (*appmatrix.SelectionView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmatrix.SelectionView), args.Error(1)
}

func (m *MockService) SetGroupVisibility(ctx context.Context, req *appmatrix.VisibilityRequest) (*appmatrix.SelectionView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmatrix.SelectionView), args.Error(1)
}

func (m *MockService) CommitVisibility(ctx context.Context, sessionID string, clientID int64, year int) (*appmatrix.CommitResult, error) {
	args := m.Called(ctx, sessionID, clientID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmatrix.CommitResult), args.Error(1)
}

func (m *MockService) BuildForSession(ctx context.Context, sessionID string, clientID int64, year int, opts materiality.PlotOptions) (*appmatrix.MatrixView, error) {
	args := m.Called(ctx, sessionID, clientID, year, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmatrix.MatrixView), args.Error(1)
}

func (m *MockService) ExportSnapshot(ctx context.Context, req *appmatrix.ExportRequest) (*appmatrix.ExportResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmatrix.ExportResult), args.Error(1)
}

func (m *MockService) ListSnapshots(ctx context.Context, clientID int64, year int, limit int) ([]*materiality.Snapshot, error) {
	args := m.Called(ctx, clientID, year, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*materiality.Snapshot), args.Error(1)
}

func (m *MockService) DefaultOptions() materiality.PlotOptions {
	return materiality.DefaultPlotOptions()
}
