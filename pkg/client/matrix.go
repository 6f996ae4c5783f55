package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
)

// MatrixClient calls the stateless pipeline endpoints.
type MatrixClient struct {
	client *Client
}

type aggregateBody struct {
	QuestionResponse materiality.QuestionResponse `json:"question_response"`
}

// Aggregate averages every answer list of resp.
func (m *MatrixClient) Aggregate(ctx context.Context, resp materiality.QuestionResponse) (materiality.QuestionResponse, error) {
	var out aggregateBody
	if err := m.client.do(ctx, http.MethodPost, "/matrix/aggregate", nil, aggregateBody{QuestionResponse: resp}, &out); err != nil {
		return nil, err
	}
	return out.QuestionResponse, nil
}

// Build runs the full pipeline over the request without stored state.
func (m *MatrixClient) Build(ctx context.Context, req *appmatrix.BuildRequest) (*appmatrix.BuildResponse, error) {
	var out appmatrix.BuildResponse
	if err := m.client.do(ctx, http.MethodPost, "/matrix/build", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatrixQuery selects the session and plot overrides of a session build or
// export.  Nil fields keep the server defaults.
type MatrixQuery struct {
	SessionID      string
	JitterAmount   *float64
	QuadrantLabels *bool
	Title          string
}

func (q MatrixQuery) values() url.Values {
	v := url.Values{}
	if q.SessionID != "" {
		v.Set("session", q.SessionID)
	}
	if q.JitterAmount != nil {
		v.Set("jitter", strconv.FormatFloat(*q.JitterAmount, 'f', -1, 64))
	}
	if q.QuadrantLabels != nil {
		v.Set("quadrant_labels", strconv.FormatBool(*q.QuadrantLabels))
	}
	if q.Title != "" {
		v.Set("title", q.Title)
	}
	return v
}

// DashboardsClient calls the stored dashboard endpoints.
type DashboardsClient struct {
	client *Client
}

// SaveResult is the response of Put.
type SaveResult struct {
	ClientID int64 `json:"client_id"`
	Year     int   `json:"year"`
	Version  int64 `json:"version"`
}

// Get loads the stored dashboard.
func (d *DashboardsClient) Get(ctx context.Context, clientID int64, year int) (*materiality.StoredDashboard, error) {
	var out materiality.StoredDashboard
	if err := d.client.do(ctx, http.MethodGet, dashboardPath(clientID, year), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Put stores payload under its client and year.
func (d *DashboardsClient) Put(ctx context.Context, payload *materiality.DashboardPayload) (*SaveResult, error) {
	var out SaveResult
	path := dashboardPath(payload.Client.ID, payload.Year)
	if err := d.client.do(ctx, http.MethodPut, path, nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Matrix builds the matrix of a session.
func (d *DashboardsClient) Matrix(ctx context.Context, clientID int64, year int, q MatrixQuery) (*appmatrix.MatrixView, error) {
	var out appmatrix.MatrixView
	if err := d.client.do(ctx, http.MethodGet, dashboardPath(clientID, year)+"/matrix", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSnapshot exports the session matrix as a snapshot.
func (d *DashboardsClient) CreateSnapshot(ctx context.Context, clientID int64, year int, q MatrixQuery) (*appmatrix.ExportResult, error) {
	var out appmatrix.ExportResult
	if err := d.client.do(ctx, http.MethodPost, dashboardPath(clientID, year)+"/snapshots", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSnapshots lists the newest snapshots of a dashboard.  limit 0 uses
// the server default.
func (d *DashboardsClient) ListSnapshots(ctx context.Context, clientID int64, year int, limit int) ([]*materiality.Snapshot, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out struct {
		Snapshots []*materiality.Snapshot `json:"snapshots"`
	}
	if err := d.client.do(ctx, http.MethodGet, dashboardPath(clientID, year)+"/snapshots", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Snapshots, nil
}
