package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", WithRetryWait(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
	_, err = NewClient("::bad")
	assert.Error(t, err)

	c, err := NewClient("https://esg.example.com/", WithUserAgent("tests/1"), WithRetryMax(0))
	require.NoError(t, err)
	assert.Equal(t, "https://esg.example.com", c.baseURL)
	assert.Equal(t, "tests/1", c.userAgent)
	assert.Equal(t, 0, c.retryMax)
	assert.Same(t, c.Matrix(), c.Matrix())
	assert.Same(t, c.Sessions(), c.Sessions())
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	c, err := NewClient("http://localhost",
		WithRetryMax(-1),
		WithRetryWait(0, time.Second),
		WithUserAgent(""),
		WithLogger(nil),
		WithHTTPClient(nil))
	require.NoError(t, err)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, 500*time.Millisecond, c.retryWaitMin)
	assert.NotEmpty(t, c.userAgent)
	assert.NotNil(t, c.logger)
	assert.NotNil(t, c.httpClient)

	c, err = NewClient("http://localhost", WithRetryWait(2*time.Second, time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)
}

func TestMatrix_Aggregate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/matrix/aggregate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		var got aggregateBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Len(t, got.QuestionResponse, 1)
		assert.Len(t, got.QuestionResponse[0].Questions, 2)
		_, _ = w.Write([]byte(`{"question_response":{"Environment":[{"question_id":"1","index_code":"E-1","priority":2,"status_quo":3}]}}`))
	})

	var in materiality.QuestionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"Environment":[
		{"question_id":"1","index_code":"E-1","priority":1,"status_quo":2},
		{"question_id":"1","index_code":"E-1","priority":3,"status_quo":4}]}`), &in))

	out, err := c.Matrix().Aggregate(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Questions, 1)
	assert.Equal(t, 2.0, *out[0].Questions[0].Priority)
	assert.Equal(t, 3.0, *out[0].Questions[0].StatusQuo)
}

func TestDashboards_MatrixQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/dashboards/7/2024/matrix", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "sess-1", q.Get("session"))
		assert.Equal(t, "0.2", q.Get("jitter"))
		assert.Equal(t, "true", q.Get("quadrant_labels"))
		assert.Equal(t, "FY24", q.Get("title"))
		writeJSON(w, http.StatusOK, appmatrix.MatrixView{ClientID: 7, Year: 2024, Version: 2, SelectedGroups: []int64{1}})
	})

	jitter, labels := 0.2, true
	view, err := c.Dashboards().Matrix(context.Background(), 7, 2024, MatrixQuery{
		SessionID: "sess-1", JitterAmount: &jitter, QuadrantLabels: &labels, Title: "FY24",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.Version)
	assert.Equal(t, []int64{1}, view.SelectedGroups)
}

func TestDashboards_PutAndList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/dashboards/7/2024":
			writeJSON(w, http.StatusOK, SaveResult{ClientID: 7, Year: 2024, Version: 4})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/dashboards/7/2024/snapshots":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"snapshots": []*materiality.Snapshot{{ID: "s1", ClientID: 7, Year: 2024, PointCount: 3}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	res, err := c.Dashboards().Put(context.Background(), &materiality.DashboardPayload{
		Client: materiality.Client{ID: 7, Name: "Acme"}, Year: 2024,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Version)

	snaps, err := c.Dashboards().ListSnapshots(context.Background(), 7, 2024, 5)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "s1", snaps[0].ID)
}

func TestSessions_Bodies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/api/v1/sessions/sess-1/selection":
			assert.Equal(t, "7", r.URL.Query().Get("client"))
			assert.Equal(t, "2024", r.URL.Query().Get("year"))
		case "/api/v1/sessions/sess-1/selection/toggle":
			assert.JSONEq(t, `{"client_id":7,"year":2024,"group_id":2}`, string(body))
		case "/api/v1/sessions/sess-1/visibility":
			assert.JSONEq(t, `{"client_id":7,"year":2024,"group_id":2,"show_in_table":false}`, string(body))
		case "/api/v1/sessions/sess-1/visibility/commit":
			assert.JSONEq(t, `{"client_id":7,"year":2024}`, string(body))
			writeJSON(w, http.StatusOK, appmatrix.CommitResult{Version: 3})
			return
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, appmatrix.SelectionView{SessionID: "sess-1", ClientID: 7, Year: 2024, Changed: true})
	})
	ctx := context.Background()

	view, err := c.Sessions().Selection(ctx, "sess-1", 7, 2024)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", view.SessionID)

	view, err = c.Sessions().Toggle(ctx, "sess-1", 7, 2024, 2)
	require.NoError(t, err)
	assert.True(t, view.Changed)

	_, err = c.Sessions().SetVisibility(ctx, "sess-1", 7, 2024, 2, false)
	require.NoError(t, err)

	res, err := c.Sessions().CommitVisibility(ctx, "sess-1", 7, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Version)
}

func TestAPIError_Decoded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "srv-req")
		writeJSON(w, http.StatusNotFound, map[string]string{
			"code": "DSH_001", "message": "dashboard not found", "detail": "client_id=7 year=2024",
		})
	})

	_, err := c.Dashboards().Get(context.Background(), 7, 2024)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsServerError())
	assert.Equal(t, "DSH_001", apiErr.Code)
	assert.Equal(t, "client_id=7 year=2024", apiErr.Detail)
	assert.Equal(t, "srv-req", apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "DSH_001")
}

func TestRetry_GetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"code": "COMMON_008", "message": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, materiality.StoredDashboard{Version: 9})
	})

	stored, err := c.Dashboards().Get(context.Background(), 7, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(9), stored.Version)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetry_PostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "COMMON_001", "message": "internal error"})
	})

	_, err := c.Sessions().Toggle(context.Background(), "sess-1", 7, 2024, 2)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetry_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c.retryWaitMin, c.retryWaitMax = time.Hour, time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Dashboards().Get(ctx, 7, 2024)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": []interface{}{}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithBearerToken("secret"))
	require.NoError(t, err)
	snaps, err := c.Dashboards().ListSnapshots(context.Background(), 7, 2024, 0)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
