package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
)

// SessionsClient calls the per-session selection endpoints.
type SessionsClient struct {
	client *Client
}

type sessionBody struct {
	ClientID    int64 `json:"client_id"`
	Year        int   `json:"year"`
	GroupID     int64 `json:"group_id,omitempty"`
	ShowInTable *bool `json:"show_in_table,omitempty"`
}

func sessionPath(sessionID string) string {
	return "/sessions/" + url.PathEscape(sessionID)
}

// Selection returns the session's selection against the dashboard.
func (s *SessionsClient) Selection(ctx context.Context, sessionID string, clientID int64, year int) (*appmatrix.SelectionView, error) {
	q := url.Values{
		"client": {strconv.FormatInt(clientID, 10)},
		"year":   {strconv.Itoa(year)},
	}
	var out appmatrix.SelectionView
	if err := s.client.do(ctx, http.MethodGet, sessionPath(sessionID)+"/selection", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Toggle flips one group in the session selection.
func (s *SessionsClient) Toggle(ctx context.Context, sessionID string, clientID int64, year int, groupID int64) (*appmatrix.SelectionView, error) {
	var out appmatrix.SelectionView
	body := sessionBody{ClientID: clientID, Year: year, GroupID: groupID}
	if err := s.client.do(ctx, http.MethodPost, sessionPath(sessionID)+"/selection/toggle", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetVisibility lists or unlists one group in the visibility table.
func (s *SessionsClient) SetVisibility(ctx context.Context, sessionID string, clientID int64, year int, groupID int64, show bool) (*appmatrix.SelectionView, error) {
	var out appmatrix.SelectionView
	body := sessionBody{ClientID: clientID, Year: year, GroupID: groupID, ShowInTable: &show}
	if err := s.client.do(ctx, http.MethodPost, sessionPath(sessionID)+"/visibility", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CommitVisibility writes the pending visibility edits back.
func (s *SessionsClient) CommitVisibility(ctx context.Context, sessionID string, clientID int64, year int) (*appmatrix.CommitResult, error) {
	var out appmatrix.CommitResult
	body := sessionBody{ClientID: clientID, Year: year}
	if err := s.client.do(ctx, http.MethodPost, sessionPath(sessionID)+"/visibility/commit", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
