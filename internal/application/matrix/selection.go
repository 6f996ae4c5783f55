package matrix

import (
	"context"
	"fmt"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// ToggleRequest flips one group in a session's selection.
type ToggleRequest struct {
	SessionID string `json:"session_id"`
	ClientID  int64  `json:"client_id"`
	Year      int    `json:"year"`
	GroupID   int64  `json:"group_id"`
}

// VisibilityRequest lists or unlists one group in the visibility table.
type VisibilityRequest struct {
	SessionID   string `json:"session_id"`
	ClientID    int64  `json:"client_id"`
	Year        int    `json:"year"`
	GroupID     int64  `json:"group_id"`
	ShowInTable bool   `json:"show_in_table"`
}

// GroupView is one row of the group table as the session sees it.
type GroupView struct {
	ID               int64  `json:"id"`
	DisplayName      string `json:"display_name"`
	StakeholderCount int    `json:"stakeholder_count"`
	Checked          bool   `json:"checked"`
	ToggleDisabled   bool   `json:"toggle_disabled"`
	IncludedInPlot   bool   `json:"included_in_plot"`
	ShownInTable     bool   `json:"shown_in_table"`
	IsGlobal         bool   `json:"is_global"`
	InvitationLink   string `json:"invitation_link,omitempty"`
}

// SelectionView is the session selection plus the derived group table.
type SelectionView struct {
	SessionID string                         `json:"session_id"`
	ClientID  int64                          `json:"client_id"`
	Year      int                            `json:"year"`
	Version   int64                          `json:"dashboard_version"`
	State     materiality.SelectionState     `json:"state"`
	Groups    []GroupView                    `json:"groups"`
	Pending   []materiality.VisibilityChange `json:"pending_visibility"`
	Changed   bool                           `json:"changed"`
}

// CommitResult reports a written visibility batch.
type CommitResult struct {
	Version int64                          `json:"dashboard_version"`
	Applied []materiality.VisibilityChange `json:"applied"`
}

// loadSession returns the stored dashboard and the session's selection,
// initialising the selection from the dashboard on first access and
// reconciling it against the current groups otherwise.
func (s *serviceImpl) loadSession(ctx context.Context, sessionID string, clientID int64, year int) (*materiality.StoredDashboard, materiality.SelectionState, error) {
	if err := materiality.ValidateSessionID(sessionID); err != nil {
		return nil, materiality.SelectionState{}, err
	}
	if err := validateDashboardKey(clientID, year); err != nil {
		return nil, materiality.SelectionState{}, err
	}

	stored, err := s.dashboards.Get(ctx, clientID, year)
	if err != nil {
		return nil, materiality.SelectionState{}, err
	}

	existing, err := s.selections.Load(ctx, sessionID, clientID, year)
	if err != nil {
		return nil, materiality.SelectionState{}, err
	}
	if existing == nil {
		state := stored.Payload.InitialSelection()
		if err := s.selections.Save(ctx, sessionID, clientID, year, state); err != nil {
			return nil, materiality.SelectionState{}, err
		}
		s.logger.Debug("selection initialised",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Int64(logging.FieldClientID, clientID),
			logging.Int(logging.FieldYear, year),
			logging.Int("selected", len(state.SelectedGroups)))
		return stored, state, nil
	}
	return stored, materiality.Reconcile(*existing, allGroups(&stored.Payload)), nil
}

func (s *serviceImpl) GetSelection(ctx context.Context, sessionID string, clientID int64, year int) (*SelectionView, error) {
	stored, state, err := s.loadSession(ctx, sessionID, clientID, year)
	if err != nil {
		return nil, err
	}
	return newSelectionView(sessionID, stored, state, false), nil
}

func (s *serviceImpl) ToggleGroup(ctx context.Context, req *ToggleRequest) (*SelectionView, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "toggle request is required")
	}
	stored, state, err := s.loadSession(ctx, req.SessionID, req.ClientID, req.Year)
	if err != nil {
		return nil, err
	}

	g, ok := lookupGroup(&stored.Payload, req.GroupID)
	if !ok {
		return nil, errors.New(errors.ErrCodeGroupNotFound, "stakeholder group not found").
			WithDetail(fmt.Sprintf("group_id=%d", req.GroupID))
	}

	next, changed := materiality.Toggle(state, g)
	prometheus.RecordSelectionToggle(s.metrics, changed)
	if !changed {
		return newSelectionView(req.SessionID, stored, state, false), nil
	}
	if err := s.selections.Save(ctx, req.SessionID, req.ClientID, req.Year, next); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.TopicSelectionChanged, kafka.EventTypeSelectionChanged, req.ClientID, req.Year, kafka.SelectionChangedPayload{
		SessionID:      req.SessionID,
		ClientID:       req.ClientID,
		Year:           req.Year,
		GroupID:        g.ID,
		Selected:       next.IsSelected(g.ID),
		SelectedGroups: next.SelectedGroups,
		ChangedAt:      s.now(),
	})
	return newSelectionView(req.SessionID, stored, next, true), nil
}

func (s *serviceImpl) SetGroupVisibility(ctx context.Context, req *VisibilityRequest) (*SelectionView, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "visibility request is required")
	}
	stored, state, err := s.loadSession(ctx, req.SessionID, req.ClientID, req.Year)
	if err != nil {
		return nil, err
	}

	g, ok := lookupGroup(&stored.Payload, req.GroupID)
	if !ok {
		return nil, errors.New(errors.ErrCodeGroupNotFound, "stakeholder group not found").
			WithDetail(fmt.Sprintf("group_id=%d", req.GroupID))
	}

	next, changed := materiality.SetShownInTable(state, g, req.ShowInTable)
	if !changed {
		return newSelectionView(req.SessionID, stored, state, false), nil
	}
	if err := s.selections.Save(ctx, req.SessionID, req.ClientID, req.Year, next); err != nil {
		return nil, err
	}
	return newSelectionView(req.SessionID, stored, next, true), nil
}

func (s *serviceImpl) CommitVisibility(ctx context.Context, sessionID string, clientID int64, year int) (*CommitResult, error) {
	_, state, err := s.loadSession(ctx, sessionID, clientID, year)
	if err != nil {
		return nil, err
	}

	changes := materiality.PendingVisibility(state)
	if len(changes) == 0 {
		return nil, errors.New(errors.ErrCodeNoPendingChanges, "no pending visibility changes")
	}

	version, err := s.dashboards.UpdateGroupVisibility(ctx, clientID, year, changes)
	prometheus.RecordVisibilityCommit(s.metrics, err)
	if err != nil {
		s.logger.Error("failed to commit visibility",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Int64(logging.FieldClientID, clientID),
			logging.Int(logging.FieldYear, year),
			logging.Err(err))
		return nil, err
	}

	if err := s.selections.Save(ctx, sessionID, clientID, year, materiality.ClearPending(state)); err != nil {
		// The rows are written; a retry would re-apply the same values.
		s.logger.Warn("failed to clear pending visibility",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Err(err))
	}

	s.logger.Info("visibility committed",
		logging.String(logging.FieldSessionID, sessionID),
		logging.Int64(logging.FieldClientID, clientID),
		logging.Int(logging.FieldYear, year),
		logging.Int("changes", len(changes)),
		logging.Int64("version", version))
	return &CommitResult{Version: version, Applied: changes}, nil
}

// allGroups returns the plot groups followed by table-only groups.
func allGroups(p *materiality.DashboardPayload) []materiality.StakeholderGroup {
	out := make([]materiality.StakeholderGroup, 0, len(p.PlotGroups)+len(p.StakeholderGroups))
	out = append(out, p.PlotGroups...)
	for _, g := range p.StakeholderGroups {
		if _, dup := materiality.FindGroup(p.PlotGroups, g.ID); !dup {
			out = append(out, g)
		}
	}
	return out
}

// lookupGroup prefers the plot list, which carries the answers.
func lookupGroup(p *materiality.DashboardPayload, id int64) (materiality.StakeholderGroup, bool) {
	if g, ok := materiality.FindGroup(p.PlotGroups, id); ok {
		return g, true
	}
	return materiality.FindGroup(p.StakeholderGroups, id)
}

func newSelectionView(sessionID string, stored *materiality.StoredDashboard, state materiality.SelectionState, changed bool) *SelectionView {
	groups := allGroups(&stored.Payload)
	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, GroupView{
			ID:               g.ID,
			DisplayName:      g.DisplayName,
			StakeholderCount: g.StakeholderCount,
			Checked:          materiality.IsChecked(g, state),
			ToggleDisabled:   materiality.IsToggleDisabled(g),
			IncludedInPlot:   materiality.IsIncludedInPlot(g, state),
			ShownInTable:     state.IsShownInTable(g.ID),
			IsGlobal:         g.IsGlobal,
			InvitationLink:   g.InvitationLink,
		})
	}
	return &SelectionView{
		SessionID: sessionID,
		ClientID:  stored.Payload.Client.ID,
		Year:      stored.Payload.Year,
		Version:   stored.Version,
		State:     state,
		Groups:    views,
		Pending:   materiality.PendingVisibility(state),
		Changed:   changed,
	}
}
