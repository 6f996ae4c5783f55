package materiality

import (
	"context"
	"time"
)

// StoredDashboard is a dashboard payload as persisted, with its version.
// Version increases on every write, including visibility commits.
type StoredDashboard struct {
	Payload   DashboardPayload `json:"payload"`
	Version   int64            `json:"version"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Snapshot records one exported matrix.
type Snapshot struct {
	ID           string    `json:"id"`
	ClientID     int64     `json:"client_id"`
	Year         int       `json:"year"`
	SessionID    string    `json:"session_id,omitempty"`
	Version      int64     `json:"dashboard_version"`
	JSONKey      string    `json:"json_key"`
	WorkbookKey  string    `json:"workbook_key"`
	PointCount   int       `json:"point_count"`
	CreatedAt    time.Time `json:"created_at"`
	SelectedIDs  []int64   `json:"selected_groups"`
	JitterAmount float64   `json:"jitter_amount"`
}

// DashboardRepository persists dashboard payloads and group visibility.
type DashboardRepository interface {
	Get(ctx context.Context, clientID int64, year int) (*StoredDashboard, error)
	Save(ctx context.Context, payload *DashboardPayload) (int64, error)
	UpdateGroupVisibility(ctx context.Context, clientID int64, year int, changes []VisibilityChange) (int64, error)
}

// SnapshotRepository records exported snapshots.
type SnapshotRepository interface {
	Create(ctx context.Context, s *Snapshot) error
	ListByDashboard(ctx context.Context, clientID int64, year int, limit int) ([]*Snapshot, error)
}

// SelectionStore keeps per-session selection state.  Load returns nil and
// no error when the session has no stored state.
//
// Save overwrites without compare-and-set.  A session belongs to one user,
// so concurrent toggles from two tabs of the same session may lose one of
// the updates.
type SelectionStore interface {
	Load(ctx context.Context, sessionID string, clientID int64, year int) (*SelectionState, error)
	Save(ctx context.Context, sessionID string, clientID int64, year int, state SelectionState) error
	Delete(ctx context.Context, sessionID string, clientID int64, year int) error
}
