// Package repositories implements the materiality repositories on
// PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/postgres"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 100
)

const (
	insertSnapshotSQL = `
		INSERT INTO matrix_snapshots (
			id, client_id, year, session_id, dashboard_version,
			json_key, workbook_key, point_count, selected_groups, jitter_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	listSnapshotsSQL = `
		SELECT id, client_id, year, session_id, dashboard_version,
			json_key, workbook_key, point_count, selected_groups, jitter_amount, created_at
		FROM matrix_snapshots
		WHERE client_id = $1 AND year = $2
		ORDER BY created_at DESC
		LIMIT $3`
)

// queryExecutor is the subset of *sql.DB and *sql.Tx the snapshot
// repository uses.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

type postgresSnapshotRepo struct {
	executor queryExecutor
	log      logging.Logger
}

// NewPostgresSnapshotRepo returns a SnapshotRepository backed by PostgreSQL.
func NewPostgresSnapshotRepo(conn *postgres.Connection, log logging.Logger) materiality.SnapshotRepository {
	return &postgresSnapshotRepo{executor: conn.DB(), log: log}
}

func (r *postgresSnapshotRepo) Create(ctx context.Context, s *materiality.Snapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	selected := s.SelectedIDs
	if selected == nil {
		selected = []int64{}
	}
	selectedJSON, err := json.Marshal(selected)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode selected groups")
	}

	err = r.executor.QueryRowContext(ctx, insertSnapshotSQL,
		s.ID, s.ClientID, s.Year, s.SessionID, s.Version,
		s.JSONKey, s.WorkbookKey, s.PointCount, selectedJSON, s.JitterAmount,
	).Scan(&s.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record snapshot")
	}
	return nil
}

func (r *postgresSnapshotRepo) ListByDashboard(ctx context.Context, clientID int64, year int, limit int) ([]*materiality.Snapshot, error) {
	if limit <= 0 {
		limit = defaultSnapshotLimit
	}
	if limit > maxSnapshotLimit {
		limit = maxSnapshotLimit
	}

	rows, err := r.executor.QueryContext(ctx, listSnapshotsSQL, clientID, year, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list snapshots")
	}
	defer rows.Close()

	out := make([]*materiality.Snapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate snapshots")
	}
	return out, nil
}

func scanSnapshot(row scanner) (*materiality.Snapshot, error) {
	var (
		s        materiality.Snapshot
		selected []byte
	)
	err := row.Scan(&s.ID, &s.ClientID, &s.Year, &s.SessionID, &s.Version,
		&s.JSONKey, &s.WorkbookKey, &s.PointCount, &selected, &s.JitterAmount, &s.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan snapshot")
	}
	if len(selected) > 0 {
		if err := json.Unmarshal(selected, &s.SelectedIDs); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "snapshot selected_groups is corrupt")
		}
	}
	return &s, nil
}
