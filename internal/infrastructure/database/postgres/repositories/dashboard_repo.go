package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/postgres"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

const (
	selectDashboardSQL = `
		SELECT payload, version, updated_at
		FROM dashboards
		WHERE client_id = $1 AND year = $2`

	selectVisibilitySQL = `
		SELECT group_id, show_in_table
		FROM group_visibility
		WHERE client_id = $1 AND year = $2`

	upsertDashboardSQL = `
		INSERT INTO dashboards (client_id, year, client_name, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id, year) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			payload = EXCLUDED.payload,
			version = dashboards.version + 1,
			updated_at = NOW()
		RETURNING version`

	deleteVisibilitySQL = `DELETE FROM group_visibility WHERE client_id = $1 AND year = $2`

	upsertVisibilitySQL = `
		INSERT INTO group_visibility (client_id, year, group_id, show_in_table)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id, year, group_id) DO UPDATE SET
			show_in_table = EXCLUDED.show_in_table,
			updated_at = NOW()`

	lockDashboardSQL = `
		SELECT version FROM dashboards
		WHERE client_id = $1 AND year = $2
		FOR UPDATE`

	bumpVersionSQL = `
		UPDATE dashboards SET version = version + 1, updated_at = NOW()
		WHERE client_id = $1 AND year = $2
		RETURNING version`
)

type postgresDashboardRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresDashboardRepo returns a DashboardRepository backed by PostgreSQL.
// The payload is stored as JSONB; show_in_table flags live in
// group_visibility so that visibility commits do not rewrite the payload.
func NewPostgresDashboardRepo(conn *postgres.Connection, log logging.Logger) materiality.DashboardRepository {
	return &postgresDashboardRepo{conn: conn, log: log}
}

func (r *postgresDashboardRepo) Get(ctx context.Context, clientID int64, year int) (*materiality.StoredDashboard, error) {
	var (
		raw    []byte
		stored materiality.StoredDashboard
	)
	err := r.conn.DB().QueryRowContext(ctx, selectDashboardSQL, clientID, year).
		Scan(&raw, &stored.Version, &stored.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeDashboardNotFound, "dashboard not found").
				WithDetail(dashboardKey(clientID, year))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load dashboard")
	}

	if err := json.Unmarshal(raw, &stored.Payload); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "stored dashboard payload is corrupt").
			WithDetail(dashboardKey(clientID, year))
	}

	visibility, err := r.loadVisibility(ctx, clientID, year)
	if err != nil {
		return nil, err
	}
	applyVisibility(stored.Payload.StakeholderGroups, visibility)
	applyVisibility(stored.Payload.PlotGroups, visibility)

	return &stored, nil
}

func (r *postgresDashboardRepo) loadVisibility(ctx context.Context, clientID int64, year int) (map[int64]bool, error) {
	rows, err := r.conn.DB().QueryContext(ctx, selectVisibilitySQL, clientID, year)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load group visibility")
	}
	defer rows.Close()

	out := make(map[int64]bool)
	for rows.Next() {
		var (
			id   int64
			show bool
		)
		if err := rows.Scan(&id, &show); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan group visibility")
		}
		out[id] = show
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate group visibility")
	}
	return out, nil
}

func applyVisibility(groups []materiality.StakeholderGroup, visibility map[int64]bool) {
	for i := range groups {
		if show, ok := visibility[groups[i].ID]; ok {
			groups[i].ShowInTable = show
		}
	}
}

func (r *postgresDashboardRepo) Save(ctx context.Context, payload *materiality.DashboardPayload) (int64, error) {
	if err := payload.Validate(); err != nil {
		return 0, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode dashboard payload")
	}

	clientID, year := payload.Client.ID, payload.Year
	var version int64
	err = r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, upsertDashboardSQL, clientID, year, payload.Client.Name, raw).Scan(&version); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert dashboard")
		}
		if _, err := tx.ExecContext(ctx, deleteVisibilitySQL, clientID, year); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to reset group visibility")
		}
		return insertVisibility(ctx, tx, clientID, year, visibilityRows(payload))
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug("Dashboard saved",
		logging.Int64(logging.FieldClientID, clientID),
		logging.Int(logging.FieldYear, year),
		logging.Int64("version", version),
	)
	return version, nil
}

// visibilityRows lists one change per distinct group id, table groups first.
func visibilityRows(p *materiality.DashboardPayload) []materiality.VisibilityChange {
	seen := make(map[int64]struct{}, len(p.StakeholderGroups))
	out := make([]materiality.VisibilityChange, 0, len(p.StakeholderGroups))
	for _, list := range [][]materiality.StakeholderGroup{p.StakeholderGroups, p.PlotGroups} {
		for _, g := range list {
			if _, ok := seen[g.ID]; ok {
				continue
			}
			seen[g.ID] = struct{}{}
			out = append(out, materiality.VisibilityChange{GroupID: g.ID, ShowInTable: g.ShowInTable})
		}
	}
	return out
}

func insertVisibility(ctx context.Context, tx *sql.Tx, clientID int64, year int, changes []materiality.VisibilityChange) error {
	if len(changes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, upsertVisibilitySQL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to prepare visibility statement")
	}
	defer stmt.Close()

	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, clientID, year, c.GroupID, c.ShowInTable); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to write group visibility").
				WithDetail(fmt.Sprintf("group_id=%d", c.GroupID))
		}
	}
	return nil
}

// UpdateGroupVisibility writes all changes in one transaction and bumps the
// dashboard version.
func (r *postgresDashboardRepo) UpdateGroupVisibility(ctx context.Context, clientID int64, year int, changes []materiality.VisibilityChange) (int64, error) {
	if len(changes) == 0 {
		return 0, errors.New(errors.ErrCodeNoPendingChanges, "no visibility changes to write")
	}

	var version int64
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, lockDashboardSQL, clientID, year).Scan(&version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errors.New(errors.ErrCodeDashboardNotFound, "dashboard not found").
					WithDetail(dashboardKey(clientID, year))
			}
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to lock dashboard")
		}
		if err := insertVisibility(ctx, tx, clientID, year, changes); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, bumpVersionSQL, clientID, year).Scan(&version); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to bump dashboard version")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Info("Group visibility committed",
		logging.Int64(logging.FieldClientID, clientID),
		logging.Int(logging.FieldYear, year),
		logging.Int("changes", len(changes)),
		logging.Int64("version", version),
	)
	return version, nil
}

func dashboardKey(clientID int64, year int) string {
	return fmt.Sprintf("client_id=%d year=%d", clientID, year)
}
