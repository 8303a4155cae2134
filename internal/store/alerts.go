// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/meshintel/newsgraph/pkg/types"
)

// InsertAlert persists a new alert and returns its id.
func (s *Store) InsertAlert(ctx context.Context, a types.Alert) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (alert_type, payload, triggered_at, description, severity, acknowledged)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		string(a.Type), a.Payload, a.TriggeredAt.UTC().Format(time.RFC3339), a.Description, string(a.Severity))
	if err != nil {
		return 0, fmt.Errorf("inserting alert: %w", err)
	}
	return res.LastInsertId()
}

// FindRecentAlert returns the id of an alert with the same type and
// description triggered at or after since, or 0 if none exists. Used for
// deduplication before raising a new alert.
func (s *Store) FindRecentAlert(ctx context.Context, typ types.AlertType, description string, since time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM alerts
		 WHERE alert_type = ? AND description = ? AND triggered_at >= ?
		 ORDER BY triggered_at DESC LIMIT 1`,
		string(typ), description, since.UTC().Format(time.RFC3339)).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding recent alert: %w", err)
	}
	return id, nil
}

// AlertFilter narrows ListAlerts. Zero values mean no constraint.
type AlertFilter struct {
	Type     types.AlertType
	Severity types.Severity
	Since    time.Time
	Unacked  bool
	Limit    int
}

// ListAlerts returns alerts newest first, filtered per f. The query is
// assembled dynamically since every filter field is optional.
func (s *Store) ListAlerts(ctx context.Context, f AlertFilter) ([]types.Alert, error) {
	q := sq.Select("id", "alert_type", "payload", "triggered_at", "description", "severity", "acknowledged").
		From("alerts").
		OrderBy("triggered_at DESC", "id DESC")

	if f.Type != "" {
		q = q.Where(sq.Eq{"alert_type": string(f.Type)})
	}
	if f.Severity != "" {
		q = q.Where(sq.Eq{"severity": string(f.Severity)})
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"triggered_at": f.Since.UTC().Format(time.RFC3339)})
	}
	if f.Unacked {
		q = q.Where(sq.Eq{"acknowledged": 0})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building alert query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var out []types.Alert
	for rows.Next() {
		var a types.Alert
		var typ, sev, ts string
		var acked int
		if err := rows.Scan(&a.ID, &typ, &a.Payload, &ts, &a.Description, &sev, &acked); err != nil {
			return nil, err
		}
		a.Type = types.AlertType(typ)
		a.Severity = types.Severity(sev)
		a.Acknowledged = acked != 0
		if a.TriggeredAt, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("alert %d: bad triggered_at %q: %w", a.ID, ts, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AcknowledgeAlert flips the acknowledged flag. Returns sql.ErrNoRows if
// no alert with that id exists.
func (s *Store) AcknowledgeAlert(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET acknowledged = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("acknowledging alert %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AlertCount returns total and unacknowledged alert counts for status
// reporting.
func (s *Store) AlertCount(ctx context.Context) (total, unacked int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(CASE WHEN acknowledged = 0 THEN 1 ELSE 0 END), 0) FROM alerts`,
	).Scan(&total, &unacked)
	return total, unacked, err
}
