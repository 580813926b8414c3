package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/lib/pq"
)

// ListSLATracked returns every complaint whose SLA clock is running.
func (c *CivicDB) ListSLATracked(ctx context.Context) ([]sla.Tracked, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT id, title, citizen_id, assigned_officer_id, ward_id, status, sla_hours, sla_deadline,
			created_at, COALESCE(sla_started_at, created_at), sla_breached, sla_warning_sent
		FROM complaints WHERE status = ANY($1) ORDER BY id`, pq.Array(workflow.OpenStatuses()))
	if err != nil {
		return nil, fmt.Errorf("error retrieving open complaints: %w", err)
	}
	defer rows.Close()

	var tracked []sla.Tracked
	for rows.Next() {
		var t sla.Tracked
		var officer sql.NullInt64
		var deadline sql.NullTime
		if err := rows.Scan(&t.ComplaintID, &t.Title, &t.CitizenID, &officer, &t.WardID, &t.Input.ComplaintStatus,
			&t.Input.SLAHours, &deadline, &t.Input.CreatedAt, &t.Input.StartedAt, &t.BreachRecorded, &t.WarningSent); err != nil {
			return nil, fmt.Errorf("error scanning open complaints: %w", err)
		}
		t.AssignedOfficerID = int64Ptr(officer)
		t.Input.Deadline = timePtr(deadline)
		t.Input.Breached = t.BreachRecorded
		tracked = append(tracked, t)
	}
	return tracked, rows.Err()
}

func (c *CivicDB) MarkSLAWarning(ctx context.Context, complaintID int64) error {
	_, err := c.execQuery(ctx, c.DB, `UPDATE complaints SET sla_warning_sent = TRUE WHERE id = $1`, complaintID)
	return err
}

// MarkSLABreached sets the breach flag once and audits it.
func (c *CivicDB) MarkSLABreached(ctx context.Context, complaintID int64) error {
	return c.inTx(ctx, func(tx *sql.Tx) error {
		n, err := c.execQuery(ctx, tx, `
			UPDATE complaints SET sla_breached = TRUE, sla_warning_sent = TRUE
			WHERE id = $1 AND NOT sla_breached`, complaintID)
		if err != nil || n == 0 {
			return err
		}
		return c.insertAudit(ctx, tx, 0, catalog.RoleSystem, "SLA_BREACHED", "COMPLAINT", complaintID, "")
	})
}
