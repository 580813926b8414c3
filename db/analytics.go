package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/lib/pq"
)

// doneStatuses are the statuses in which the work on a complaint is finished.
var doneStatuses = []string{catalog.StatusResolved, catalog.StatusApproved, catalog.StatusClosed}

// ListSLARecords returns the SLA input of every complaint matching f.
func (c *CivicDB) ListSLARecords(ctx context.Context, f models.ComplaintFilter) ([]models.SLARecord, error) {
	w := complaintWhere(f)
	rows, err := c.DB.QueryContext(ctx, `
		SELECT c.id, c.ward_id, c.department_id, c.status, c.sla_hours, c.sla_deadline, c.created_at,
			COALESCE(c.sla_started_at, c.created_at), c.resolved_at, c.sla_breached
		FROM complaints c`+w.String()+` ORDER BY c.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("error retrieving SLA records: %w", err)
	}
	defer rows.Close()

	var records []models.SLARecord
	for rows.Next() {
		var r models.SLARecord
		var deadline, resolved sql.NullTime
		if err := rows.Scan(&r.ComplaintID, &r.WardID, &r.DepartmentID, &r.Input.ComplaintStatus, &r.Input.SLAHours,
			&deadline, &r.Input.CreatedAt, &r.Input.StartedAt, &resolved, &r.Input.Breached); err != nil {
			return nil, fmt.Errorf("error scanning SLA records: %w", err)
		}
		r.Input.Deadline = timePtr(deadline)
		r.Input.ResolvedAt = timePtr(resolved)
		records = append(records, r)
	}
	return records, rows.Err()
}

const performanceColumns = `COUNT(c.id),
	COUNT(c.id) FILTER (WHERE c.status = ANY($1)),
	COUNT(c.id) FILTER (WHERE c.status = ANY($2)),
	COALESCE(AVG(EXTRACT(EPOCH FROM (c.resolved_at - c.created_at)) / 3600)
		FILTER (WHERE c.resolved_at IS NOT NULL AND c.status = ANY($1)), 0)`

// WardPerformance returns complaint volumes and mean resolution time per
// ward. SLA figures are left for the caller to fill from SLA records.
func (c *CivicDB) WardPerformance(ctx context.Context) ([]models.WardPerformance, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT w.id, w.area_name, `+performanceColumns+`
		FROM wards w LEFT JOIN complaints c ON c.ward_id = w.id
		GROUP BY w.id, w.area_name, w.ward_number ORDER BY w.ward_number`,
		pq.Array(doneStatuses), pq.Array(workflow.OpenStatuses()))
	if err != nil {
		return nil, fmt.Errorf("error retrieving ward performance: %w", err)
	}
	defer rows.Close()

	list := []models.WardPerformance{}
	for rows.Next() {
		var p models.WardPerformance
		if err := rows.Scan(&p.WardID, &p.WardName, &p.Total, &p.Resolved, &p.Open, &p.AvgResolutionHours); err != nil {
			return nil, fmt.Errorf("error scanning ward performance: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// DepartmentPerformance is WardPerformance grouped by department, optionally
// restricted to one ward.
func (c *CivicDB) DepartmentPerformance(ctx context.Context, wardID *int64) ([]models.DepartmentPerformance, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT d.id, d.name, `+performanceColumns+`
		FROM departments d LEFT JOIN complaints c ON c.department_id = d.id AND ($3::bigint IS NULL OR c.ward_id = $3)
		GROUP BY d.id, d.name ORDER BY d.id`,
		pq.Array(doneStatuses), pq.Array(workflow.OpenStatuses()), wardID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving department performance: %w", err)
	}
	defer rows.Close()

	list := []models.DepartmentPerformance{}
	for rows.Next() {
		var p models.DepartmentPerformance
		if err := rows.Scan(&p.DepartmentID, &p.DepartmentName, &p.Total, &p.Resolved, &p.Open, &p.AvgResolutionHours); err != nil {
			return nil, fmt.Errorf("error scanning department performance: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Trends counts complaints created and resolved per day over the last days
// days, ending today. wardID optionally restricts the counts.
func (c *CivicDB) Trends(ctx context.Context, days int, wardID *int64) ([]models.TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	end := c.now().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(days - 1))

	rows, err := c.DB.QueryContext(ctx, `
		SELECT to_char(d, 'YYYY-MM-DD'),
			(SELECT COUNT(*) FROM complaints c
				WHERE c.created_at >= d AND c.created_at < d + INTERVAL '1 day' AND ($3::bigint IS NULL OR c.ward_id = $3)),
			(SELECT COUNT(*) FROM complaints c
				WHERE c.resolved_at >= d AND c.resolved_at < d + INTERVAL '1 day' AND ($3::bigint IS NULL OR c.ward_id = $3))
		FROM generate_series($1::timestamptz, $2::timestamptz, INTERVAL '1 day') d
		ORDER BY d`, start, end, wardID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving trends: %w", err)
	}
	defer rows.Close()

	points := []models.TrendPoint{}
	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(&p.Date, &p.Created, &p.Resolved); err != nil {
			return nil, fmt.Errorf("error scanning trends: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// EvaluateRecords applies calc to each record at now.
func EvaluateRecords(calc sla.Calculator, records []models.SLARecord, now time.Time) []sla.Result {
	results := make([]sla.Result, len(records))
	for i, r := range records {
		results[i] = calc.Evaluate(r.Input, now)
	}
	return results
}
