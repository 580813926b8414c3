package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/lib/pq"
)

const complaintColumns = `c.id, c.title, c.description, c.status, c.priority, c.ward_id, w.area_name,
	c.department_id, d.name, c.citizen_id, cu.name, c.assigned_officer_id, COALESCE(ou.name, ''),
	c.location, c.latitude, c.longitude, c.sla_hours, c.sla_deadline, COALESCE(c.sla_started_at, c.created_at), c.sla_breached, c.sla_warning_sent,
	c.reopen_count, c.created_at, c.updated_at, c.assigned_at, c.resolved_at, c.approved_at, c.closed_at`

const complaintFrom = ` FROM complaints c
	JOIN wards w ON w.id = c.ward_id
	JOIN departments d ON d.id = c.department_id
	JOIN users cu ON cu.id = c.citizen_id
	LEFT JOIN users ou ON ou.id = c.assigned_officer_id`

func scanComplaint(row interface{ Scan(...interface{}) error }) (*models.Complaint, error) {
	var cm models.Complaint
	var officer sql.NullInt64
	var lat, lng sql.NullFloat64
	var deadline, assigned, resolved, approved, closed sql.NullTime
	if err := row.Scan(&cm.ID, &cm.Title, &cm.Description, &cm.Status, &cm.Priority, &cm.WardID, &cm.WardName,
		&cm.DepartmentID, &cm.DepartmentName, &cm.CitizenID, &cm.CitizenName, &officer, &cm.AssignedOfficerName,
		&cm.Location, &lat, &lng, &cm.SLAHours, &deadline, &cm.SLAStartedAt, &cm.SLABreached, &cm.SLAWarningSent,
		&cm.ReopenCount, &cm.CreatedAt, &cm.UpdatedAt, &assigned, &resolved, &approved, &closed); err != nil {
		return nil, err
	}
	cm.AssignedOfficerID = int64Ptr(officer)
	cm.Latitude = float64Ptr(lat)
	cm.Longitude = float64Ptr(lng)
	cm.SLADeadline = timePtr(deadline)
	cm.AssignedAt = timePtr(assigned)
	cm.ResolvedAt = timePtr(resolved)
	cm.ApprovedAt = timePtr(approved)
	cm.ClosedAt = timePtr(closed)
	cm.CreatedAt = cm.CreatedAt.UTC()
	cm.SLAStartedAt = cm.SLAStartedAt.UTC()
	cm.UpdatedAt = cm.UpdatedAt.UTC()
	return &cm, nil
}

func (c *CivicDB) getComplaint(ctx context.Context, q querier, id int64) (*models.Complaint, error) {
	cm, err := scanComplaint(q.QueryRowContext(ctx, `SELECT `+complaintColumns+complaintFrom+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning complaint: %w", err)
	}
	return cm, nil
}

// GetComplaint returns the complaint with id, or nil if it does not exist.
func (c *CivicDB) GetComplaint(ctx context.Context, id int64) (*models.Complaint, error) {
	return c.getComplaint(ctx, c.DB, id)
}

// CreateComplaint inserts a SUBMITTED complaint with its first timeline entry.
// The SLA budget is copied from the department at creation time.
func (c *CivicDB) CreateComplaint(ctx context.Context, cm *models.Complaint) (*models.Complaint, error) {
	var created *models.Complaint
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var slaHours int
		var priority string
		err := tx.QueryRowContext(ctx, `SELECT sla_hours, priority FROM departments WHERE id = $1`, cm.DepartmentID).
			Scan(&slaHours, &priority)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("department %d: %w", cm.DepartmentID, ErrNotFound)
			}
			return fmt.Errorf("error reading department: %w", err)
		}
		if slaHours <= 0 {
			slaHours = catalog.DefaultSLAHours
		}

		now := c.now()
		deadline := now.Add(time.Duration(slaHours) * time.Hour)

		var id int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO complaints (title, description, status, priority, ward_id, department_id, citizen_id,
				location, latitude, longitude, sla_hours, sla_deadline, sla_started_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, $13)
			RETURNING id`,
			cm.Title, cm.Description, catalog.StatusSubmitted, priority, cm.WardID, cm.DepartmentID, cm.CitizenID,
			cm.Location, cm.Latitude, cm.Longitude, slaHours, deadline, now).Scan(&id)
		if err != nil {
			return fmt.Errorf("error inserting complaint: %w", translate(err))
		}

		if err := c.insertTimeline(ctx, tx, id, "", catalog.StatusSubmitted, "create",
			cm.CitizenID, catalog.RoleCitizen, "", now); err != nil {
			return err
		}
		if err := c.insertAudit(ctx, tx, cm.CitizenID, catalog.RoleCitizen, "COMPLAINT_CREATED", "COMPLAINT", id,
			cm.Title); err != nil {
			return err
		}

		created, err = c.getComplaint(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ApplyTransition moves a complaint from t.From to t.To if it is still in
// t.From. A complaint that moved meanwhile returns ErrConflict.
func (c *CivicDB) ApplyTransition(ctx context.Context, t models.Transition) (*models.Complaint, error) {
	if t.At.IsZero() {
		t.At = c.now()
	}

	var updated *models.Complaint
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var officer interface{}
		if t.OfficerID != nil {
			officer = *t.OfficerID
		}

		n, err := c.execQuery(ctx, tx, `
			UPDATE complaints SET
				status = $1,
				updated_at = $2,
				assigned_officer_id = COALESCE($3::bigint, assigned_officer_id),
				assigned_at = CASE WHEN $1 = 'ASSIGNED' THEN $2 ELSE assigned_at END,
				resolved_at = CASE WHEN $1 IN ('RESOLVED', 'REJECTED') THEN $2
					WHEN $1 IN ('IN_PROGRESS', 'REOPENED', 'ASSIGNED') THEN NULL ELSE resolved_at END,
				approved_at = CASE WHEN $1 = 'APPROVED' THEN $2 WHEN $1 = 'REOPENED' THEN NULL ELSE approved_at END,
				closed_at = CASE WHEN $1 = 'CLOSED' THEN $2 WHEN $1 = 'REOPENED' THEN NULL ELSE closed_at END,
				sla_breached = CASE
					WHEN $1 = 'REOPENED' THEN FALSE
					WHEN $1 IN ('RESOLVED', 'REJECTED') THEN sla_breached OR $2 >= COALESCE(sla_deadline, created_at + sla_hours * INTERVAL '1 hour')
					ELSE sla_breached END,
				sla_warning_sent = CASE WHEN $1 = 'REOPENED' THEN FALSE ELSE sla_warning_sent END,
				sla_deadline = CASE WHEN $1 = 'REOPENED' THEN $2 + sla_hours * INTERVAL '1 hour' ELSE sla_deadline END,
				sla_started_at = CASE WHEN $1 = 'REOPENED' THEN $2 ELSE sla_started_at END,
				reopen_count = reopen_count + CASE WHEN $1 = 'REOPENED' THEN 1 ELSE 0 END
			WHERE id = $4 AND status = $5`,
			t.To, t.At, officer, t.ComplaintID, t.From)
		if err != nil {
			return fmt.Errorf("error updating complaint status: %w", err)
		}
		if n == 0 {
			var current string
			err := tx.QueryRowContext(ctx, `SELECT status FROM complaints WHERE id = $1`, t.ComplaintID).Scan(&current)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("error reading complaint status: %w", err)
			}
			return fmt.Errorf("complaint %d is %s, not %s: %w", t.ComplaintID, current, t.From, ErrConflict)
		}

		if err := c.insertTimeline(ctx, tx, t.ComplaintID, t.From, t.To, t.Action, t.ActorID, t.ActorRole,
			t.Remarks, t.At); err != nil {
			return err
		}
		details := fmt.Sprintf("%s -> %s", t.From, t.To)
		if t.Remarks != "" {
			details += ": " + t.Remarks
		}
		if err := c.insertAudit(ctx, tx, t.ActorID, t.ActorRole, "COMPLAINT_"+strings.ToUpper(t.Action),
			"COMPLAINT", t.ComplaintID, details); err != nil {
			return err
		}

		updated, err = c.getComplaint(ctx, tx, t.ComplaintID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *CivicDB) insertTimeline(ctx context.Context, q querier, complaintID int64, from, to, action string, actorID int64, role, remarks string, at time.Time) error {
	_, err := c.execQuery(ctx, q, `
		INSERT INTO complaint_timeline (complaint_id, from_status, to_status, action, actor_id, actor_role, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		complaintID, from, to, action, nullableID(actorID), role, remarks, at)
	if err != nil {
		return fmt.Errorf("error inserting timeline entry: %w", err)
	}
	return nil
}

func complaintWhere(f models.ComplaintFilter) *where {
	w := &where{}
	if len(f.Statuses) > 0 {
		w.add("c.status = ANY($%d)", pq.Array(f.Statuses))
	}
	if f.WardID != nil {
		w.add("c.ward_id = $%d", *f.WardID)
	}
	if f.DepartmentID != nil {
		w.add("c.department_id = $%d", *f.DepartmentID)
	}
	if f.CitizenID != nil {
		w.add("c.citizen_id = $%d", *f.CitizenID)
	}
	if f.AssignedOfficerID != nil {
		w.add("c.assigned_officer_id = $%d", *f.AssignedOfficerID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		w.add("(c.title ILIKE $%[1]d OR c.description ILIKE $%[1]d OR c.location ILIKE $%[1]d)", "%"+q+"%")
	}
	if f.From != nil {
		w.add("c.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		w.add("c.created_at < $%d", *f.To)
	}
	if f.WithLocation {
		w.addRaw("c.latitude IS NOT NULL AND c.longitude IS NOT NULL")
	}
	return w
}

// ListComplaints returns a page of complaints matching f, newest first.
func (c *CivicDB) ListComplaints(ctx context.Context, f models.ComplaintFilter) (models.Page[models.Complaint], error) {
	f.Pagination = f.Pagination.Normalize()
	w := complaintWhere(f)

	var total int64
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints c`+w.String(), w.args...).Scan(&total); err != nil {
		return models.Page[models.Complaint]{}, fmt.Errorf("error counting complaints: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY c.created_at DESC, c.id DESC LIMIT $%d OFFSET $%d`,
		complaintColumns, complaintFrom, w.String(), w.next(), w.next()+1)
	rows, err := c.DB.QueryContext(ctx, query, append(w.args, f.Size, f.Offset())...)
	if err != nil {
		return models.Page[models.Complaint]{}, fmt.Errorf("error retrieving complaints: %w", err)
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		cm, err := scanComplaint(rows)
		if err != nil {
			return models.Page[models.Complaint]{}, fmt.Errorf("error scanning complaints: %w", err)
		}
		complaints = append(complaints, *cm)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Complaint]{}, err
	}
	return models.NewPage(complaints, f.Pagination, total), nil
}

// CountComplaintsByStatus counts complaints matching f per status. Paging
// fields of f are ignored.
func (c *CivicDB) CountComplaintsByStatus(ctx context.Context, f models.ComplaintFilter) (models.StatusCounts, error) {
	w := complaintWhere(f)
	rows, err := c.DB.QueryContext(ctx, `SELECT c.status, COUNT(*) FROM complaints c`+w.String()+` GROUP BY c.status`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("error counting complaints: %w", err)
	}
	defer rows.Close()

	counts := models.StatusCounts{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning complaint counts: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountUnassigned counts open complaints of a ward without an officer.
func (c *CivicDB) CountUnassigned(ctx context.Context, wardID int64) (int64, error) {
	var n int64
	err := c.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM complaints
		WHERE ward_id = $1 AND assigned_officer_id IS NULL AND status = ANY($2)`,
		wardID, pq.Array([]string{catalog.StatusSubmitted, catalog.StatusReopened})).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting unassigned complaints: %w", err)
	}
	return n, nil
}

// GetTimeline returns the status history of a complaint, oldest first.
func (c *CivicDB) GetTimeline(ctx context.Context, complaintID int64) ([]models.TimelineEntry, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT t.id, t.complaint_id, t.from_status, t.to_status, t.action, t.actor_id, COALESCE(u.name, ''),
			t.actor_role, t.remarks, t.created_at
		FROM complaint_timeline t LEFT JOIN users u ON u.id = t.actor_id
		WHERE t.complaint_id = $1 ORDER BY t.created_at, t.id`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving timeline: %w", err)
	}
	defer rows.Close()

	entries := []models.TimelineEntry{}
	for rows.Next() {
		var e models.TimelineEntry
		var actor sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.FromStatus, &e.ToStatus, &e.Action, &actor, &e.ActorName,
			&e.ActorRole, &e.Remarks, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning timeline: %w", err)
		}
		e.ActorID = int64Ptr(actor)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LeastLoadedOfficer picks the active department officer of a ward and
// department with the fewest open complaints. It returns nil when there is none.
func (c *CivicDB) LeastLoadedOfficer(ctx context.Context, wardID, departmentID int64) (*int64, error) {
	var id int64
	err := c.DB.QueryRowContext(ctx, `
		SELECT u.id FROM users u
		LEFT JOIN complaints c ON c.assigned_officer_id = u.id AND c.status = ANY($3)
		WHERE u.role = $4 AND u.active AND u.ward_id = $1 AND u.department_id = $2
		GROUP BY u.id
		ORDER BY COUNT(c.id), u.id
		LIMIT 1`,
		wardID, departmentID, pq.Array(workflow.OpenStatuses()), catalog.RoleDepartmentOfficer).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error selecting officer: %w", err)
	}
	return &id, nil
}

// OfficerWorkload lists department officers with their open complaint
// counts, restricted to one ward when wardID is set.
func (c *CivicDB) OfficerWorkload(ctx context.Context, wardID *int64) ([]models.OfficerLoad, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT u.id, u.name, COALESCE(u.ward_id, 0), COALESCE(w.area_name, ''), COALESCE(u.department_id, 0),
			COALESCE(d.name, ''), u.active, COUNT(c.id)
		FROM users u
		LEFT JOIN wards w ON w.id = u.ward_id
		LEFT JOIN departments d ON d.id = u.department_id
		LEFT JOIN complaints c ON c.assigned_officer_id = u.id AND c.status = ANY($2)
		WHERE u.role = $3 AND ($1::bigint IS NULL OR u.ward_id = $1)
		GROUP BY u.id, u.name, u.ward_id, w.area_name, u.department_id, d.name, u.active
		ORDER BY COUNT(c.id) DESC, u.name`,
		nullableWard(wardID), pq.Array(workflow.OpenStatuses()), catalog.RoleDepartmentOfficer)
	if err != nil {
		return nil, fmt.Errorf("error retrieving officer workload: %w", err)
	}
	defer rows.Close()

	loads := []models.OfficerLoad{}
	for rows.Next() {
		var l models.OfficerLoad
		if err := rows.Scan(&l.OfficerID, &l.Name, &l.WardID, &l.WardName, &l.DepartmentID, &l.DepartmentName,
			&l.Active, &l.OpenCount); err != nil {
			return nil, fmt.Errorf("error scanning officer workload: %w", err)
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

func nullableWard(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// AddImage records photo metadata for a complaint.
func (c *CivicDB) AddImage(ctx context.Context, img *models.ComplaintImage) (*models.ComplaintImage, error) {
	out := *img
	out.CreatedAt = c.now()
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO complaint_images (complaint_id, stage, object_key, content_type, size_bytes, uploaded_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			img.ComplaintID, img.Stage, img.ObjectKey, img.ContentType, img.SizeBytes, img.UploadedBy, out.CreatedAt).
			Scan(&out.ID)
		if err != nil {
			return fmt.Errorf("error inserting image: %w", err)
		}
		return c.insertAudit(ctx, tx, img.UploadedBy, "", "IMAGE_UPLOADED", "COMPLAINT", img.ComplaintID, img.Stage)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CivicDB) ListImages(ctx context.Context, complaintID int64) ([]models.ComplaintImage, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT id, complaint_id, stage, object_key, content_type, size_bytes, uploaded_by, created_at
		FROM complaint_images WHERE complaint_id = $1 ORDER BY created_at, id`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving images: %w", err)
	}
	defer rows.Close()

	images := []models.ComplaintImage{}
	for rows.Next() {
		var img models.ComplaintImage
		if err := rows.Scan(&img.ID, &img.ComplaintID, &img.Stage, &img.ObjectKey, &img.ContentType,
			&img.SizeBytes, &img.UploadedBy, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning images: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetImage returns one image of a complaint, or nil if it does not exist.
func (c *CivicDB) GetImage(ctx context.Context, complaintID, imageID int64) (*models.ComplaintImage, error) {
	var img models.ComplaintImage
	err := c.DB.QueryRowContext(ctx, `
		SELECT id, complaint_id, stage, object_key, content_type, size_bytes, uploaded_by, created_at
		FROM complaint_images WHERE complaint_id = $1 AND id = $2`, complaintID, imageID).
		Scan(&img.ID, &img.ComplaintID, &img.Stage, &img.ObjectKey, &img.ContentType,
			&img.SizeBytes, &img.UploadedBy, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning image: %w", err)
	}
	return &img, nil
}

// AddFeedback stores the single feedback of a complaint. A second feedback
// returns ErrConflict.
func (c *CivicDB) AddFeedback(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
	out := *fb
	out.CreatedAt = c.now()
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO complaint_feedback (complaint_id, citizen_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			fb.ComplaintID, fb.CitizenID, fb.Rating, fb.Comment, out.CreatedAt).Scan(&out.ID)
		if err != nil {
			return fmt.Errorf("error inserting feedback: %w", translate(err))
		}
		return c.insertAudit(ctx, tx, fb.CitizenID, catalog.RoleCitizen, "FEEDBACK_SUBMITTED", "COMPLAINT",
			fb.ComplaintID, fmt.Sprintf("rating=%d", fb.Rating))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFeedback returns the feedback of a complaint, or nil if none was given.
func (c *CivicDB) GetFeedback(ctx context.Context, complaintID int64) (*models.Feedback, error) {
	var fb models.Feedback
	err := c.DB.QueryRowContext(ctx, `
		SELECT id, complaint_id, citizen_id, rating, comment, created_at
		FROM complaint_feedback WHERE complaint_id = $1`, complaintID).
		Scan(&fb.ID, &fb.ComplaintID, &fb.CitizenID, &fb.Rating, &fb.Comment, &fb.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning feedback: %w", err)
	}
	return &fb, nil
}
