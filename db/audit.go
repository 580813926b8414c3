package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicconnect/civicconnect-services/models"
)

// insertAudit appends an audit row. An empty role is looked up from the actor.
func (c *CivicDB) insertAudit(ctx context.Context, q querier, actorID int64, actorRole, action, entityType string, entityID int64, details string) error {
	_, err := c.execQuery(ctx, q, `
		INSERT INTO audit_logs (actor_id, actor_role, action, entity_type, entity_id, details, created_at)
		VALUES ($1, COALESCE(NULLIF($2, ''), (SELECT role FROM users WHERE id = $1), 'SYSTEM'), $3, $4, $5, $6, $7)`,
		nullableID(actorID), actorRole, action, entityType, entityID, details, c.now())
	if err != nil {
		return fmt.Errorf("error inserting audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns a page of audit rows, newest first.
func (c *CivicDB) ListAuditLogs(ctx context.Context, f models.AuditFilter) (models.Page[models.AuditLog], error) {
	f.Pagination = f.Pagination.Normalize()

	w := &where{}
	if f.EntityType != "" {
		w.add("a.entity_type = $%d", f.EntityType)
	}
	if f.EntityID != nil {
		w.add("a.entity_id = $%d", *f.EntityID)
	}
	if f.ActorID != nil {
		w.add("a.actor_id = $%d", *f.ActorID)
	}
	if f.Action != "" {
		w.add("a.action = $%d", f.Action)
	}

	var total int64
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs a`+w.String(), w.args...).Scan(&total); err != nil {
		return models.Page[models.AuditLog]{}, fmt.Errorf("error counting audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.actor_id, COALESCE(u.name, ''), a.actor_role, a.action, a.entity_type, a.entity_id, a.details, a.created_at
		FROM audit_logs a LEFT JOIN users u ON u.id = a.actor_id%s
		ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d`, w.String(), w.next(), w.next()+1)
	rows, err := c.DB.QueryContext(ctx, query, append(w.args, f.Size, f.Offset())...)
	if err != nil {
		return models.Page[models.AuditLog]{}, fmt.Errorf("error retrieving audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		var actorID sql.NullInt64
		if err := rows.Scan(&l.ID, &actorID, &l.ActorName, &l.ActorRole, &l.Action, &l.EntityType,
			&l.EntityID, &l.Details, &l.CreatedAt); err != nil {
			return models.Page[models.AuditLog]{}, fmt.Errorf("error scanning audit logs: %w", err)
		}
		l.ActorID = int64Ptr(actorID)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.AuditLog]{}, err
	}
	return models.NewPage(logs, f.Pagination, total), nil
}
