package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicconnect/civicconnect-services/models"
)

// CreateNotification stores an in-app notification for a user.
func (c *CivicDB) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	out := *n
	out.CreatedAt = c.now()
	out.Read = false
	err := c.DB.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, complaint_id, type, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING id`,
		n.UserID, n.ComplaintID, n.Type, n.Title, n.Message, out.CreatedAt).Scan(&out.ID)
	if err != nil {
		return nil, fmt.Errorf("error inserting notification: %w", translate(err))
	}
	return &out, nil
}

// ListNotifications returns a page of a user's notifications, newest first.
func (c *CivicDB) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, p models.Pagination) (models.Page[models.Notification], error) {
	p = p.Normalize()
	w := &where{}
	w.add("user_id = $%d", userID)
	if unreadOnly {
		w.addRaw("NOT read")
	}

	var total int64
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+w.String(), w.args...).Scan(&total); err != nil {
		return models.Page[models.Notification]{}, fmt.Errorf("error counting notifications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, complaint_id, type, title, message, read, created_at
		FROM notifications%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		w.String(), w.next(), w.next()+1)
	rows, err := c.DB.QueryContext(ctx, query, append(w.args, p.Size, p.Offset())...)
	if err != nil {
		return models.Page[models.Notification]{}, fmt.Errorf("error retrieving notifications: %w", err)
	}
	defer rows.Close()

	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		var complaintID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &complaintID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return models.Page[models.Notification]{}, fmt.Errorf("error scanning notifications: %w", err)
		}
		n.ComplaintID = int64Ptr(complaintID)
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Notification]{}, err
	}
	return models.NewPage(list, p, total), nil
}

func (c *CivicDB) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks one of the user's notifications read. A
// notification owned by someone else is reported as ErrNotFound.
func (c *CivicDB) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	n, err := c.execQuery(ctx, c.DB, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead returns the number of notifications changed.
func (c *CivicDB) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := c.execQuery(ctx, c.DB, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return n, nil
}

func (c *CivicDB) DeleteNotification(ctx context.Context, userID, id int64) error {
	n, err := c.execQuery(ctx, c.DB, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting notification: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearReadNotifications deletes the user's read notifications and returns
// how many were removed.
func (c *CivicDB) ClearReadNotifications(ctx context.Context, userID int64) (int64, error) {
	n, err := c.execQuery(ctx, c.DB, `DELETE FROM notifications WHERE user_id = $1 AND read`, userID)
	if err != nil {
		return 0, fmt.Errorf("error clearing read notifications: %w", err)
	}
	return n, nil
}
