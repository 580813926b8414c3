package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/civicconnect/civicconnect-services/models"
)

const wardChangeSelect = `
	SELECT r.id, r.citizen_id, u.name, r.current_ward_id, cw.area_name, r.requested_ward_id, rw.area_name,
		r.reason, r.status, r.decided_by, r.decision_remarks, r.created_at, r.decided_at
	FROM ward_change_requests r
	JOIN users u ON u.id = r.citizen_id
	JOIN wards cw ON cw.id = r.current_ward_id
	JOIN wards rw ON rw.id = r.requested_ward_id`

func scanWardChange(row interface{ Scan(...interface{}) error }) (*models.WardChangeRequest, error) {
	var r models.WardChangeRequest
	var decidedBy sql.NullInt64
	var decidedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.CitizenID, &r.CitizenName, &r.CurrentWardID, &r.CurrentWardName,
		&r.RequestedWardID, &r.RequestedWardName, &r.Reason, &r.Status, &decidedBy, &r.DecisionRemarks,
		&r.CreatedAt, &decidedAt); err != nil {
		return nil, err
	}
	r.DecidedBy = int64Ptr(decidedBy)
	r.DecidedAt = timePtr(decidedAt)
	return &r, nil
}

func (c *CivicDB) listWardChanges(ctx context.Context, cond string, args ...interface{}) ([]models.WardChangeRequest, error) {
	rows, err := c.DB.QueryContext(ctx, wardChangeSelect+cond+` ORDER BY r.created_at DESC, r.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("error retrieving ward change requests: %w", err)
	}
	defer rows.Close()

	list := []models.WardChangeRequest{}
	for rows.Next() {
		r, err := scanWardChange(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning ward change requests: %w", err)
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}

// CreateWardChange files a request. A citizen with a pending request gets ErrConflict.
func (c *CivicDB) CreateWardChange(ctx context.Context, r *models.WardChangeRequest) (*models.WardChangeRequest, error) {
	var created *models.WardChangeRequest
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO ward_change_requests (citizen_id, current_ward_id, requested_ward_id, reason, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			r.CitizenID, r.CurrentWardID, r.RequestedWardID, r.Reason, models.WardChangePending, c.now()).Scan(&id)
		if err != nil {
			return fmt.Errorf("error inserting ward change request: %w", translate(err))
		}
		if err := c.insertAudit(ctx, tx, r.CitizenID, "", "WARD_CHANGE_REQUESTED", "WARD_CHANGE", id,
			fmt.Sprintf("ward %d -> %d", r.CurrentWardID, r.RequestedWardID)); err != nil {
			return err
		}
		created, err = scanWardChange(tx.QueryRowContext(ctx, wardChangeSelect+` WHERE r.id = $1`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetWardChange returns the request with id, or nil if it does not exist.
func (c *CivicDB) GetWardChange(ctx context.Context, id int64) (*models.WardChangeRequest, error) {
	r, err := scanWardChange(c.DB.QueryRowContext(ctx, wardChangeSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning ward change request: %w", err)
	}
	return r, nil
}

func (c *CivicDB) ListWardChangesByCitizen(ctx context.Context, citizenID int64) ([]models.WardChangeRequest, error) {
	return c.listWardChanges(ctx, ` WHERE r.citizen_id = $1`, citizenID)
}

// ListPendingWardChanges lists pending requests leaving or entering the scoped ward.
func (c *CivicDB) ListPendingWardChanges(ctx context.Context, scope models.WardChangeScope) ([]models.WardChangeRequest, error) {
	if scope.WardID == nil {
		return c.listWardChanges(ctx, ` WHERE r.status = $1`, models.WardChangePending)
	}
	return c.listWardChanges(ctx, ` WHERE r.status = $1 AND (r.current_ward_id = $2 OR r.requested_ward_id = $2)`,
		models.WardChangePending, *scope.WardID)
}

// DecideWardChange approves or rejects a pending request. Approval moves the
// citizen to the requested ward in the same transaction. A request that is
// no longer pending returns ErrConflict.
func (c *CivicDB) DecideWardChange(ctx context.Context, id int64, approve bool, deciderID int64, deciderRole, remarks string) (*models.WardChangeRequest, error) {
	status := models.WardChangeRejected
	if approve {
		status = models.WardChangeApproved
	}

	var decided *models.WardChangeRequest
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var citizenID, requestedWard int64
		err := tx.QueryRowContext(ctx, `
			UPDATE ward_change_requests
			SET status = $1, decided_by = $2, decision_remarks = $3, decided_at = $4
			WHERE id = $5 AND status = $6
			RETURNING citizen_id, requested_ward_id`,
			status, deciderID, remarks, c.now(), id, models.WardChangePending).Scan(&citizenID, &requestedWard)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ward_change_requests WHERE id = $1)`, id).
				Scan(&exists); err != nil {
				return fmt.Errorf("error reading ward change request: %w", err)
			}
			if !exists {
				return ErrNotFound
			}
			return fmt.Errorf("ward change request %d already decided: %w", id, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("error deciding ward change request: %w", err)
		}

		if approve {
			if _, err := c.execQuery(ctx, tx, `UPDATE users SET ward_id = $1, updated_at = $2 WHERE id = $3`,
				requestedWard, c.now(), citizenID); err != nil {
				return fmt.Errorf("error moving citizen ward: %w", err)
			}
		}

		if err := c.insertAudit(ctx, tx, deciderID, deciderRole, "WARD_CHANGE_"+status, "WARD_CHANGE", id, remarks); err != nil {
			return err
		}
		decided, err = scanWardChange(tx.QueryRowContext(ctx, wardChangeSelect+` WHERE r.id = $1`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// CountPendingWardChanges counts pending requests touching a ward.
func (c *CivicDB) CountPendingWardChanges(ctx context.Context, wardID int64) (int64, error) {
	var n int64
	err := c.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ward_change_requests
		WHERE status = $1 AND (current_ward_id = $2 OR requested_ward_id = $2)`,
		models.WardChangePending, wardID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting ward change requests: %w", err)
	}
	return n, nil
}
