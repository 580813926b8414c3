package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/models"
)

const userColumns = `u.id, u.name, u.email, u.mobile, u.password_hash, u.role, u.ward_id, COALESCE(w.area_name, ''),
	u.department_id, COALESCE(d.name, ''), u.address_line1, u.address_line2, u.city, u.pincode,
	u.active, u.mobile_verified, u.created_at, u.updated_at`

const userFrom = ` FROM users u
	LEFT JOIN wards w ON w.id = u.ward_id
	LEFT JOIN departments d ON d.id = u.department_id`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var wardID, deptID sql.NullInt64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash, &u.Role, &wardID, &u.WardName,
		&deptID, &u.DepartmentName, &u.AddressLine1, &u.AddressLine2, &u.City, &u.Pincode,
		&u.Active, &u.MobileVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.WardID = int64Ptr(wardID)
	u.DepartmentID = int64Ptr(deptID)
	return &u, nil
}

func (c *CivicDB) getUser(ctx context.Context, q querier, cond string, arg interface{}) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+userFrom+` WHERE `+cond, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return u, nil
}

// GetUser returns the user with id, or nil if it does not exist.
func (c *CivicDB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return c.getUser(ctx, c.DB, "u.id = $1", id)
}

// UserActive reports whether the user exists and is active.
func (c *CivicDB) UserActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := c.DB.QueryRowContext(ctx, `SELECT active FROM users WHERE id = $1`, id).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error reading user status: %w", err)
	}
	return active, nil
}

func (c *CivicDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.getUser(ctx, c.DB, "lower(u.email) = lower($1)", strings.TrimSpace(email))
}

func (c *CivicDB) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return c.getUser(ctx, c.DB, "u.mobile = $1", mobile)
}

// CreateUser inserts u and records who created it. Duplicate email or mobile
// returns ErrConflict.
func (c *CivicDB) CreateUser(ctx context.Context, u *models.User, actorID int64, actorRole string) (*models.User, error) {
	var created *models.User
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (name, email, mobile, password_hash, role, ward_id, department_id,
				address_line1, address_line2, city, pincode, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, $12, $12)
			RETURNING id`,
			u.Name, strings.TrimSpace(u.Email), u.Mobile, u.PasswordHash, u.Role, u.WardID, u.DepartmentID,
			u.AddressLine1, u.AddressLine2, u.City, u.Pincode, c.now()).Scan(&id)
		if err != nil {
			return fmt.Errorf("error inserting user: %w", translate(err))
		}

		if actorID == 0 {
			actorID = id
		}
		if err := c.insertAudit(ctx, tx, actorID, actorRole, "USER_REGISTERED", "USER", id,
			fmt.Sprintf("role=%s", u.Role)); err != nil {
			return err
		}

		created, err = c.getUser(ctx, tx, "u.id = $1", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateProfile writes the editable profile fields of u.
func (c *CivicDB) UpdateProfile(ctx context.Context, u *models.User) (*models.User, error) {
	n, err := c.execQuery(ctx, c.DB, `
		UPDATE users SET name = $1, address_line1 = $2, address_line2 = $3, city = $4, pincode = $5, updated_at = $6
		WHERE id = $7`,
		u.Name, u.AddressLine1, u.AddressLine2, u.City, u.Pincode, c.now(), u.ID)
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return c.GetUser(ctx, u.ID)
}

func (c *CivicDB) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	return c.inTx(ctx, func(tx *sql.Tx) error {
		n, err := c.execQuery(ctx, tx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
			hash, c.now(), userID)
		if err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return c.insertAudit(ctx, tx, userID, "", "PASSWORD_CHANGED", "USER", userID, "")
	})
}

// ToggleUserActive flips the active flag and returns the updated user.
func (c *CivicDB) ToggleUserActive(ctx context.Context, userID, actorID int64) (*models.User, error) {
	var u *models.User
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var active bool
		err := tx.QueryRowContext(ctx,
			`UPDATE users SET active = NOT active, updated_at = $1 WHERE id = $2 RETURNING active`,
			c.now(), userID).Scan(&active)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("error toggling user status: %w", err)
		}

		if err := c.insertAudit(ctx, tx, actorID, catalog.RoleAdmin, "USER_STATUS_CHANGED", "USER", userID,
			fmt.Sprintf("active=%t", active)); err != nil {
			return err
		}

		u, err = c.getUser(ctx, tx, "u.id = $1", userID)
		return err
	})
	return u, err
}

// ListUsers returns a page of users matching f.
func (c *CivicDB) ListUsers(ctx context.Context, f models.UserFilter) (models.Page[models.User], error) {
	f.Pagination = f.Pagination.Normalize()

	w := &where{}
	if f.Role != "" {
		w.add("u.role = $%d", f.Role)
	}
	if f.WardID != nil {
		w.add("u.ward_id = $%d", *f.WardID)
	}
	if f.Active != nil {
		w.add("u.active = $%d", *f.Active)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		w.add("(u.name ILIKE $%[1]d OR u.email ILIKE $%[1]d OR u.mobile ILIKE $%[1]d)", "%"+q+"%")
	}

	var total int64
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+w.String(), w.args...).Scan(&total); err != nil {
		return models.Page[models.User]{}, fmt.Errorf("error counting users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY u.created_at DESC, u.id DESC LIMIT $%d OFFSET $%d`,
		userColumns, userFrom, w.String(), w.next(), w.next()+1)
	rows, err := c.DB.QueryContext(ctx, query, append(w.args, f.Size, f.Offset())...)
	if err != nil {
		return models.Page[models.User]{}, fmt.Errorf("error retrieving users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return models.Page[models.User]{}, fmt.Errorf("error scanning users: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, f.Pagination, total), nil
}

// ListDepartmentOfficers returns active department officers of a ward,
// optionally limited to one department.
func (c *CivicDB) ListDepartmentOfficers(ctx context.Context, wardID int64, departmentID *int64) ([]models.User, error) {
	w := &where{}
	w.add("u.role = $%d", catalog.RoleDepartmentOfficer)
	w.add("u.ward_id = $%d", wardID)
	w.addRaw("u.active")
	if departmentID != nil {
		w.add("u.department_id = $%d", *departmentID)
	}

	rows, err := c.DB.QueryContext(ctx, `SELECT `+userColumns+userFrom+w.String()+` ORDER BY u.name`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("error retrieving department officers: %w", err)
	}
	defer rows.Close()

	officers := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning department officers: %w", err)
		}
		officers = append(officers, *u)
	}
	return officers, rows.Err()
}

// CountUsersByRole returns the number of users per role.
func (c *CivicDB) CountUsersByRole(ctx context.Context) (map[string]int64, error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("error scanning user counts: %w", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

// EnsureAdmin creates the bootstrap admin when no user has that email.
func (c *CivicDB) EnsureAdmin(ctx context.Context, u *models.User) (bool, error) {
	existing, err := c.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	u.Role = catalog.RoleAdmin
	if _, err := c.CreateUser(ctx, u, 0, catalog.RoleSystem); err != nil {
		return false, err
	}
	return true, nil
}
