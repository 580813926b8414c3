package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/models"
)

func (c *CivicDB) ListWards(ctx context.Context) ([]models.Ward, error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT id, ward_number, area_name, zone FROM wards ORDER BY ward_number`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving wards: %w", err)
	}
	defer rows.Close()

	wards := []models.Ward{}
	for rows.Next() {
		var w models.Ward
		if err := rows.Scan(&w.ID, &w.Number, &w.AreaName, &w.Zone); err != nil {
			return nil, fmt.Errorf("error scanning wards: %w", err)
		}
		wards = append(wards, w)
	}
	return wards, rows.Err()
}

// GetWard returns the ward with id, or nil if it does not exist.
func (c *CivicDB) GetWard(ctx context.Context, id int64) (*models.Ward, error) {
	var w models.Ward
	err := c.DB.QueryRowContext(ctx, `SELECT id, ward_number, area_name, zone FROM wards WHERE id = $1`, id).
		Scan(&w.ID, &w.Number, &w.AreaName, &w.Zone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning ward: %w", err)
	}
	return &w, nil
}

func (c *CivicDB) CreateWard(ctx context.Context, req models.WardRequest, actorID int64) (*models.Ward, error) {
	w := models.Ward{Number: req.Number, AreaName: req.AreaName, Zone: req.Zone}
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO wards (ward_number, area_name, zone) VALUES ($1, $2, $3) RETURNING id`,
			req.Number, req.AreaName, req.Zone).Scan(&w.ID)
		if err != nil {
			return fmt.Errorf("error inserting ward: %w", translate(err))
		}
		return c.insertAudit(ctx, tx, actorID, catalog.RoleAdmin, "WARD_CREATED", "WARD", w.ID, req.AreaName)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

const departmentColumns = `id, name, icon, color, sla_hours, priority, description`

func scanDepartment(row interface{ Scan(...interface{}) error }) (*models.Department, error) {
	var d models.Department
	if err := row.Scan(&d.ID, &d.Name, &d.Icon, &d.Color, &d.SLAHours, &d.Priority, &d.Description); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *CivicDB) ListDepartments(ctx context.Context) ([]models.Department, error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving departments: %w", err)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning departments: %w", err)
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

// GetDepartment returns the department with id, or nil if it does not exist.
func (c *CivicDB) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	d, err := scanDepartment(c.DB.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning department: %w", err)
	}
	return d, nil
}

func (c *CivicDB) CreateDepartment(ctx context.Context, req models.DepartmentRequest, actorID int64) (*models.Department, error) {
	d := models.Department{
		Name: req.Name, Icon: req.Icon, Color: req.Color, SLAHours: req.SLAHours,
		Priority: req.Priority, Description: req.Description,
	}
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO departments (name, icon, color, sla_hours, priority, description)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			d.Name, d.Icon, d.Color, d.SLAHours, d.Priority, d.Description).Scan(&d.ID)
		if err != nil {
			return fmt.Errorf("error inserting department: %w", translate(err))
		}
		return c.insertAudit(ctx, tx, actorID, catalog.RoleAdmin, "DEPARTMENT_CREATED", "DEPARTMENT", d.ID, d.Name)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}
