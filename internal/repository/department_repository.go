// This file defines repository methods for departments. A Department groups
// rooms and carries the set of coordinator user ids as an m2m relation;
// coordinator membership feeds the room access check.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/portafacil/access-control/internal/model"
)

// ErrDepartmentNotFound is returned when a department cannot be found.
var ErrDepartmentNotFound = errors.New("department not found")

// DepartmentRepo encapsulates all database queries related to departments.
type DepartmentRepo struct {
	db *sql.DB
}

func NewDepartmentRepo(db *sql.DB) *DepartmentRepo {
	return &DepartmentRepo{db: db}
}

// Create inserts a department and its coordinator relations in one
// transaction.  On success the ID and timestamp fields are populated.
func (r *DepartmentRepo) Create(ctx context.Context, d *model.Department) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		"INSERT INTO departments (code, name) VALUES (?,?)", d.Code, d.Name)
	if err != nil {
		if isDuplicate(err) {
			err = ErrConflict
		}
		return err
	}
	id, err2 := res.LastInsertId()
	if err2 != nil {
		err = err2
		return err
	}
	d.ID = uint64(id)

	for _, uid := range d.Coordinators {
		if _, err = tx.ExecContext(ctx,
			"INSERT IGNORE INTO department_coordinators (department_id, user_id) VALUES (?,?)",
			d.ID, uid); err != nil {
			return err
		}
	}
	err = tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM departments WHERE id=?", d.ID).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	return err
}

// GetByID fetches a department with its coordinator ids.
func (r *DepartmentRepo) GetByID(ctx context.Context, id uint64) (*model.Department, error) {
	var d model.Department
	err := r.db.QueryRowContext(ctx,
		"SELECT id, code, name, created_at, updated_at FROM departments WHERE id=?", id).
		Scan(&d.ID, &d.Code, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	d.Coordinators, err = r.coordinatorIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all departments ordered by code, without coordinator ids.
func (r *DepartmentRepo) List(ctx context.Context) ([]*model.Department, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, name, created_at, updated_at FROM departments ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Department
	for rows.Next() {
		d := new(model.Department)
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields and replaces the coordinator set.
func (r *DepartmentRepo) Update(ctx context.Context, d *model.Department) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		"UPDATE departments SET code=?, name=? WHERE id=?", d.Code, d.Name, d.ID)
	if err != nil {
		if isDuplicate(err) {
			err = ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean an identical update; confirm existence.
		var exists int
		if err = tx.QueryRowContext(ctx,
			"SELECT 1 FROM departments WHERE id=?", d.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = ErrDepartmentNotFound
			}
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM department_coordinators WHERE department_id=?", d.ID); err != nil {
		return err
	}
	for _, uid := range d.Coordinators {
		if _, err = tx.ExecContext(ctx,
			"INSERT IGNORE INTO department_coordinators (department_id, user_id) VALUES (?,?)",
			d.ID, uid); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a department.  Rooms cascade through the FK.
func (r *DepartmentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM departments WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (r *DepartmentRepo) coordinatorIDs(ctx context.Context, departmentID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM department_coordinators WHERE department_id=? ORDER BY user_id",
		departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
