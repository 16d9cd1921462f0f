package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mowamiyya/leaveMangement/internal/models"
)

// DepartmentRepository provides CRUD access to departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new instance of DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

const departmentColumns = `id, name, active, created_at, updated_at`

// Create inserts a department together with its audit entry.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin department create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	department.Active = true
	department.CreatedAt = now
	department.UpdatedAt = now
	const query = `INSERT INTO departments (id, name, active, created_at, updated_at)
	VALUES (:id, :name, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}

	audit.EntityID = department.ID
	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit department create: %w", err)
	}
	return nil
}

// FindByID returns a department by identifier.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	query := fmt.Sprintf(`SELECT %s FROM departments WHERE id = $1`, departmentColumns)
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ActiveNameExists reports whether an active department already uses the name.
func (r *DepartmentRepository) ActiveNameExists(ctx context.Context, name string) (bool, error) {
	const query = `SELECT 1 FROM departments WHERE LOWER(name) = LOWER($1) AND active = TRUE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check department name: %w", err)
	}
	return true, nil
}

// ListActive returns active departments ordered by name.
func (r *DepartmentRepository) ListActive(ctx context.Context) ([]models.Department, error) {
	query := fmt.Sprintf(`SELECT %s FROM departments WHERE active = TRUE ORDER BY name ASC`, departmentColumns)
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// Update renames a department, recording the audit entry atomically.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin department update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, updated_at = :updated_at WHERE id = :id AND active = TRUE`
	result, err := tx.NamedExecContext(ctx, query, department)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated department rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit department update: %w", err)
	}
	return nil
}

// SoftDelete marks a department inactive.
func (r *DepartmentRepository) SoftDelete(ctx context.Context, id string, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin department soft delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE departments SET active = FALSE, updated_at = $2 WHERE id = $1 AND active = TRUE`
	result, err := tx.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete department: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check soft deleted department rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit department soft delete: %w", err)
	}
	return nil
}

// HardDelete removes a department row permanently. Callers must verify no
// classes or users still reference it.
func (r *DepartmentRepository) HardDelete(ctx context.Context, id string, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin department hard delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `DELETE FROM departments WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("hard delete department: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check hard deleted department rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit department hard delete: %w", err)
	}
	return nil
}

// CountActiveClasses reports active classes bound to the department.
func (r *DepartmentRepository) CountActiveClasses(ctx context.Context, departmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE department_id = $1 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, departmentID); err != nil {
		return 0, fmt.Errorf("count classes by department: %w", err)
	}
	return count, nil
}
