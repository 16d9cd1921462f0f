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

// ClassRepository provides CRUD access to classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new instance of ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, name, department_id, active, created_at, updated_at`

// Create inserts a class together with its audit entry.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.Active = true
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, department_id, active, created_at, updated_at)
	VALUES (:id, :name, :department_id, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}

	audit.EntityID = class.ID
	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class create: %w", err)
	}
	return nil
}

// FindByID returns a class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE id = $1`, classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ActiveNameExists reports whether an active class in the department already
// uses the name.
func (r *ClassRepository) ActiveNameExists(ctx context.Context, departmentID, name string) (bool, error) {
	const query = `SELECT 1 FROM classes WHERE department_id = $1 AND LOWER(name) = LOWER($2) AND active = TRUE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, departmentID, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class name: %w", err)
	}
	return true, nil
}

// ListActive returns active classes with department names.
func (r *ClassRepository) ListActive(ctx context.Context) ([]models.ClassDetail, error) {
	const query = `SELECT c.id, c.name, c.department_id, c.active, c.created_at, c.updated_at,
       d.name AS department_name
	FROM classes c
	JOIN departments d ON d.id = c.department_id
	WHERE c.active = TRUE
	ORDER BY d.name ASC, c.name ASC`
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListActiveByDepartment returns active classes of one department.
func (r *ClassRepository) ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE department_id = $1 AND active = TRUE ORDER BY name ASC`, classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, departmentID); err != nil {
		return nil, fmt.Errorf("list classes by department: %w", err)
	}
	return classes, nil
}

// Update changes a class name or department, recording the audit entry.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, department_id = :department_id, updated_at = :updated_at
	WHERE id = :id AND active = TRUE`
	result, err := tx.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated class rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class update: %w", err)
	}
	return nil
}

// SoftDelete marks a class inactive.
func (r *ClassRepository) SoftDelete(ctx context.Context, id string, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class soft delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE classes SET active = FALSE, updated_at = $2 WHERE id = $1 AND active = TRUE`
	result, err := tx.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete class: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check soft deleted class rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class soft delete: %w", err)
	}
	return nil
}

// HardDelete removes a class row permanently. Callers must verify no
// students or assignments still reference it.
func (r *ClassRepository) HardDelete(ctx context.Context, id string, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class hard delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `DELETE FROM classes WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("hard delete class: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check hard deleted class rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class hard delete: %w", err)
	}
	return nil
}

// CountActiveAssignments reports active teacher assignments for the class.
func (r *ClassRepository) CountActiveAssignments(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_teachers WHERE class_id = $1 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count assignments by class: %w", err)
	}
	return count, nil
}
