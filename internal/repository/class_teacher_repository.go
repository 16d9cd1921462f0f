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

// ClassTeacherRepository manages the class to teacher assignments that route
// student leave requests.
type ClassTeacherRepository struct {
	db *sqlx.DB
}

// NewClassTeacherRepository creates a new instance of ClassTeacherRepository.
func NewClassTeacherRepository(db *sqlx.DB) *ClassTeacherRepository {
	return &ClassTeacherRepository{db: db}
}

// ActiveByClass resolves the teacher currently responsible for a class.
// Returns sql.ErrNoRows when the class has no active assignment.
func (r *ClassTeacherRepository) ActiveByClass(ctx context.Context, classID string) (*models.ClassTeacher, error) {
	const query = `SELECT id, class_id, teacher_id, active, created_at, updated_at
	FROM class_teachers WHERE class_id = $1 AND active = TRUE LIMIT 1`
	var assignment models.ClassTeacher
	if err := r.db.GetContext(ctx, &assignment, query, classID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Assign makes the teacher responsible for the class. Any prior active
// assignment for the class is deactivated in the same transaction, and the
// audit entry rides along.
func (r *ClassTeacherRepository) Assign(ctx context.Context, assignment *models.ClassTeacher, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class teacher assign: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the current active row so concurrent assigns serialize.
	const lockQuery = `SELECT id FROM class_teachers WHERE class_id = $1 AND active = TRUE FOR UPDATE`
	var currentID string
	err = tx.GetContext(ctx, &currentID, lockQuery, assignment.ClassID)
	switch {
	case err == sql.ErrNoRows:
		err = nil
	case err != nil:
		return fmt.Errorf("lock active assignment: %w", err)
	default:
		const deactivateQuery = `UPDATE class_teachers SET active = FALSE, updated_at = $2 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, deactivateQuery, currentID, time.Now().UTC()); err != nil {
			return fmt.Errorf("deactivate prior assignment: %w", err)
		}
	}

	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.Active = true
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const insertQuery = `INSERT INTO class_teachers (id, class_id, teacher_id, active, created_at, updated_at)
	VALUES (:id, :class_id, :teacher_id, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, assignment); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	audit.EntityID = assignment.ID
	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class teacher assign: %w", err)
	}
	return nil
}

// ListActive returns every active assignment with display names.
func (r *ClassTeacherRepository) ListActive(ctx context.Context) ([]models.ClassTeacherDetail, error) {
	const query = `SELECT ct.id, ct.class_id, ct.teacher_id, ct.active, ct.created_at, ct.updated_at,
       c.name AS class_name, u.full_name AS teacher_name
	FROM class_teachers ct
	JOIN classes c ON c.id = ct.class_id
	JOIN users u ON u.id = ct.teacher_id
	WHERE ct.active = TRUE
	ORDER BY c.name ASC`
	var assignments []models.ClassTeacherDetail
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}
	return assignments, nil
}

// Deactivate retires an assignment without replacing it.
func (r *ClassTeacherRepository) Deactivate(ctx context.Context, id string, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment deactivate: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE class_teachers SET active = FALSE, updated_at = $2 WHERE id = $1 AND active = TRUE`
	result, err := tx.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deactivated assignment rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment deactivate: %w", err)
	}
	return nil
}

// CountActiveByTeacher reports active classes a teacher is responsible for.
func (r *ClassTeacherRepository) CountActiveByTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_teachers WHERE teacher_id = $1 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("count assignments by teacher: %w", err)
	}
	return count, nil
}
