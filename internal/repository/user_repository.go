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

// UserRepository provides database access for every principal kind. Students
// and teachers carry extra attributes in profile side tables.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, active, created_at, updated_at`

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// EmailExists reports whether any principal already uses the email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE email = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return true, nil
}

// CreateStudent inserts the user row, its student profile, and the audit
// entry in one transaction.
func (r *UserRepository) CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUserTx(ctx, tx, user); err != nil {
		return err
	}
	profile.UserID = user.ID
	const profileQuery = `INSERT INTO student_profiles (user_id, class_id, department_id) VALUES (:user_id, :class_id, :department_id)`
	if _, err = tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}

	audit.EntityID = user.ID
	if audit.ActionBy == "" {
		audit.ActionBy = user.ID
	}
	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student create: %w", err)
	}
	return nil
}

// CreateTeacher inserts the user row, its teacher profile, and the audit
// entry in one transaction.
func (r *UserRepository) CreateTeacher(ctx context.Context, user *models.User, profile *models.TeacherProfile, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin teacher create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUserTx(ctx, tx, user); err != nil {
		return err
	}
	profile.UserID = user.ID
	const profileQuery = `INSERT INTO teacher_profiles (user_id, department_id) VALUES (:user_id, :department_id)`
	if _, err = tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		return fmt.Errorf("create teacher profile: %w", err)
	}

	audit.EntityID = user.ID
	if audit.ActionBy == "" {
		audit.ActionBy = user.ID
	}
	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit teacher create: %w", err)
	}
	return nil
}

// CreateAdmin inserts an admin user row. Used by the seeder.
func (r *UserRepository) CreateAdmin(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admin create: %w", err)
	}
	if err := insertUserTx(ctx, tx, user); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admin create: %w", err)
	}
	return nil
}

func insertUserTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
	VALUES (:id, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash together with its audit entry.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin password update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit password update: %w", err)
	}
	return nil
}

// Deactivate clears the active flag, recording the audit entry atomically.
func (r *UserRepository) Deactivate(ctx context.Context, id string, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user deactivate: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deactivated user rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit user deactivate: %w", err)
	}
	return nil
}

// StudentDetail loads a student user with class and department names.
func (r *UserRepository) StudentDetail(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT u.id, u.email, u.password_hash, u.full_name, u.role, u.active, u.created_at, u.updated_at,
       sp.class_id, c.name AS class_name, sp.department_id, d.name AS department_name
	FROM users u
	JOIN student_profiles sp ON sp.user_id = u.id
	JOIN classes c ON c.id = sp.class_id
	JOIN departments d ON d.id = sp.department_id
	WHERE u.id = $1 AND u.role = $2`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, models.RoleStudent); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ClassOf resolves the class a student belongs to.
func (r *UserRepository) ClassOf(ctx context.Context, studentID string) (string, error) {
	const query = `SELECT class_id FROM student_profiles WHERE user_id = $1`
	var classID string
	if err := r.db.GetContext(ctx, &classID, query, studentID); err != nil {
		return "", err
	}
	return classID, nil
}

// ListActiveStudents returns all active students with hierarchy names.
func (r *UserRepository) ListActiveStudents(ctx context.Context) ([]models.StudentDetail, error) {
	const query = `SELECT u.id, u.email, u.password_hash, u.full_name, u.role, u.active, u.created_at, u.updated_at,
       sp.class_id, c.name AS class_name, sp.department_id, d.name AS department_name
	FROM users u
	JOIN student_profiles sp ON sp.user_id = u.id
	JOIN classes c ON c.id = sp.class_id
	JOIN departments d ON d.id = sp.department_id
	WHERE u.role = $1 AND u.active = TRUE
	ORDER BY u.full_name ASC`
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// ListActiveStudentsByClass returns active students of one class.
func (r *UserRepository) ListActiveStudentsByClass(ctx context.Context, classID string) ([]models.User, error) {
	const query = `SELECT u.id, u.email, u.password_hash, u.full_name, u.role, u.active, u.created_at, u.updated_at
	FROM users u
	JOIN student_profiles sp ON sp.user_id = u.id
	WHERE sp.class_id = $1 AND u.active = TRUE
	ORDER BY u.full_name ASC`
	var students []models.User
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students by class: %w", err)
	}
	return students, nil
}

// ListActiveTeachers returns all active teachers with department names.
func (r *UserRepository) ListActiveTeachers(ctx context.Context) ([]models.TeacherDetail, error) {
	const query = `SELECT u.id, u.email, u.password_hash, u.full_name, u.role, u.active, u.created_at, u.updated_at,
       tp.department_id, d.name AS department_name
	FROM users u
	JOIN teacher_profiles tp ON tp.user_id = u.id
	JOIN departments d ON d.id = tp.department_id
	WHERE u.role = $1 AND u.active = TRUE
	ORDER BY u.full_name ASC`
	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// CountActiveByDepartment reports active teachers and students bound to a
// department, used to guard hard deletes.
func (r *UserRepository) CountActiveByDepartment(ctx context.Context, departmentID string) (teachers int, students int, err error) {
	const teacherQuery = `SELECT COUNT(*) FROM users u JOIN teacher_profiles tp ON tp.user_id = u.id
	WHERE tp.department_id = $1 AND u.active = TRUE`
	if err = r.db.GetContext(ctx, &teachers, teacherQuery, departmentID); err != nil {
		return 0, 0, fmt.Errorf("count teachers by department: %w", err)
	}
	const studentQuery = `SELECT COUNT(*) FROM users u JOIN student_profiles sp ON sp.user_id = u.id
	WHERE sp.department_id = $1 AND u.active = TRUE`
	if err = r.db.GetContext(ctx, &students, studentQuery, departmentID); err != nil {
		return 0, 0, fmt.Errorf("count students by department: %w", err)
	}
	return teachers, students, nil
}

// CountActiveStudentsByClass reports active students in a class.
func (r *UserRepository) CountActiveStudentsByClass(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users u JOIN student_profiles sp ON sp.user_id = u.id
	WHERE sp.class_id = $1 AND u.active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count students by class: %w", err)
	}
	return count, nil
}
