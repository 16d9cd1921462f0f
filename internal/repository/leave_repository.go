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

// LeaveRepository persists leave applications and their resolution. Every
// mutating method takes the audit entry that must commit atomically with the
// mutation.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveDetailColumns = `l.id, l.applicant_id, l.applicant_role, l.from_date, l.to_date, l.subject, l.reason,
       l.reported_to, l.status, l.applied_at, l.approved_by, l.approved_at, l.rejected_by, l.rejected_at,
       l.rejection_reason, l.created_at, l.updated_at,
       applicant.full_name AS applicant_name,
       c.name AS class_name,
       d.name AS department_name,
       rt.full_name AS reported_to_name,
       ab.full_name AS approved_by_name,
       rb.full_name AS rejected_by_name`

const leaveDetailJoins = `FROM leaves l
LEFT JOIN users applicant ON applicant.id = l.applicant_id
LEFT JOIN student_profiles sp ON sp.user_id = l.applicant_id
LEFT JOIN classes c ON c.id = sp.class_id
LEFT JOIN departments d ON d.id = sp.department_id
LEFT JOIN users rt ON rt.id = l.reported_to
LEFT JOIN users ab ON ab.id = l.approved_by
LEFT JOIN users rb ON rb.id = l.rejected_by`

// Create inserts a new application together with its audit entry in one
// transaction.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave, audit *models.AuditLog) (err error) {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if leave.AppliedAt.IsZero() {
		leave.AppliedAt = now
	}
	leave.CreatedAt = now
	leave.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin leave create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO leaves
	(id, applicant_id, applicant_role, from_date, to_date, subject, reason, reported_to, status, applied_at, created_at, updated_at)
	VALUES (:id, :applicant_id, :applicant_role, :from_date, :to_date, :subject, :reason, :reported_to, :status, :applied_at, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}

	audit.EntityID = leave.ID
	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit leave create: %w", err)
	}
	return nil
}

// GetByID fetches a bare leave row.
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*models.Leave, error) {
	const query = `SELECT id, applicant_id, applicant_role, from_date, to_date, subject, reason, reported_to,
       status, applied_at, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_at, updated_at
	FROM leaves WHERE id = $1`
	var leave models.Leave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// GetDetailByID fetches a leave with resolved display names.
func (r *LeaveRepository) GetDetailByID(ctx context.Context, id string) (*models.LeaveDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE l.id = $1", leaveDetailColumns, leaveDetailJoins)
	var detail models.LeaveDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ResolveParams carries the approved or rejected outcome of a review.
type ResolveParams struct {
	LeaveID         string
	Status          models.LeaveStatusName
	ResolverID      string
	ResolvedAt      time.Time
	RejectionReason *string
}

// Resolve finalizes a pending leave and appends the audit entry in a single
// transaction. The status guard makes concurrent resolutions race safely:
// whichever transaction commits first wins and the loser observes
// sql.ErrNoRows.
func (r *LeaveRepository) Resolve(ctx context.Context, params ResolveParams, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin leave resolve: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var query string
	var args []interface{}
	switch params.Status {
	case models.LeaveStatusApproved:
		query = `UPDATE leaves
	SET status = $1, approved_by = $2, approved_at = $3,
	    rejected_by = NULL, rejected_at = NULL, rejection_reason = NULL, updated_at = $3
	WHERE id = $4 AND status = $5`
		args = []interface{}{params.Status, params.ResolverID, params.ResolvedAt, params.LeaveID, models.LeaveStatusPending}
	case models.LeaveStatusRejected:
		query = `UPDATE leaves
	SET status = $1, rejected_by = $2, rejected_at = $3, rejection_reason = $4,
	    approved_by = NULL, approved_at = NULL, updated_at = $3
	WHERE id = $5 AND status = $6`
		args = []interface{}{params.Status, params.ResolverID, params.ResolvedAt, params.RejectionReason, params.LeaveID, models.LeaveStatusPending}
	default:
		return fmt.Errorf("resolve leave: unsupported status %s", params.Status)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("resolve leave: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resolved leave rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit leave resolve: %w", err)
	}
	return nil
}

// ListByApplicant returns an applicant's leaves, newest first.
func (r *LeaveRepository) ListByApplicant(ctx context.Context, applicantID string, role models.ApplicantRole) ([]models.LeaveDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE l.applicant_id = $1 AND l.applicant_role = $2 ORDER BY l.created_at DESC",
		leaveDetailColumns, leaveDetailJoins)
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, applicantID, role); err != nil {
		return nil, fmt.Errorf("list leaves by applicant: %w", err)
	}
	return leaves, nil
}

// ListPendingForTeacher returns pending leaves reported to the teacher,
// newest first.
func (r *LeaveRepository) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.LeaveDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE l.reported_to = $1 AND l.status = $2 ORDER BY l.applied_at DESC",
		leaveDetailColumns, leaveDetailJoins)
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, teacherID, models.LeaveStatusPending); err != nil {
		return nil, fmt.Errorf("list pending leaves for teacher: %w", err)
	}
	return leaves, nil
}

// ListAllForTeacher returns every leave ever reported to the teacher,
// newest first.
func (r *LeaveRepository) ListAllForTeacher(ctx context.Context, teacherID string) ([]models.LeaveDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE l.reported_to = $1 ORDER BY l.applied_at DESC",
		leaveDetailColumns, leaveDetailJoins)
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, teacherID); err != nil {
		return nil, fmt.Errorf("list leaves for teacher: %w", err)
	}
	return leaves, nil
}

// CountsForApplicant aggregates an applicant's leaves per status.
func (r *LeaveRepository) CountsForApplicant(ctx context.Context, applicantID string, role models.ApplicantRole) (*models.LeaveCounts, error) {
	const query = `SELECT COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
       COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
       COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected
	FROM leaves WHERE applicant_id = $1 AND applicant_role = $2`
	var counts models.LeaveCounts
	if err := r.db.GetContext(ctx, &counts, query, applicantID, role); err != nil {
		return nil, fmt.Errorf("count leaves for applicant: %w", err)
	}
	return &counts, nil
}

// CountsAll aggregates every leave in the system per status.
func (r *LeaveRepository) CountsAll(ctx context.Context) (*models.LeaveCounts, error) {
	const query = `SELECT COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
       COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
       COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected
	FROM leaves`
	var counts models.LeaveCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count all leaves: %w", err)
	}
	return &counts, nil
}

// CountsForTeacher aggregates leaves reported to a teacher per status.
func (r *LeaveRepository) CountsForTeacher(ctx context.Context, teacherID string) (*models.LeaveCounts, error) {
	const query = `SELECT COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
       COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
       COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected
	FROM leaves WHERE reported_to = $1`
	var counts models.LeaveCounts
	if err := r.db.GetContext(ctx, &counts, query, teacherID); err != nil {
		return nil, fmt.Errorf("count leaves for teacher: %w", err)
	}
	return &counts, nil
}
