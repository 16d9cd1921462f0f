package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mowamiyya/leaveMangement/internal/models"
)

// LeaveStatusRepository reads and seeds the leave status reference table.
type LeaveStatusRepository struct {
	db *sqlx.DB
}

// NewLeaveStatusRepository creates a new instance of LeaveStatusRepository.
func NewLeaveStatusRepository(db *sqlx.DB) *LeaveStatusRepository {
	return &LeaveStatusRepository{db: db}
}

// List returns every workflow status.
func (r *LeaveStatusRepository) List(ctx context.Context) ([]models.LeaveStatus, error) {
	const query = `SELECT id, name, description FROM leave_statuses ORDER BY name ASC`
	var statuses []models.LeaveStatus
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list leave statuses: %w", err)
	}
	return statuses, nil
}

// Upsert inserts a status row if missing. Used by the seeder, idempotent.
func (r *LeaveStatusRepository) Upsert(ctx context.Context, status *models.LeaveStatus) error {
	const query = `INSERT INTO leave_statuses (id, name, description)
	VALUES (:id, :name, :description)
	ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("upsert leave status: %w", err)
	}
	return nil
}
