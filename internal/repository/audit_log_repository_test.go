package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mowamiyya/leaveMangement/internal/models"
)

func newAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAuditLogRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewAuditLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{
		EntityType: models.AuditEntityLeave,
		EntityID:   "leave-1",
		Action:     models.AuditActionCreate,
		ActionBy:   "student-1",
		NewValue:   []byte(`{"status":"PENDING"}`),
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.ActionAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepositoryListByEntity(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewAuditLogRepository(db)
	rows := sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "action", "old_value", "new_value", "action_by", "action_at", "ip_address"}).
		AddRow("audit-2", "LEAVE", "leave-1", "APPROVE", []byte(`{"status":"PENDING"}`), []byte(`{"status":"APPROVED"}`), "teacher-1", time.Now(), nil).
		AddRow("audit-1", "LEAVE", "leave-1", "CREATE", nil, []byte(`{"status":"PENDING"}`), "student-1", time.Now().Add(-time.Hour), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entity_type, entity_id")).
		WithArgs("LEAVE", "leave-1").
		WillReturnRows(rows)

	entries, err := repo.ListByEntity(context.Background(), models.AuditEntityLeave, "leave-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.AuditActionApprove, entries[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepositoryListByActor(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewAuditLogRepository(db)
	rows := sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "action", "old_value", "new_value", "action_by", "action_at", "ip_address"}).
		AddRow("audit-1", "USER", "user-1", "LOGIN", nil, nil, "user-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entity_type, entity_id")).
		WithArgs("user-1").
		WillReturnRows(rows)

	entries, err := repo.ListByActor(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.AuditActionLogin, entries[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
