package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mowamiyya/leaveMangement/internal/models"
)

func newClassTeacherRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassTeacherRepositoryAssignReplacesPrior(t *testing.T) {
	db, mock, cleanup := newClassTeacherRepoMock(t)
	defer cleanup()

	repo := NewClassTeacherRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM class_teachers")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ct-old"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_teachers SET active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_teachers")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assignment := &models.ClassTeacher{ClassID: "class-1", TeacherID: "teacher-2"}
	err := repo.Assign(context.Background(), assignment, &models.AuditLog{
		EntityType: models.AuditEntityClassTeacher,
		Action:     models.AuditActionAssign,
		ActionBy:   "admin-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, assignment.ID)
	require.True(t, assignment.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTeacherRepositoryAssignFirstAssignment(t *testing.T) {
	db, mock, cleanup := newClassTeacherRepoMock(t)
	defer cleanup()

	repo := NewClassTeacherRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM class_teachers")).
		WithArgs("class-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_teachers")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assignment := &models.ClassTeacher{ClassID: "class-1", TeacherID: "teacher-1"}
	err := repo.Assign(context.Background(), assignment, &models.AuditLog{
		EntityType: models.AuditEntityClassTeacher,
		Action:     models.AuditActionAssign,
		ActionBy:   "admin-1",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTeacherRepositoryActiveByClassMiss(t *testing.T) {
	db, mock, cleanup := newClassTeacherRepoMock(t)
	defer cleanup()

	repo := NewClassTeacherRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, class_id, teacher_id")).
		WithArgs("class-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ActiveByClass(context.Background(), "class-9")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTeacherRepositoryDeactivateMissing(t *testing.T) {
	db, mock, cleanup := newClassTeacherRepoMock(t)
	defer cleanup()

	repo := NewClassTeacherRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_teachers SET active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Deactivate(context.Background(), "ct-missing", &models.AuditLog{
		EntityType: models.AuditEntityClassTeacher,
		EntityID:   "ct-missing",
		Action:     models.AuditActionDeactivate,
		ActionBy:   "admin-1",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTeacherRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newClassTeacherRepoMock(t)
	defer cleanup()

	repo := NewClassTeacherRepository(db)
	rows := sqlmock.NewRows([]string{"id", "class_id", "teacher_id", "active", "created_at", "updated_at", "class_name", "teacher_name"}).
		AddRow("ct-1", "class-1", "teacher-1", true, time.Now(), time.Now(), "10-A", "Ms Rivera")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ct.id, ct.class_id")).
		WillReturnRows(rows)

	list, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "10-A", list[0].ClassName)
	require.NoError(t, mock.ExpectationsWereMet())
}
