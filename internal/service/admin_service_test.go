package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type departmentRepoStub struct {
	departments map[string]*models.Department
	nameTaken   bool
	classCount  int
	created     *models.Department
	softDeleted string
	hardDeleted string
}

func (s *departmentRepoStub) Create(ctx context.Context, department *models.Department, audit *models.AuditLog) error {
	department.ID = "dept-new"
	s.created = department
	return nil
}

func (s *departmentRepoStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if department, ok := s.departments[id]; ok {
		return department, nil
	}
	return nil, sql.ErrNoRows
}

func (s *departmentRepoStub) ActiveNameExists(ctx context.Context, name string) (bool, error) {
	return s.nameTaken, nil
}

func (s *departmentRepoStub) ListActive(ctx context.Context) ([]models.Department, error) {
	var list []models.Department
	for _, department := range s.departments {
		list = append(list, *department)
	}
	return list, nil
}

func (s *departmentRepoStub) Update(ctx context.Context, department *models.Department, audit *models.AuditLog) error {
	return nil
}

func (s *departmentRepoStub) SoftDelete(ctx context.Context, id string, audit *models.AuditLog) error {
	s.softDeleted = id
	return nil
}

func (s *departmentRepoStub) HardDelete(ctx context.Context, id string, audit *models.AuditLog) error {
	s.hardDeleted = id
	return nil
}

func (s *departmentRepoStub) CountActiveClasses(ctx context.Context, departmentID string) (int, error) {
	return s.classCount, nil
}

type classRepoStub struct {
	classes         map[string]*models.Class
	nameTaken       bool
	assignmentCount int
	created         *models.Class
}

func (s *classRepoStub) Create(ctx context.Context, class *models.Class, audit *models.AuditLog) error {
	class.ID = "class-new"
	s.created = class
	return nil
}

func (s *classRepoStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := s.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func (s *classRepoStub) ActiveNameExists(ctx context.Context, departmentID, name string) (bool, error) {
	return s.nameTaken, nil
}

func (s *classRepoStub) ListActive(ctx context.Context) ([]models.ClassDetail, error) {
	return nil, nil
}

func (s *classRepoStub) Update(ctx context.Context, class *models.Class, audit *models.AuditLog) error {
	return nil
}

func (s *classRepoStub) SoftDelete(ctx context.Context, id string, audit *models.AuditLog) error {
	return nil
}

func (s *classRepoStub) HardDelete(ctx context.Context, id string, audit *models.AuditLog) error {
	return nil
}

func (s *classRepoStub) CountActiveAssignments(ctx context.Context, classID string) (int, error) {
	return s.assignmentCount, nil
}

type adminUserRepoStub struct {
	users        map[string]*models.User
	studentCount int
	deactivated  string
}

func (s *adminUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *adminUserRepoStub) Deactivate(ctx context.Context, id string, audit *models.AuditLog) error {
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	s.deactivated = id
	return nil
}

func (s *adminUserRepoStub) ListActiveStudents(ctx context.Context) ([]models.StudentDetail, error) {
	return nil, nil
}

func (s *adminUserRepoStub) ListActiveTeachers(ctx context.Context) ([]models.TeacherDetail, error) {
	return nil, nil
}

func (s *adminUserRepoStub) CountActiveByDepartment(ctx context.Context, departmentID string) (int, int, error) {
	return 0, 0, nil
}

func (s *adminUserRepoStub) CountActiveStudentsByClass(ctx context.Context, classID string) (int, error) {
	return s.studentCount, nil
}

type assignmentAdminRepoStub struct {
	assigned    *models.ClassTeacher
	deactivated string
}

func (s *assignmentAdminRepoStub) Assign(ctx context.Context, assignment *models.ClassTeacher, audit *models.AuditLog) error {
	assignment.ID = "ct-new"
	s.assigned = assignment
	return nil
}

func (s *assignmentAdminRepoStub) ListActive(ctx context.Context) ([]models.ClassTeacherDetail, error) {
	return nil, nil
}

func (s *assignmentAdminRepoStub) Deactivate(ctx context.Context, id string, audit *models.AuditLog) error {
	s.deactivated = id
	return nil
}

func newAdminService(departments *departmentRepoStub, classes *classRepoStub, users *adminUserRepoStub, assignments *assignmentAdminRepoStub) *AdminService {
	if departments == nil {
		departments = &departmentRepoStub{departments: map[string]*models.Department{}}
	}
	if classes == nil {
		classes = &classRepoStub{classes: map[string]*models.Class{}}
	}
	if users == nil {
		users = &adminUserRepoStub{users: map[string]*models.User{}}
	}
	if assignments == nil {
		assignments = &assignmentAdminRepoStub{}
	}
	return NewAdminService(departments, classes, users, assignments, nil, zap.NewNop())
}

func TestAdminServiceCreateDepartment(t *testing.T) {
	departments := &departmentRepoStub{departments: map[string]*models.Department{}}
	svc := newAdminService(departments, nil, nil, nil)

	department, err := svc.CreateDepartment(context.Background(), "admin-1", dto.DepartmentRequest{Name: "Science"})
	require.NoError(t, err)
	assert.Equal(t, "dept-new", department.ID)
	assert.Equal(t, "Science", department.Name)
}

func TestAdminServiceCreateDepartmentDuplicateName(t *testing.T) {
	departments := &departmentRepoStub{departments: map[string]*models.Department{}, nameTaken: true}
	svc := newAdminService(departments, nil, nil, nil)

	_, err := svc.CreateDepartment(context.Background(), "admin-1", dto.DepartmentRequest{Name: "Science"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceDeleteDepartmentWithClasses(t *testing.T) {
	departments := &departmentRepoStub{
		departments: map[string]*models.Department{"dept-1": {ID: "dept-1", Active: true}},
		classCount:  2,
	}
	svc := newAdminService(departments, nil, nil, nil)

	err := svc.DeleteDepartment(context.Background(), "admin-1", "dept-1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, departments.softDeleted)
}

func TestAdminServiceDeleteDepartmentModes(t *testing.T) {
	departments := &departmentRepoStub{
		departments: map[string]*models.Department{"dept-1": {ID: "dept-1", Active: true}},
	}
	svc := newAdminService(departments, nil, nil, nil)

	require.NoError(t, svc.DeleteDepartment(context.Background(), "admin-1", "dept-1", false))
	assert.Equal(t, "dept-1", departments.softDeleted)
	require.NoError(t, svc.DeleteDepartment(context.Background(), "admin-1", "dept-1", true))
	assert.Equal(t, "dept-1", departments.hardDeleted)
}

func TestAdminServiceCreateClassInactiveDepartment(t *testing.T) {
	const departmentID = "9e1c5b27-4f8a-4d06-b3e9-7a2d6c0f8e14"
	departments := &departmentRepoStub{
		departments: map[string]*models.Department{departmentID: {ID: departmentID, Active: false}},
	}
	svc := newAdminService(departments, nil, nil, nil)

	_, err := svc.CreateClass(context.Background(), "admin-1", dto.ClassRequest{
		Name:         "10-A",
		DepartmentID: departmentID,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "department is inactive", appErr.Message)
}

func TestAdminServiceDeleteClassWithStudents(t *testing.T) {
	classes := &classRepoStub{classes: map[string]*models.Class{"class-1": {ID: "class-1", Active: true}}}
	users := &adminUserRepoStub{users: map[string]*models.User{}, studentCount: 3}
	svc := newAdminService(nil, classes, users, nil)

	err := svc.DeleteClass(context.Background(), "admin-1", "class-1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

// The assignment payload is validated as UUIDs, so these tests need
// well-formed ids rather than short labels.
const (
	assignClassID   = "7b0e9a64-3d1f-4a8c-9b2e-5f6c8d0a1e23"
	assignTeacherID = "c4a2f1d8-6e5b-47c9-8a3d-1b9e0f7c2d45"
	assignStudentID = "2f8d6c0a-9b3e-4d17-85c2-e1a4b7f9d063"
)

func TestAdminServiceAssignClassTeacher(t *testing.T) {
	classes := &classRepoStub{classes: map[string]*models.Class{
		assignClassID: {ID: assignClassID, DepartmentID: "dept-1", Active: true},
	}}
	users := &adminUserRepoStub{users: map[string]*models.User{
		assignTeacherID: {ID: assignTeacherID, Role: models.RoleTeacher, Active: true},
	}}
	assignments := &assignmentAdminRepoStub{}
	svc := newAdminService(nil, classes, users, assignments)

	assignment, err := svc.AssignClassTeacher(context.Background(), "admin-1", dto.AssignClassTeacherRequest{
		ClassID:   assignClassID,
		TeacherID: assignTeacherID,
	})
	require.NoError(t, err)
	assert.Equal(t, "ct-new", assignment.ID)
	require.NotNil(t, assignments.assigned)
	assert.Equal(t, assignTeacherID, assignments.assigned.TeacherID)
}

func TestAdminServiceAssignClassTeacherRoleCheck(t *testing.T) {
	classes := &classRepoStub{classes: map[string]*models.Class{
		assignClassID: {ID: assignClassID, Active: true},
	}}
	users := &adminUserRepoStub{users: map[string]*models.User{
		assignStudentID: {ID: assignStudentID, Role: models.RoleStudent, Active: true},
	}}
	svc := newAdminService(nil, classes, users, nil)

	_, err := svc.AssignClassTeacher(context.Background(), "admin-1", dto.AssignClassTeacherRequest{
		ClassID:   assignClassID,
		TeacherID: assignStudentID,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "assignee must be an active teacher", appErr.Message)
}

func TestAdminServiceDeactivateUser(t *testing.T) {
	users := &adminUserRepoStub{users: map[string]*models.User{
		"user-1": {ID: "user-1", Active: true},
	}}
	svc := newAdminService(nil, nil, users, nil)

	require.NoError(t, svc.DeactivateUser(context.Background(), "admin-1", "user-1"))
	assert.Equal(t, "user-1", users.deactivated)

	err := svc.DeactivateUser(context.Background(), "admin-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceDeactivateSelfRefused(t *testing.T) {
	users := &adminUserRepoStub{users: map[string]*models.User{
		"admin-1": {ID: "admin-1", Active: true},
	}}
	svc := newAdminService(nil, nil, users, nil)

	err := svc.DeactivateUser(context.Background(), "admin-1", "admin-1")
	require.Error(t, err)
	assert.Empty(t, users.deactivated)
}
