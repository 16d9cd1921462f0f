package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type adminDepartmentRepository interface {
	Create(ctx context.Context, department *models.Department, audit *models.AuditLog) error
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ActiveNameExists(ctx context.Context, name string) (bool, error)
	ListActive(ctx context.Context) ([]models.Department, error)
	Update(ctx context.Context, department *models.Department, audit *models.AuditLog) error
	SoftDelete(ctx context.Context, id string, audit *models.AuditLog) error
	HardDelete(ctx context.Context, id string, audit *models.AuditLog) error
	CountActiveClasses(ctx context.Context, departmentID string) (int, error)
}

type adminClassRepository interface {
	Create(ctx context.Context, class *models.Class, audit *models.AuditLog) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ActiveNameExists(ctx context.Context, departmentID, name string) (bool, error)
	ListActive(ctx context.Context) ([]models.ClassDetail, error)
	Update(ctx context.Context, class *models.Class, audit *models.AuditLog) error
	SoftDelete(ctx context.Context, id string, audit *models.AuditLog) error
	HardDelete(ctx context.Context, id string, audit *models.AuditLog) error
	CountActiveAssignments(ctx context.Context, classID string) (int, error)
}

type adminUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Deactivate(ctx context.Context, id string, audit *models.AuditLog) error
	ListActiveStudents(ctx context.Context) ([]models.StudentDetail, error)
	ListActiveTeachers(ctx context.Context) ([]models.TeacherDetail, error)
	CountActiveByDepartment(ctx context.Context, departmentID string) (int, int, error)
	CountActiveStudentsByClass(ctx context.Context, classID string) (int, error)
}

type adminAssignmentRepository interface {
	Assign(ctx context.Context, assignment *models.ClassTeacher, audit *models.AuditLog) error
	ListActive(ctx context.Context) ([]models.ClassTeacherDetail, error)
	Deactivate(ctx context.Context, id string, audit *models.AuditLog) error
}

// AdminService provides the administrative surface: department and class
// CRUD, class teacher assignment, and account management.
type AdminService struct {
	departments adminDepartmentRepository
	classes     adminClassRepository
	users       adminUserRepository
	assignments adminAssignmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdminService constructs an AdminService instance.
func NewAdminService(departments adminDepartmentRepository, classes adminClassRepository, users adminUserRepository, assignments adminAssignmentRepository, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AdminService{
		departments: departments,
		classes:     classes,
		users:       users,
		assignments: assignments,
		validator:   validate,
		logger:      logger,
	}
}

// CreateDepartment adds a new department with a unique active name.
func (s *AdminService) CreateDepartment(ctx context.Context, adminID string, req dto.DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	exists, err := s.departments.ActiveNameExists(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "department name is already in use")
	}

	department := &models.Department{Name: req.Name}
	newValue, _ := json.Marshal(map[string]string{"name": req.Name})
	audit := &models.AuditLog{
		EntityType: models.AuditEntityDepartment,
		Action:     models.AuditActionCreate,
		ActionBy:   adminID,
		NewValue:   newValue,
	}
	if err := s.departments.Create(ctx, department, audit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return department, nil
}

// ListDepartments returns active departments.
func (s *AdminService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// UpdateDepartment renames a department.
func (s *AdminService) UpdateDepartment(ctx context.Context, adminID, id string, req dto.DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	department, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	oldValue, _ := json.Marshal(map[string]string{"name": department.Name})
	newValue, _ := json.Marshal(map[string]string{"name": req.Name})
	department.Name = req.Name
	audit := &models.AuditLog{
		EntityType: models.AuditEntityDepartment,
		EntityID:   id,
		Action:     models.AuditActionUpdate,
		ActionBy:   adminID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.departments.Update(ctx, department, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return department, nil
}

// DeleteDepartment retires a department. With hard=true the row is removed
// permanently, and both modes refuse while dependents exist.
func (s *AdminService) DeleteDepartment(ctx context.Context, adminID, id string, hard bool) error {
	classes, err := s.departments.CountActiveClasses(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check classes")
	}
	if classes > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "department still has active classes")
	}
	teachers, students, err := s.users.CountActiveByDepartment(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check members")
	}
	if teachers > 0 || students > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "department still has active members")
	}

	audit := &models.AuditLog{
		EntityType: models.AuditEntityDepartment,
		EntityID:   id,
		Action:     models.AuditActionDelete,
		ActionBy:   adminID,
	}
	if hard {
		err = s.departments.HardDelete(ctx, id, audit)
	} else {
		err = s.departments.SoftDelete(ctx, id, audit)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	return nil
}

// CreateClass adds a class under an existing active department.
func (s *AdminService) CreateClass(ctx context.Context, adminID string, req dto.ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	department, err := s.departments.FindByID(ctx, req.DepartmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	if !department.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is inactive")
	}

	exists, err := s.classes.ActiveNameExists(ctx, req.DepartmentID, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class name is already in use in this department")
	}

	class := &models.Class{Name: req.Name, DepartmentID: req.DepartmentID}
	newValue, _ := json.Marshal(map[string]string{"name": req.Name, "department_id": req.DepartmentID})
	audit := &models.AuditLog{
		EntityType: models.AuditEntityClass,
		Action:     models.AuditActionCreate,
		ActionBy:   adminID,
		NewValue:   newValue,
	}
	if err := s.classes.Create(ctx, class, audit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// ListClasses returns active classes with department names.
func (s *AdminService) ListClasses(ctx context.Context) ([]models.ClassDetail, error) {
	classes, err := s.classes.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// UpdateClass changes a class name or its department.
func (s *AdminService) UpdateClass(ctx context.Context, adminID, id string, req dto.ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	department, err := s.departments.FindByID(ctx, req.DepartmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	if !department.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is inactive")
	}

	oldValue, _ := json.Marshal(map[string]string{"name": class.Name, "department_id": class.DepartmentID})
	newValue, _ := json.Marshal(map[string]string{"name": req.Name, "department_id": req.DepartmentID})
	class.Name = req.Name
	class.DepartmentID = req.DepartmentID
	audit := &models.AuditLog{
		EntityType: models.AuditEntityClass,
		EntityID:   id,
		Action:     models.AuditActionUpdate,
		ActionBy:   adminID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.classes.Update(ctx, class, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// DeleteClass retires a class, refusing while students or an active teacher
// assignment still depend on it.
func (s *AdminService) DeleteClass(ctx context.Context, adminID, id string, hard bool) error {
	students, err := s.users.CountActiveStudentsByClass(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check students")
	}
	if students > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "class still has active students")
	}
	assignments, err := s.classes.CountActiveAssignments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignments")
	}
	if assignments > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "class still has an active teacher assignment")
	}

	audit := &models.AuditLog{
		EntityType: models.AuditEntityClass,
		EntityID:   id,
		Action:     models.AuditActionDelete,
		ActionBy:   adminID,
	}
	if hard {
		err = s.classes.HardDelete(ctx, id, audit)
	} else {
		err = s.classes.SoftDelete(ctx, id, audit)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// AssignClassTeacher makes a teacher responsible for a class, replacing any
// currently active assignment.
func (s *AdminService) AssignClassTeacher(ctx context.Context, adminID string, req dto.AssignClassTeacherRequest) (*models.ClassTeacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !class.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is inactive")
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teacher does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher || !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee must be an active teacher")
	}

	assignment := &models.ClassTeacher{ClassID: req.ClassID, TeacherID: req.TeacherID}
	newValue, _ := json.Marshal(map[string]string{"class_id": req.ClassID, "teacher_id": req.TeacherID})
	audit := &models.AuditLog{
		EntityType: models.AuditEntityClassTeacher,
		Action:     models.AuditActionAssign,
		ActionBy:   adminID,
		NewValue:   newValue,
	}
	if err := s.assignments.Assign(ctx, assignment, audit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	return assignment, nil
}

// ListClassTeachers returns the active class teacher assignments.
func (s *AdminService) ListClassTeachers(ctx context.Context) ([]models.ClassTeacherDetail, error) {
	assignments, err := s.assignments.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// UnassignClassTeacher retires an assignment without a replacement.
func (s *AdminService) UnassignClassTeacher(ctx context.Context, adminID, assignmentID string) error {
	audit := &models.AuditLog{
		EntityType: models.AuditEntityClassTeacher,
		EntityID:   assignmentID,
		Action:     models.AuditActionDeactivate,
		ActionBy:   adminID,
	}
	if err := s.assignments.Deactivate(ctx, assignmentID, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign teacher")
	}
	return nil
}

// ListStudents returns active students with hierarchy names.
func (s *AdminService) ListStudents(ctx context.Context) ([]models.StudentDetail, error) {
	students, err := s.users.ListActiveStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// ListTeachers returns active teachers with department names.
func (s *AdminService) ListTeachers(ctx context.Context) ([]models.TeacherDetail, error) {
	teachers, err := s.users.ListActiveTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// DeactivateUser soft deletes an account. Deactivated users fail login with
// an inactive account error.
func (s *AdminService) DeactivateUser(ctx context.Context, adminID, userID string) error {
	if adminID == userID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot deactivate your own account")
	}

	audit := &models.AuditLog{
		EntityType: models.AuditEntityUser,
		EntityID:   userID,
		Action:     models.AuditActionDeactivate,
		ActionBy:   adminID,
	}
	if err := s.users.Deactivate(ctx, userID, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}
	return nil
}
