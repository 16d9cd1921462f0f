package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type hierarchyDepartmentRepository interface {
	ListActive(ctx context.Context) ([]models.Department, error)
}

type hierarchyClassRepository interface {
	ListActiveByDepartment(ctx context.Context, departmentID string) ([]models.Class, error)
}

type hierarchyStudentRepository interface {
	ListActiveStudentsByClass(ctx context.Context, classID string) ([]models.User, error)
}

// HierarchyService assembles the organization tree: departments, their
// classes, and the students in each class.
type HierarchyService struct {
	departments hierarchyDepartmentRepository
	classes     hierarchyClassRepository
	students    hierarchyStudentRepository
	logger      *zap.Logger
}

// NewHierarchyService constructs a HierarchyService instance.
func NewHierarchyService(departments hierarchyDepartmentRepository, classes hierarchyClassRepository, students hierarchyStudentRepository, logger *zap.Logger) *HierarchyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{
		departments: departments,
		classes:     classes,
		students:    students,
		logger:      logger,
	}
}

// Tree builds the full organization tree rooted at a synthetic node.
func (s *HierarchyService) Tree(ctx context.Context) (*dto.HierarchyNode, error) {
	departments, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}

	root := &dto.HierarchyNode{Name: "Organization", Type: "ROOT", Children: []*dto.HierarchyNode{}}
	for _, department := range departments {
		deptNode := &dto.HierarchyNode{
			ID:       department.ID,
			Name:     department.Name,
			Type:     "DEPARTMENT",
			Children: []*dto.HierarchyNode{},
		}

		classes, err := s.classes.ListActiveByDepartment(ctx, department.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
		}
		for _, class := range classes {
			classNode := &dto.HierarchyNode{
				ID:       class.ID,
				Name:     class.Name,
				Type:     "CLASS",
				Children: []*dto.HierarchyNode{},
			}

			students, err := s.students.ListActiveStudentsByClass(ctx, class.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
			}
			for _, student := range students {
				classNode.Children = append(classNode.Children, &dto.HierarchyNode{
					ID:       student.ID,
					Name:     student.FullName,
					Type:     "STUDENT",
					Children: []*dto.HierarchyNode{},
				})
			}
			deptNode.Children = append(deptNode.Children, classNode)
		}
		root.Children = append(root.Children, deptNode)
	}
	return root, nil
}
