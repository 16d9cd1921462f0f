package dto

// DepartmentRequest creates or renames a department.
type DepartmentRequest struct {
	Name string `json:"name" validate:"required"`
}

// ClassRequest creates or updates a class within a department.
type ClassRequest struct {
	Name         string `json:"name" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required,uuid"`
}

// AssignClassTeacherRequest links a teacher to a class, replacing any
// currently active assignment for that class.
type AssignClassTeacherRequest struct {
	ClassID   string `json:"class_id" validate:"required,uuid"`
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
}

// HierarchyNode is one node of the organization tree.
type HierarchyNode struct {
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Type     string           `json:"type"`
	Children []*HierarchyNode `json:"children"`
}

// UserSettingsRequest replaces the caller's UI settings blob.
type UserSettingsRequest struct {
	UISettings map[string]interface{} `json:"ui_settings" validate:"required"`
}
