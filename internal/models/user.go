package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// User represents any principal stored in the users table. Role-specific
// attributes (class, department) live in the profile side tables.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentProfile attaches class and department membership to a student user.
type StudentProfile struct {
	UserID       string `db:"user_id" json:"user_id"`
	ClassID      string `db:"class_id" json:"class_id"`
	DepartmentID string `db:"department_id" json:"department_id"`
}

// TeacherProfile attaches department membership to a teacher user.
type TeacherProfile struct {
	UserID       string `db:"user_id" json:"user_id"`
	DepartmentID string `db:"department_id" json:"department_id"`
}

// StudentDetail joins a student user with its class and department names.
type StudentDetail struct {
	User
	ClassID        string `db:"class_id" json:"class_id"`
	ClassName      string `db:"class_name" json:"class_name"`
	DepartmentID   string `db:"department_id" json:"department_id"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// TeacherDetail joins a teacher user with its department name.
type TeacherDetail struct {
	User
	DepartmentID   string `db:"department_id" json:"department_id"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
