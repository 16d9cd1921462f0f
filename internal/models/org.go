package models

import "time"

// Department is the top level of the organizational hierarchy.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Class belongs to a department and holds students.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail adds the department name for listings.
type ClassDetail struct {
	Class
	DepartmentName string `db:"department_name" json:"department_name"`
}

// ClassTeacher maps a class to the teacher currently responsible for it.
// At most one active assignment exists per class at any time.
type ClassTeacher struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassTeacherDetail enriches an assignment with display names.
type ClassTeacherDetail struct {
	ClassTeacher
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// UserSettings stores an opaque UI settings blob per user and role.
type UserSettings struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	UserRole   UserRole  `db:"user_role" json:"user_role"`
	UISettings []byte    `db:"ui_settings" json:"ui_settings"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
