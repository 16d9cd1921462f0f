package models

import "time"

// LeaveStatusName enumerates the fixed leave workflow vocabulary.
type LeaveStatusName string

const (
	LeaveStatusDraft    LeaveStatusName = "DRAFT"
	LeaveStatusPending  LeaveStatusName = "PENDING"
	LeaveStatusApproved LeaveStatusName = "APPROVED"
	LeaveStatusRejected LeaveStatusName = "REJECTED"
)

// ApplicantRole marks who submitted the leave. Only students can submit
// today; the column exists so teacher leave can be added without a schema
// change.
type ApplicantRole string

const (
	ApplicantStudent ApplicantRole = "STUDENT"
	ApplicantTeacher ApplicantRole = "TEACHER"
)

// LeaveStatus is a seeded reference row describing a workflow state.
type LeaveStatus struct {
	ID          string          `db:"id" json:"id"`
	Name        LeaveStatusName `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
}

// Leave is a leave application owned by the workflow engine. ReportedTo is
// resolved from the class-teacher assignment at submission time and never
// re-derived afterwards.
type Leave struct {
	ID              string          `db:"id" json:"id"`
	ApplicantID     string          `db:"applicant_id" json:"applicant_id"`
	ApplicantRole   ApplicantRole   `db:"applicant_role" json:"applicant_role"`
	FromDate        time.Time       `db:"from_date" json:"from_date"`
	ToDate          time.Time       `db:"to_date" json:"to_date"`
	Subject         string          `db:"subject" json:"subject"`
	Reason          string          `db:"reason" json:"reason"`
	ReportedTo      string          `db:"reported_to" json:"reported_to"`
	Status          LeaveStatusName `db:"status" json:"status"`
	AppliedAt       time.Time       `db:"applied_at" json:"applied_at"`
	ApprovedBy      *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectedBy      *string         `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// LeaveDetail enriches a leave with display names resolved via joins.
type LeaveDetail struct {
	Leave
	ApplicantName  *string `db:"applicant_name" json:"applicant_name,omitempty"`
	ClassName      *string `db:"class_name" json:"class_name,omitempty"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
	ReportedToName *string `db:"reported_to_name" json:"reported_to_name,omitempty"`
	ApprovedByName *string `db:"approved_by_name" json:"approved_by_name,omitempty"`
	RejectedByName *string `db:"rejected_by_name" json:"rejected_by_name,omitempty"`
}

// LeaveCounts aggregates per-status totals for dashboards.
type LeaveCounts struct {
	Total    int `db:"total" json:"total"`
	Pending  int `db:"pending" json:"pending"`
	Approved int `db:"approved" json:"approved"`
	Rejected int `db:"rejected" json:"rejected"`
}
