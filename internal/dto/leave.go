package dto

import "time"

// ApplyLeaveRequest is the student-facing submission payload.
type ApplyLeaveRequest struct {
	FromDate string `json:"from_date" validate:"required"`
	ToDate   string `json:"to_date" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

// ApprovalAction enumerates the teacher decision verbs.
const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

// ApprovalRequest carries a teacher decision on a pending leave.
type ApprovalRequest struct {
	LeaveID         string `json:"leave_id" validate:"required"`
	Action          string `json:"action" validate:"required"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// LeaveResponse is the external representation of a leave application.
type LeaveResponse struct {
	LeaveID         string     `json:"leave_id"`
	ApplicantID     string     `json:"applicant_id"`
	ApplicantRole   string     `json:"applicant_role"`
	ApplicantName   string     `json:"applicant_name,omitempty"`
	ClassName       string     `json:"class_name,omitempty"`
	DepartmentName  string     `json:"department_name,omitempty"`
	FromDate        string     `json:"from_date"`
	ToDate          string     `json:"to_date"`
	Subject         string     `json:"subject"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	ReportedToID    string     `json:"reported_to_id"`
	ReportedToName  string     `json:"reported_to_name,omitempty"`
	AppliedAt       time.Time  `json:"applied_at"`
	ApprovedByID    string     `json:"approved_by_id,omitempty"`
	ApprovedByName  string     `json:"approved_by_name,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedByID    string     `json:"rejected_by_id,omitempty"`
	RejectedByName  string     `json:"rejected_by_name,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DashboardStats aggregates leave counts for the dashboard cards.
type DashboardStats struct {
	TotalLeaves    int `json:"total_leaves"`
	PendingLeaves  int `json:"pending_leaves"`
	ApprovedLeaves int `json:"approved_leaves"`
	RejectedLeaves int `json:"rejected_leaves"`
}
