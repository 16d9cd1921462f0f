package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/models"
	"github.com/mowamiyya/leaveMangement/internal/repository"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
	"github.com/mowamiyya/leaveMangement/pkg/export"
)

const leaveDateLayout = "2006-01-02"

type leaveRepository interface {
	Create(ctx context.Context, leave *models.Leave, audit *models.AuditLog) error
	GetByID(ctx context.Context, id string) (*models.Leave, error)
	GetDetailByID(ctx context.Context, id string) (*models.LeaveDetail, error)
	Resolve(ctx context.Context, params repository.ResolveParams, audit *models.AuditLog) error
	ListByApplicant(ctx context.Context, applicantID string, role models.ApplicantRole) ([]models.LeaveDetail, error)
	ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.LeaveDetail, error)
	ListAllForTeacher(ctx context.Context, teacherID string) ([]models.LeaveDetail, error)
}

type leaveStudentRepository interface {
	ClassOf(ctx context.Context, studentID string) (string, error)
}

type leaveAssignmentRepository interface {
	ActiveByClass(ctx context.Context, classID string) (*models.ClassTeacher, error)
}

// LeaveConfig tunes workflow behavior.
type LeaveConfig struct {
	ValidateDateRange bool
}

// LeaveService owns the leave application workflow: submission, routing to
// the responsible teacher, and resolution.
type LeaveService struct {
	leaves      leaveRepository
	students    leaveStudentRepository
	assignments leaveAssignmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
	config      LeaveConfig
}

// NewLeaveService constructs a LeaveService instance.
func NewLeaveService(leaves leaveRepository, students leaveStudentRepository, assignments leaveAssignmentRepository, validate *validator.Validate, logger *zap.Logger, config LeaveConfig) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{
		leaves:      leaves,
		students:    students,
		assignments: assignments,
		validator:   validate,
		logger:      logger,
		config:      config,
	}
}

// Apply submits a new leave application for a student. The application is
// routed to the teacher currently assigned to the student's class and enters
// the workflow as PENDING.
func (s *LeaveService) Apply(ctx context.Context, studentID string, req dto.ApplyLeaveRequest) (*dto.LeaveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}

	fromDate, err := time.Parse(leaveDateLayout, req.FromDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from_date must be formatted as YYYY-MM-DD")
	}
	toDate, err := time.Parse(leaveDateLayout, req.ToDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date must be formatted as YYYY-MM-DD")
	}
	if s.config.ValidateDateRange && toDate.Before(fromDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date must not be before from_date")
	}

	classID, err := s.students.ClassOf(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no class membership")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class")
	}

	assignment, err := s.assignments.ActiveByClass(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no teacher is assigned to your class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class teacher")
	}

	leave := &models.Leave{
		ApplicantID:   studentID,
		ApplicantRole: models.ApplicantStudent,
		FromDate:      fromDate,
		ToDate:        toDate,
		Subject:       req.Subject,
		Reason:        req.Reason,
		ReportedTo:    assignment.TeacherID,
		Status:        models.LeaveStatusPending,
	}

	newValue, _ := json.Marshal(map[string]string{
		"status":      string(models.LeaveStatusPending),
		"subject":     leave.Subject,
		"reported_to": leave.ReportedTo,
		"from_date":   req.FromDate,
		"to_date":     req.ToDate,
	})
	audit := &models.AuditLog{
		EntityType: models.AuditEntityLeave,
		Action:     models.AuditActionCreate,
		ActionBy:   studentID,
		NewValue:   newValue,
	}

	if err := s.leaves.Create(ctx, leave, audit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave")
	}

	detail, err := s.leaves.GetDetailByID(ctx, leave.ID)
	if err != nil {
		s.logger.Warn("failed to reload created leave", zap.String("leave_id", leave.ID), zap.Error(err))
		return leaveToResponse(&models.LeaveDetail{Leave: *leave}), nil
	}
	return leaveToResponse(detail), nil
}

// Resolve applies a teacher's decision to a pending leave. Only the teacher
// the leave is reported to may decide, and only while it is PENDING. When
// two decisions race, the first commit wins and the second observes an
// invalid state error.
func (s *LeaveService) Resolve(ctx context.Context, teacherID string, req dto.ApprovalRequest) (*dto.LeaveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	action := strings.ToUpper(strings.TrimSpace(req.Action))
	if action != dto.ActionApprove && action != dto.ActionReject {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be APPROVE or REJECT")
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if action == dto.ActionReject && reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires a reason")
	}

	leave, err := s.leaves.GetByID(ctx, req.LeaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave")
	}

	if leave.ReportedTo != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this leave is not reported to you")
	}
	if leave.Status != models.LeaveStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "leave has already been resolved")
	}

	now := time.Now().UTC()
	params := repository.ResolveParams{
		LeaveID:    leave.ID,
		ResolverID: teacherID,
		ResolvedAt: now,
	}
	var auditAction models.AuditAction
	newSnapshot := map[string]string{"resolved_by": teacherID}
	if action == dto.ActionApprove {
		params.Status = models.LeaveStatusApproved
		auditAction = models.AuditActionApprove
		newSnapshot["status"] = string(models.LeaveStatusApproved)
	} else {
		params.Status = models.LeaveStatusRejected
		params.RejectionReason = &reason
		auditAction = models.AuditActionReject
		newSnapshot["status"] = string(models.LeaveStatusRejected)
		newSnapshot["rejection_reason"] = reason
	}

	oldValue, _ := json.Marshal(map[string]string{
		"status":      string(leave.Status),
		"applicant":   leave.ApplicantID,
		"reported_to": leave.ReportedTo,
	})
	newValue, _ := json.Marshal(newSnapshot)
	audit := &models.AuditLog{
		EntityType: models.AuditEntityLeave,
		EntityID:   leave.ID,
		Action:     auditAction,
		ActionBy:   teacherID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}

	if err := s.leaves.Resolve(ctx, params, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Another decision committed first.
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "leave has already been resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve leave")
	}

	detail, err := s.leaves.GetDetailByID(ctx, leave.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload leave")
	}
	return leaveToResponse(detail), nil
}

// MyLeaves returns the caller's leave history, newest first.
func (s *LeaveService) MyLeaves(ctx context.Context, applicantID string) ([]dto.LeaveResponse, error) {
	details, err := s.leaves.ListByApplicant(ctx, applicantID, models.ApplicantStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	return leavesToResponses(details), nil
}

// PendingForTeacher returns the open decisions of a teacher, newest first.
func (s *LeaveService) PendingForTeacher(ctx context.Context, teacherID string) ([]dto.LeaveResponse, error) {
	details, err := s.leaves.ListPendingForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending leaves")
	}
	return leavesToResponses(details), nil
}

// AllForTeacher returns every leave ever reported to a teacher.
func (s *LeaveService) AllForTeacher(ctx context.Context, teacherID string) ([]dto.LeaveResponse, error) {
	details, err := s.leaves.ListAllForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	return leavesToResponses(details), nil
}

// ExportForTeacher builds a tabular dataset of every leave reported to the
// teacher, suitable for CSV or PDF rendering.
func (s *LeaveService) ExportForTeacher(ctx context.Context, teacherID string) (export.Dataset, error) {
	details, err := s.leaves.ListAllForTeacher(ctx, teacherID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}

	dataset := export.Dataset{
		Headers: []string{"Applicant", "Class", "From", "To", "Subject", "Status", "Applied At"},
	}
	for _, detail := range details {
		row := map[string]string{
			"Applicant":  stringValue(detail.ApplicantName),
			"Class":      stringValue(detail.ClassName),
			"From":       detail.FromDate.Format(leaveDateLayout),
			"To":         detail.ToDate.Format(leaveDateLayout),
			"Subject":    detail.Subject,
			"Status":     string(detail.Status),
			"Applied At": detail.AppliedAt.Format(time.RFC3339),
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset, nil
}

func leavesToResponses(details []models.LeaveDetail) []dto.LeaveResponse {
	responses := make([]dto.LeaveResponse, 0, len(details))
	for i := range details {
		responses = append(responses, *leaveToResponse(&details[i]))
	}
	return responses
}

func leaveToResponse(detail *models.LeaveDetail) *dto.LeaveResponse {
	resp := &dto.LeaveResponse{
		LeaveID:        detail.ID,
		ApplicantID:    detail.ApplicantID,
		ApplicantRole:  string(detail.ApplicantRole),
		ApplicantName:  stringValue(detail.ApplicantName),
		ClassName:      stringValue(detail.ClassName),
		DepartmentName: stringValue(detail.DepartmentName),
		FromDate:       detail.FromDate.Format(leaveDateLayout),
		ToDate:         detail.ToDate.Format(leaveDateLayout),
		Subject:        detail.Subject,
		Reason:         detail.Reason,
		Status:         string(detail.Status),
		ReportedToID:   detail.ReportedTo,
		ReportedToName: stringValue(detail.ReportedToName),
		AppliedAt:      detail.AppliedAt,
		ApprovedAt:     detail.ApprovedAt,
		RejectedAt:     detail.RejectedAt,
		CreatedAt:      detail.CreatedAt,
		UpdatedAt:      detail.UpdatedAt,
	}
	resp.ApprovedByID = stringValue(detail.ApprovedBy)
	resp.ApprovedByName = stringValue(detail.ApprovedByName)
	resp.RejectedByID = stringValue(detail.RejectedBy)
	resp.RejectedByName = stringValue(detail.RejectedByName)
	resp.RejectionReason = stringValue(detail.RejectionReason)
	return resp
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
