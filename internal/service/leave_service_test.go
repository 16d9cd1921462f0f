package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/models"
	"github.com/mowamiyya/leaveMangement/internal/repository"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type leaveRepoStub struct {
	created      *models.Leave
	createdAudit *models.AuditLog
	createErr    error

	leave  *models.Leave
	getErr error

	detail    *models.LeaveDetail
	detailErr error

	resolveParams *repository.ResolveParams
	resolveAudit  *models.AuditLog
	resolveErr    error

	list    []models.LeaveDetail
	listErr error
}

func (s *leaveRepoStub) Create(ctx context.Context, leave *models.Leave, audit *models.AuditLog) error {
	if s.createErr != nil {
		return s.createErr
	}
	leave.ID = "leave-1"
	audit.EntityID = leave.ID
	s.created = leave
	s.createdAudit = audit
	return nil
}

func (s *leaveRepoStub) GetByID(ctx context.Context, id string) (*models.Leave, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.leave == nil {
		return nil, sql.ErrNoRows
	}
	return s.leave, nil
}

func (s *leaveRepoStub) GetDetailByID(ctx context.Context, id string) (*models.LeaveDetail, error) {
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	if s.detail != nil {
		return s.detail, nil
	}
	if s.created != nil {
		return &models.LeaveDetail{Leave: *s.created}, nil
	}
	if s.leave != nil {
		return &models.LeaveDetail{Leave: *s.leave}, nil
	}
	return nil, sql.ErrNoRows
}

func (s *leaveRepoStub) Resolve(ctx context.Context, params repository.ResolveParams, audit *models.AuditLog) error {
	s.resolveParams = &params
	s.resolveAudit = audit
	return s.resolveErr
}

func (s *leaveRepoStub) ListByApplicant(ctx context.Context, applicantID string, role models.ApplicantRole) ([]models.LeaveDetail, error) {
	return s.list, s.listErr
}

func (s *leaveRepoStub) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.LeaveDetail, error) {
	return s.list, s.listErr
}

func (s *leaveRepoStub) ListAllForTeacher(ctx context.Context, teacherID string) ([]models.LeaveDetail, error) {
	return s.list, s.listErr
}

type studentRepoStub struct {
	classID string
	err     error
}

func (s studentRepoStub) ClassOf(ctx context.Context, studentID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.classID, nil
}

type assignmentRepoStub struct {
	assignment *models.ClassTeacher
	err        error
}

func (s assignmentRepoStub) ActiveByClass(ctx context.Context, classID string) (*models.ClassTeacher, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.assignment, nil
}

func validApplyRequest() dto.ApplyLeaveRequest {
	return dto.ApplyLeaveRequest{
		FromDate: "2026-03-02",
		ToDate:   "2026-03-04",
		Subject:  "family event",
		Reason:   "travelling",
	}
}

func TestLeaveServiceApplyRoutesToClassTeacher(t *testing.T) {
	repo := &leaveRepoStub{}
	svc := NewLeaveService(repo,
		studentRepoStub{classID: "class-1"},
		assignmentRepoStub{assignment: &models.ClassTeacher{ClassID: "class-1", TeacherID: "teacher-1", Active: true}},
		nil, zap.NewNop(), LeaveConfig{})

	resp, err := svc.Apply(context.Background(), "student-1", validApplyRequest())
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "teacher-1", repo.created.ReportedTo)
	assert.Equal(t, models.LeaveStatusPending, repo.created.Status)
	assert.Equal(t, models.ApplicantStudent, repo.created.ApplicantRole)
	assert.Equal(t, "PENDING", resp.Status)

	require.NotNil(t, repo.createdAudit)
	assert.Equal(t, models.AuditActionCreate, repo.createdAudit.Action)
	assert.Equal(t, "student-1", repo.createdAudit.ActionBy)
}

func TestLeaveServiceApplyNoAssignedTeacher(t *testing.T) {
	svc := NewLeaveService(&leaveRepoStub{},
		studentRepoStub{classID: "class-1"},
		assignmentRepoStub{err: sql.ErrNoRows},
		nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Apply(context.Background(), "student-1", validApplyRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestLeaveServiceApplyNoClassMembership(t *testing.T) {
	svc := NewLeaveService(&leaveRepoStub{},
		studentRepoStub{err: sql.ErrNoRows},
		assignmentRepoStub{},
		nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Apply(context.Background(), "student-1", validApplyRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestLeaveServiceApplyDateRangeGate(t *testing.T) {
	req := validApplyRequest()
	req.FromDate = "2026-03-10"
	req.ToDate = "2026-03-05"

	students := studentRepoStub{classID: "class-1"}
	assignments := assignmentRepoStub{assignment: &models.ClassTeacher{TeacherID: "teacher-1"}}

	// Disabled by default: an inverted range is accepted.
	svc := NewLeaveService(&leaveRepoStub{}, students, assignments, nil, zap.NewNop(), LeaveConfig{})
	_, err := svc.Apply(context.Background(), "student-1", req)
	require.NoError(t, err)

	// Enabled: the same payload is rejected.
	svc = NewLeaveService(&leaveRepoStub{}, students, assignments, nil, zap.NewNop(), LeaveConfig{ValidateDateRange: true})
	_, err = svc.Apply(context.Background(), "student-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceApplyBadDateFormat(t *testing.T) {
	req := validApplyRequest()
	req.FromDate = "02-03-2026"
	svc := NewLeaveService(&leaveRepoStub{}, studentRepoStub{classID: "class-1"},
		assignmentRepoStub{assignment: &models.ClassTeacher{TeacherID: "teacher-1"}}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Apply(context.Background(), "student-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func pendingLeave() *models.Leave {
	return &models.Leave{
		ID:            "leave-1",
		ApplicantID:   "student-1",
		ApplicantRole: models.ApplicantStudent,
		ReportedTo:    "teacher-1",
		Status:        models.LeaveStatusPending,
		AppliedAt:     time.Now().UTC(),
	}
}

func TestLeaveServiceResolveApprove(t *testing.T) {
	repo := &leaveRepoStub{leave: pendingLeave()}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Resolve(context.Background(), "teacher-1", dto.ApprovalRequest{
		LeaveID: "leave-1",
		Action:  dto.ActionApprove,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.resolveParams)
	assert.Equal(t, models.LeaveStatusApproved, repo.resolveParams.Status)
	assert.Equal(t, "teacher-1", repo.resolveParams.ResolverID)
	assert.Nil(t, repo.resolveParams.RejectionReason)
	assert.Equal(t, models.AuditActionApprove, repo.resolveAudit.Action)
	assert.NotEmpty(t, repo.resolveAudit.OldValue)
	assert.NotEmpty(t, repo.resolveAudit.NewValue)
}

func TestLeaveServiceResolveRejectRequiresReason(t *testing.T) {
	repo := &leaveRepoStub{leave: pendingLeave()}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Resolve(context.Background(), "teacher-1", dto.ApprovalRequest{
		LeaveID:         "leave-1",
		Action:          dto.ActionReject,
		RejectionReason: "   ",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.resolveParams)
}

func TestLeaveServiceResolveReject(t *testing.T) {
	repo := &leaveRepoStub{leave: pendingLeave()}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Resolve(context.Background(), "teacher-1", dto.ApprovalRequest{
		LeaveID:         "leave-1",
		Action:          dto.ActionReject,
		RejectionReason: "insufficient detail",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.resolveParams)
	assert.Equal(t, models.LeaveStatusRejected, repo.resolveParams.Status)
	require.NotNil(t, repo.resolveParams.RejectionReason)
	assert.Equal(t, "insufficient detail", *repo.resolveParams.RejectionReason)
	assert.Equal(t, models.AuditActionReject, repo.resolveAudit.Action)
}

func TestLeaveServiceResolveOwnershipCheck(t *testing.T) {
	repo := &leaveRepoStub{leave: pendingLeave()}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Resolve(context.Background(), "teacher-2", dto.ApprovalRequest{
		LeaveID: "leave-1",
		Action:  dto.ActionApprove,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.resolveParams)
}

func TestLeaveServiceResolveAlreadyResolved(t *testing.T) {
	leave := pendingLeave()
	leave.Status = models.LeaveStatusApproved
	repo := &leaveRepoStub{leave: leave}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Resolve(context.Background(), "teacher-1", dto.ApprovalRequest{
		LeaveID: "leave-1",
		Action:  dto.ActionApprove,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceResolveConcurrentLoser(t *testing.T) {
	repo := &leaveRepoStub{leave: pendingLeave(), resolveErr: sql.ErrNoRows}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Resolve(context.Background(), "teacher-1", dto.ApprovalRequest{
		LeaveID: "leave-1",
		Action:  dto.ActionApprove,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceResolveUnknownAction(t *testing.T) {
	repo := &leaveRepoStub{leave: pendingLeave()}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	_, err := svc.Resolve(context.Background(), "teacher-1", dto.ApprovalRequest{
		LeaveID: "leave-1",
		Action:  "POSTPONE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceExportForTeacher(t *testing.T) {
	name := "Ana Silva"
	class := "10-A"
	repo := &leaveRepoStub{list: []models.LeaveDetail{
		{
			Leave: models.Leave{
				ID:        "leave-1",
				FromDate:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
				ToDate:    time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
				Subject:   "family event",
				Status:    models.LeaveStatusApproved,
				AppliedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			},
			ApplicantName: &name,
			ClassName:     &class,
		},
	}}
	svc := NewLeaveService(repo, studentRepoStub{}, assignmentRepoStub{}, nil, zap.NewNop(), LeaveConfig{})

	dataset, err := svc.ExportForTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "Ana Silva", dataset.Rows[0]["Applicant"])
	assert.Equal(t, "APPROVED", dataset.Rows[0]["Status"])
	assert.Equal(t, "2026-03-02", dataset.Rows[0]["From"])
}
