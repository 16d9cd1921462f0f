package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type auditReader interface {
	ListByEntity(ctx context.Context, entityType models.AuditEntityType, entityID string) ([]models.AuditLog, error)
	ListByActor(ctx context.Context, actorID string) ([]models.AuditLog, error)
}

// AuditService exposes the read side of the audit trail.
type AuditService struct {
	audit  auditReader
	logger *zap.Logger
}

// NewAuditService constructs an AuditService instance.
func NewAuditService(audit auditReader, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{audit: audit, logger: logger}
}

// HistoryForEntity lists the audit entries of one entity, newest first.
func (s *AuditService) HistoryForEntity(ctx context.Context, entityType models.AuditEntityType, entityID string) ([]models.AuditLog, error) {
	entries, err := s.audit.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, nil
}

// HistoryForActor lists everything an actor has done, newest first.
func (s *AuditService) HistoryForActor(ctx context.Context, actorID string) ([]models.AuditLog, error) {
	entries, err := s.audit.ListByActor(ctx, actorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, nil
}
