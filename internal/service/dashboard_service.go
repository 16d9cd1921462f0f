package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type dashboardLeaveRepository interface {
	CountsForApplicant(ctx context.Context, applicantID string, role models.ApplicantRole) (*models.LeaveCounts, error)
	CountsForTeacher(ctx context.Context, teacherID string) (*models.LeaveCounts, error)
	CountsAll(ctx context.Context) (*models.LeaveCounts, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// DashboardService aggregates per-role leave statistics, short-cached in
// Redis. A cache failure degrades to a direct query, never an error.
type DashboardService struct {
	leaves   dashboardLeaveRepository
	cache    dashboardCache
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(leaves dashboardLeaveRepository, cache dashboardCache, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{leaves: leaves, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// Stats returns the dashboard cards scoped to the caller's role: students
// see their own applications, teachers the leaves reported to them, admins
// the whole system.
func (s *DashboardService) Stats(ctx context.Context, userID string, role models.UserRole) (*dto.DashboardStats, error) {
	key := fmt.Sprintf("dashboard:stats:%s:%s", role, userID)
	if s.cache != nil {
		var cached dto.DashboardStats
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	var counts *models.LeaveCounts
	var err error
	switch role {
	case models.RoleStudent:
		counts, err = s.leaves.CountsForApplicant(ctx, userID, models.ApplicantStudent)
	case models.RoleTeacher:
		counts, err = s.leaves.CountsForTeacher(ctx, userID)
	case models.RoleAdmin:
		counts, err = s.leaves.CountsAll(ctx)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate leaves")
	}

	stats := &dto.DashboardStats{
		TotalLeaves:    counts.Total,
		PendingLeaves:  counts.Pending,
		ApprovedLeaves: counts.Approved,
		RejectedLeaves: counts.Rejected,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
