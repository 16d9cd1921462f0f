package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Upsert(ctx context.Context, settings *models.UserSettings) error
}

// SettingsService stores opaque per-user UI preferences.
type SettingsService struct {
	settings  settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService instance.
func NewSettingsService(settings settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{settings: settings, validator: validate, logger: logger}
}

// Get returns the caller's saved settings, or an empty object when the
// caller has never saved any.
func (s *SettingsService) Get(ctx context.Context, userID string, role models.UserRole) (map[string]interface{}, error) {
	stored, err := s.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return map[string]interface{}{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(stored.UISettings, &decoded); err != nil {
		s.logger.Warn("stored settings are not valid json", zap.String("user_id", userID), zap.Error(err))
		return map[string]interface{}{}, nil
	}
	return decoded, nil
}

// Save replaces the caller's settings blob.
func (s *SettingsService) Save(ctx context.Context, userID string, role models.UserRole, req dto.UserSettingsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	encoded, err := json.Marshal(req.UISettings)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "settings must be json encodable")
	}

	settings := &models.UserSettings{
		UserID:     userID,
		UserRole:   role,
		UISettings: encoded,
	}
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	return nil
}
