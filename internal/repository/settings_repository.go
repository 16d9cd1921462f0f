package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mowamiyya/leaveMangement/internal/models"
)

// SettingsRepository stores per-user UI settings blobs.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings for a user, or sql.ErrNoRows when the user
// has never saved any.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	const query = `SELECT id, user_id, user_role, ui_settings, updated_at
	FROM user_settings WHERE user_id = $1`
	var settings models.UserSettings
	if err := r.db.GetContext(ctx, &settings, query, userID); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert saves the settings blob, replacing any prior value for the user.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO user_settings (id, user_id, user_role, ui_settings, updated_at)
	VALUES (:id, :user_id, :user_role, :ui_settings, :updated_at)
	ON CONFLICT (user_id) DO UPDATE SET
		user_role = EXCLUDED.user_role,
		ui_settings = EXCLUDED.ui_settings,
		updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
