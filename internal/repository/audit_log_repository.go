package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mowamiyya/leaveMangement/internal/models"
)

// AuditLogRepository persists the append-only audit trail. Entries are never
// updated or deleted.
type AuditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository constructs the repository.
func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

const insertAuditQuery = `INSERT INTO audit_logs
	(id, entity_type, entity_id, action, old_value, new_value, action_by, action_at, ip_address)
	VALUES (:id, :entity_type, :entity_id, :action, :old_value, :new_value, :action_by, :action_at, :ip_address)`

// Create appends a single audit entry outside any caller transaction.
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	prepareAuditEntry(entry)
	if _, err := r.db.NamedExecContext(ctx, insertAuditQuery, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// insertAuditTx appends an audit entry inside the caller's transaction so the
// mutation and its audit record commit or roll back together.
func insertAuditTx(ctx context.Context, tx *sqlx.Tx, entry *models.AuditLog) error {
	prepareAuditEntry(entry)
	if _, err := tx.NamedExecContext(ctx, insertAuditQuery, entry); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func prepareAuditEntry(entry *models.AuditLog) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ActionAt.IsZero() {
		entry.ActionAt = time.Now().UTC()
	}
}

// ListByEntity returns all entries for an entity, newest first.
func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityType models.AuditEntityType, entityID string) ([]models.AuditLog, error) {
	const query = `SELECT id, entity_type, entity_id, action, old_value, new_value, action_by, action_at, ip_address
	FROM audit_logs WHERE entity_type = $1 AND entity_id = $2 ORDER BY action_at DESC`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("list audit logs by entity: %w", err)
	}
	return entries, nil
}

// ListByActor returns all entries recorded for an actor, newest first.
func (r *AuditLogRepository) ListByActor(ctx context.Context, actorID string) ([]models.AuditLog, error) {
	const query = `SELECT id, entity_type, entity_id, action, old_value, new_value, action_by, action_at, ip_address
	FROM audit_logs WHERE action_by = $1 ORDER BY action_at DESC`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, actorID); err != nil {
		return nil, fmt.Errorf("list audit logs by actor: %w", err)
	}
	return entries, nil
}
