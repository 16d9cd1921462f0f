package models

import "time"

// AuditEntityType identifies what kind of entity an audit entry refers to.
type AuditEntityType string

const (
	AuditEntityLeave        AuditEntityType = "LEAVE"
	AuditEntityUser         AuditEntityType = "USER"
	AuditEntityClass        AuditEntityType = "CLASS"
	AuditEntityDepartment   AuditEntityType = "DEPARTMENT"
	AuditEntityTeacher      AuditEntityType = "TEACHER"
	AuditEntityStudent      AuditEntityType = "STUDENT"
	AuditEntityClassTeacher AuditEntityType = "CLASS_TEACHER"
)

// AuditAction identifies what happened to the entity.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionApprove AuditAction = "APPROVE"
	AuditActionReject  AuditAction = "REJECT"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionLogin   AuditAction = "LOGIN"
	AuditActionLogout  AuditAction = "LOGOUT"

	AuditActionAssign         AuditAction = "ASSIGN"
	AuditActionDeactivate     AuditAction = "DEACTIVATE"
	AuditActionPasswordChange AuditAction = "PASSWORD_CHANGE"
)

// AuditLog is an append-only record of a mutation or login. Old and new
// values are opaque JSON snapshots and may be absent.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	EntityType AuditEntityType `db:"entity_type" json:"entity_type"`
	EntityID   string          `db:"entity_id" json:"entity_id"`
	Action     AuditAction     `db:"action" json:"action"`
	OldValue   []byte          `db:"old_value" json:"old_value,omitempty"`
	NewValue   []byte          `db:"new_value" json:"new_value,omitempty"`
	ActionBy   string          `db:"action_by" json:"action_by"`
	ActionAt   time.Time       `db:"action_at" json:"action_at"`
	IPAddress  *string         `db:"ip_address" json:"ip_address,omitempty"`
}
