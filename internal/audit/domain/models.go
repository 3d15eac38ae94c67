// Package domain contains the audit trail model.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records a billing-relevant action after its transaction has
// committed. Rows are append-only.
type AuditLog struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"not null;index" json:"tenant_id"`

	Action       string       `gorm:"type:text;not null" json:"action"`
	ResourceType string       `gorm:"type:text;not null" json:"resource_type"`
	ResourceID   snowflake.ID `gorm:"index" json:"resource_id"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// Entry is what callers hand the recorder; ids and timestamps are filled in
// at write time.
type Entry struct {
	TenantID     snowflake.ID
	Action       string
	ResourceType string
	ResourceID   snowflake.ID
	Metadata     map[string]interface{}
}

// Recorder persists audit entries. Record is best effort: it must be called
// after the business transaction commits, and a failed write is logged, not
// propagated.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}
