// Package domain contains the per-tenant invoice number sequence.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// InvoiceSequence is one tenant's counter for a single issue month.
// Numbers start at 1 per bucket and are independent of other tenants and
// other months.
type InvoiceSequence struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	TenantID snowflake.ID `gorm:"not null;uniqueIndex:ux_invoice_sequences_bucket"`
	Year     int          `gorm:"not null;uniqueIndex:ux_invoice_sequences_bucket"`
	Month    int          `gorm:"not null;uniqueIndex:ux_invoice_sequences_bucket"`

	LastValue int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }

// Sequencer reserves the next invoice number for a (tenant, year, month)
// bucket. It must be called inside the invoice-creation transaction so a
// rollback releases the reservation with everything else.
type Sequencer interface {
	NextNumber(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, year, month int) (int64, error)
}
