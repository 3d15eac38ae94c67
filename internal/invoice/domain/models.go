// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"

	// InvoiceStatusOverdue is derived at read time and never stored.
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// Invoice is immutable after creation except for status, payment capture
// and cancellation. Monthly invoices carry their source period; manual
// invoices leave it null and are excluded from the monthly idempotency
// check.
type Invoice struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"not null;index" json:"tenant_id"`

	// InvoiceNumber is sequential within (tenant, number_year, number_month);
	// Number is its human-readable rendering from the tenant's template.
	InvoiceNumber int64  `gorm:"not null;uniqueIndex:ux_invoices_tenant_bucket_number" json:"invoice_number"`
	NumberYear    int    `gorm:"not null;uniqueIndex:ux_invoices_tenant_bucket_number" json:"number_year"`
	NumberMonth   int    `gorm:"not null;uniqueIndex:ux_invoices_tenant_bucket_number" json:"number_month"`
	Number        string `gorm:"type:text;not null" json:"number"`

	SourceYear  *int `gorm:"index" json:"source_year"`
	SourceMonth *int `gorm:"index" json:"source_month"`

	CustomerName      string `gorm:"type:text;not null" json:"customer_name"`
	CustomerVATNumber string `gorm:"column:customer_vat_number;type:text" json:"customer_vat_number"`
	CustomerAddress   string `gorm:"type:text" json:"customer_address"`

	Status InvoiceStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	// DerivedStatus applies the read-time OVERDUE rule; it is what callers
	// should display and never what the database stores.
	DerivedStatus InvoiceStatus `gorm:"-" json:"derived_status"`

	IssueDate time.Time `gorm:"not null" json:"issue_date"`
	DueDate   time.Time `gorm:"not null" json:"due_date"`

	Subtotal    float64 `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	VatAmount   float64 `gorm:"column:vat_amount;type:numeric(12,2);not null" json:"vat_amount"`
	TotalAmount float64 `gorm:"type:numeric(12,2);not null" json:"total_amount"`

	PaidDate      *time.Time `gorm:"" json:"paid_date"`
	PaymentMethod *string    `gorm:"type:text" json:"payment_method"`

	QRPayload string `gorm:"column:qr_payload;type:text;not null" json:"qr_payload"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []InvoiceItem `gorm:"-" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice. VatRatePercent is the rate
// in force when the invoice was created; later tenant rate changes never
// touch existing invoices.
type InvoiceItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`

	JobID *snowflake.ID `gorm:"index" json:"job_id"`

	Description    string  `gorm:"type:text;not null" json:"description"`
	Quantity       float64 `gorm:"type:numeric(10,2);not null" json:"quantity"`
	UnitPrice      float64 `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal      float64 `gorm:"type:numeric(12,2);not null" json:"line_total"`
	VatRatePercent float64 `gorm:"column:vat_rate_percent;type:numeric(6,3);not null" json:"vat_rate_percent"`
	VatAmount      float64 `gorm:"column:vat_amount;type:numeric(12,2);not null" json:"vat_amount"`
	TotalAmount    float64 `gorm:"type:numeric(12,2);not null" json:"total_amount"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
