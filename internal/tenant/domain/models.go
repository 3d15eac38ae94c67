// Package domain contains persistence models for tenants.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is the isolation boundary for all business data. Billing settings
// live here so every invoice can capture its effective values at creation.
type Tenant struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name string       `gorm:"type:text;not null" json:"name"`

	// Seller identity stamped into compliance payloads and PDFs.
	SellerName  string `gorm:"type:text;not null" json:"seller_name"`
	VATNumber   string `gorm:"column:vat_number;type:text;not null" json:"vat_number"`
	BankDetails string `gorm:"type:text" json:"bank_details"`

	VatRatePercent  float64 `gorm:"column:vat_rate_percent;type:numeric(6,3);not null;default:15" json:"vat_rate_percent"`
	PaymentTermDays int     `gorm:"not null;default:30" json:"payment_term_days"`
	NumberTemplate  string  `gorm:"type:text;not null;default:'INV-{YYYY}{MM}-{SEQ4}'" json:"number_template"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

func (t *Tenant) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidName
	}
	if t.VatRatePercent < 0 || t.VatRatePercent > 100 {
		return ErrInvalidVatRate
	}
	if t.PaymentTermDays < 0 {
		return ErrInvalidPaymentTerm
	}
	return nil
}

var (
	ErrNotFound           = errors.New("tenant_not_found")
	ErrInvalidTenant      = errors.New("invalid_tenant")
	ErrInvalidName        = errors.New("invalid_tenant_name")
	ErrInvalidVatRate     = errors.New("invalid_vat_rate")
	ErrInvalidPaymentTerm = errors.New("invalid_payment_term")
)
