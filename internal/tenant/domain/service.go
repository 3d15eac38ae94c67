package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateTenantRequest struct {
	Name            string   `json:"name"`
	SellerName      string   `json:"seller_name"`
	VATNumber       string   `json:"vat_number"`
	BankDetails     string   `json:"bank_details"`
	VatRatePercent  *float64 `json:"vat_rate_percent"`
	PaymentTermDays *int     `json:"payment_term_days"`
}

type UpdateBillingSettingsRequest struct {
	SellerName      *string  `json:"seller_name"`
	VATNumber       *string  `json:"vat_number"`
	BankDetails     *string  `json:"bank_details"`
	VatRatePercent  *float64 `json:"vat_rate_percent"`
	PaymentTermDays *int     `json:"payment_term_days"`
	NumberTemplate  *string  `json:"number_template"`
}

type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (Tenant, error)
	GetByID(ctx context.Context, id snowflake.ID) (Tenant, error)
	// Current resolves the tenant carried in the request context.
	Current(ctx context.Context) (Tenant, error)
	UpdateBillingSettings(ctx context.Context, req UpdateBillingSettingsRequest) (Tenant, error)
}
