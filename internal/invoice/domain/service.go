package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajyalhq/ajyal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

// Customer is the bill-to party captured on the invoice.
type Customer struct {
	Name      string `json:"name"`
	VATNumber string `json:"vat_number"`
	Address   string `json:"address"`
}

type GenerateMonthlyRequest struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Customer Customer `json:"customer"`
}

type ManualItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type CreateManualRequest struct {
	Customer Customer     `json:"customer"`
	Items    []ManualItem `json:"items"`
}

type TransitionRequest struct {
	Status        InvoiceStatus `json:"status"`
	PaidDate      *time.Time    `json:"paid_date"`
	PaymentMethod *string       `json:"payment_method"`
}

type ListInvoiceRequest struct {
	pagination.Pagination
	Status      *InvoiceStatus `form:"status"`
	SourceYear  *int           `form:"source_year"`
	SourceMonth *int           `form:"source_month"`
	IssuedFrom  *time.Time     `form:"issued_from" time_format:"2006-01-02"`
	IssuedTo    *time.Time     `form:"issued_to" time_format:"2006-01-02"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	GenerateMonthly(ctx context.Context, req GenerateMonthlyRequest) (Invoice, error)
	CreateManual(ctx context.Context, req CreateManualRequest) (Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Transition(ctx context.Context, id snowflake.ID, req TransitionRequest) (Invoice, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound             = errors.New("invoice_not_found")
	ErrEmptyPeriod          = errors.New("empty_invoice_period")
	ErrInvalidPeriod        = errors.New("invalid_invoice_period")
	ErrMissingCustomer      = errors.New("missing_customer")
	ErrMissingItems         = errors.New("missing_invoice_items")
	ErrInvalidItem          = errors.New("invalid_invoice_item")
	ErrInvalidState         = errors.New("invalid_invoice_state")
	ErrInvalidTransition    = errors.New("invalid_status_transition")
	ErrMissingPaymentMethod = errors.New("missing_payment_method")
)

// AlreadyExistsError carries the surviving invoice's id so callers can
// offer navigation instead of re-deriving anything.
type AlreadyExistsError struct {
	InvoiceID snowflake.ID
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("invoice_already_exists: %s", e.InvoiceID)
}

// TransitionError names both sides of a rejected lifecycle edge.
type TransitionError struct {
	From InvoiceStatus
	To   InvoiceStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid_status_transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
