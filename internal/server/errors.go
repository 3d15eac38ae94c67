package server

import (
	"errors"
	"net/http"
	"strings"

	billingdomain "github.com/ajyalhq/ajyal/internal/billing/domain"
	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	timesheetdomain "github.com/ajyalhq/ajyal/internal/timesheet/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	InvoiceID string `json:"invoice_id,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware renders the last error pushed onto the gin
// context. Handlers report failures through AbortWithError and never write
// error bodies themselves, so the status mapping lives in exactly one
// place.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var exists *invoicedomain.AlreadyExistsError
	if errors.As(err, &exists) {
		return http.StatusConflict, errorPayload{
			Type:      "already_exists",
			Message:   "an invoice already exists for this period",
			InvoiceID: exists.InvoiceID.String(),
		}
	}

	var integrity *billingdomain.IntegrityError
	if errors.As(err, &integrity) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "integrity_fault",
			Message: "timesheet data references a missing " + integrity.Kind,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: validationMessage(err),
		}
	case errors.Is(err, invoicedomain.ErrEmptyPeriod):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "empty_period",
			Message: "no billable timesheet entries in the requested period",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, tenantdomain.ErrInvalidTenant),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidVatRate),
		errors.Is(err, tenantdomain.ErrInvalidPaymentTerm),
		errors.Is(err, jobdomain.ErrInvalidName),
		errors.Is(err, labordomain.ErrInvalidName),
		errors.Is(err, labordomain.ErrInvalidGovernmentID),
		errors.Is(err, labordomain.ErrInvalidRate),
		errors.Is(err, labordomain.ErrInvalidJob),
		errors.Is(err, timesheetdomain.ErrInvalidLaborer),
		errors.Is(err, timesheetdomain.ErrInvalidJob),
		errors.Is(err, timesheetdomain.ErrInvalidDate),
		errors.Is(err, timesheetdomain.ErrInvalidHours),
		errors.Is(err, timesheetdomain.ErrInvalidMultiplier),
		errors.Is(err, invoicedomain.ErrInvalidPeriod),
		errors.Is(err, invoicedomain.ErrMissingCustomer),
		errors.Is(err, invoicedomain.ErrMissingItems),
		errors.Is(err, invoicedomain.ErrInvalidItem),
		errors.Is(err, invoicedomain.ErrMissingPaymentMethod):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvalidTransition),
		errors.Is(err, invoicedomain.ErrInvalidState),
		errors.Is(err, timesheetdomain.ErrDuplicateEntry),
		errors.Is(err, labordomain.ErrDuplicateGovernment):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, jobdomain.ErrNotFound),
		errors.Is(err, labordomain.ErrNotFound),
		errors.Is(err, timesheetdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationMessage(err error) string {
	msg := err.Error()
	if strings.Contains(msg, " ") {
		return msg
	}
	return strings.ReplaceAll(msg, "_", " ")
}
