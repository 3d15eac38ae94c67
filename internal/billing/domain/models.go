// Package domain defines the aggregation output consumed by invoicing.
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// BillableLine is the per-job rollup of one tenant's timesheet hours for an
// invoice period. Lines are computed fresh on every aggregation and never
// persisted on their own.
type BillableLine struct {
	JobID    snowflake.ID `json:"job_id"`
	JobName  string       `json:"job_name"`
	Grouping string       `json:"grouping"`

	TotalRegularHours  float64 `json:"total_regular_hours"`
	TotalOvertimeHours float64 `json:"total_overtime_hours"`

	// CostAmount uses pay rates; ChargeAmount uses charge rates and is the
	// taxable base. Both are rounded once, at this rollup level.
	CostAmount   float64 `json:"cost_amount"`
	ChargeAmount float64 `json:"charge_amount"`

	LaborerCount int `json:"laborer_count"`
}

// Aggregator rolls a tenant's timesheet entries for a calendar month up
// into billable lines. It runs inside the caller's transaction so the
// generate-monthly sequence reads a consistent snapshot.
type Aggregator interface {
	Aggregate(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, year int, month time.Month) ([]BillableLine, error)
}

// IntegrityError reports a timesheet entry whose laborer or job reference
// no longer resolves. Aggregation fails the whole request instead of
// skipping hours, since silent omission would under-bill.
type IntegrityError struct {
	Kind      string // "laborer" or "job"
	LaborerID snowflake.ID
	JobID     snowflake.ID
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("billing integrity fault: missing %s reference (laborer=%s job=%s)",
		e.Kind, e.LaborerID, e.JobID)
}
