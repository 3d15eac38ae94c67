// Package domain contains persistence models for timesheet entries.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entry is one laborer's hours for one calendar day. At most one entry may
// exist per (tenant, laborer, date); duplicates are rejected at create time
// rather than summed, so the billing engine can trust the data it reads.
type Entry struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_timesheets_laborer_date" json:"tenant_id"`

	LaborerID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_timesheets_laborer_date" json:"laborer_id"`
	JobID     snowflake.ID `gorm:"not null;index" json:"job_id"`
	WorkDate  time.Time    `gorm:"column:work_date;type:date;not null;uniqueIndex:ux_timesheets_laborer_date" json:"work_date"`

	RegularHours       float64 `gorm:"type:numeric(6,2);not null" json:"regular_hours"`
	OvertimeHours      float64 `gorm:"type:numeric(6,2);not null;default:0" json:"overtime_hours"`
	OvertimeMultiplier float64 `gorm:"type:numeric(4,2);not null;default:1.5" json:"overtime_multiplier"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "timesheet_entries" }

func (e *Entry) Validate() error {
	if e.LaborerID == 0 {
		return ErrInvalidLaborer
	}
	if e.JobID == 0 {
		return ErrInvalidJob
	}
	if e.WorkDate.IsZero() {
		return ErrInvalidDate
	}
	if e.RegularHours < 0 || e.OvertimeHours < 0 {
		return ErrInvalidHours
	}
	if e.RegularHours == 0 && e.OvertimeHours == 0 {
		return ErrInvalidHours
	}
	if e.OvertimeMultiplier <= 0 {
		return ErrInvalidMultiplier
	}
	return nil
}

var (
	ErrNotFound          = errors.New("timesheet_entry_not_found")
	ErrDuplicateEntry    = errors.New("duplicate_timesheet_entry")
	ErrInvalidLaborer    = errors.New("invalid_laborer")
	ErrInvalidJob        = errors.New("invalid_job")
	ErrInvalidDate       = errors.New("invalid_work_date")
	ErrInvalidHours      = errors.New("invalid_hours")
	ErrInvalidMultiplier = errors.New("invalid_overtime_multiplier")
)
