// Package domain contains persistence models for jobs.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Job is a billable work site or contract. Grouping is the label shown on
// invoice lines; Slug is its URL- and report-safe form.
type Job struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"not null;index" json:"tenant_id"`

	Name     string `gorm:"type:text;not null" json:"name"`
	Grouping string `gorm:"type:text" json:"grouping"`
	Slug     string `gorm:"type:text;not null;index" json:"slug"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Job) TableName() string { return "jobs" }

func (j *Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return ErrInvalidName
	}
	return nil
}

var (
	ErrNotFound    = errors.New("job_not_found")
	ErrInvalidName = errors.New("invalid_job_name")
)
