// Package domain contains persistence models for laborers.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Laborer is a contracted worker. PayRate is the hourly cost to the
// business; ChargeRate is the hourly price billed to the client.
type Laborer struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"not null;index" json:"tenant_id"`

	Name string `gorm:"type:text;not null" json:"name"`
	// Government id numbers are unique across all tenants.
	GovernmentID string `gorm:"column:government_id;type:text;not null;uniqueIndex:ux_laborers_government_id" json:"government_id"`

	PayRate    float64 `gorm:"type:numeric(10,2);not null" json:"pay_rate"`
	ChargeRate float64 `gorm:"type:numeric(10,2);not null" json:"charge_rate"`

	JobID snowflake.ID `gorm:"not null;index" json:"job_id"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Laborer) TableName() string { return "laborers" }

func (l *Laborer) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(l.GovernmentID) == "" {
		return ErrInvalidGovernmentID
	}
	if l.PayRate < 0 || l.ChargeRate < 0 {
		return ErrInvalidRate
	}
	if l.JobID == 0 {
		return ErrInvalidJob
	}
	return nil
}

var (
	ErrNotFound            = errors.New("laborer_not_found")
	ErrInvalidName         = errors.New("invalid_laborer_name")
	ErrInvalidGovernmentID = errors.New("invalid_government_id")
	ErrDuplicateGovernment = errors.New("duplicate_government_id")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrInvalidJob          = errors.New("invalid_job")
)
