package domain

import (
	"context"

	"github.com/ajyalhq/ajyal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateLaborerRequest struct {
	Name         string       `json:"name"`
	GovernmentID string       `json:"government_id"`
	PayRate      float64      `json:"pay_rate"`
	ChargeRate   float64      `json:"charge_rate"`
	JobID        snowflake.ID `json:"job_id"`
}

type UpdateLaborerRequest struct {
	Name       *string       `json:"name"`
	PayRate    *float64      `json:"pay_rate"`
	ChargeRate *float64      `json:"charge_rate"`
	JobID      *snowflake.ID `json:"job_id"`
}

type ListLaborerRequest struct {
	pagination.Pagination
	JobID *snowflake.ID `form:"job_id"`
}

type ListLaborerResponse struct {
	pagination.PageInfo
	Laborers []Laborer `json:"laborers"`
}

type Service interface {
	Create(ctx context.Context, req CreateLaborerRequest) (Laborer, error)
	GetByID(ctx context.Context, id snowflake.ID) (Laborer, error)
	List(ctx context.Context, req ListLaborerRequest) (ListLaborerResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateLaborerRequest) (Laborer, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
