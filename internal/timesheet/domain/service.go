package domain

import (
	"context"
	"time"

	"github.com/ajyalhq/ajyal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateEntryRequest struct {
	LaborerID          snowflake.ID `json:"laborer_id"`
	JobID              snowflake.ID `json:"job_id"`
	WorkDate           time.Time    `json:"work_date"`
	RegularHours       float64      `json:"regular_hours"`
	OvertimeHours      float64      `json:"overtime_hours"`
	OvertimeMultiplier float64      `json:"overtime_multiplier"`
}

type ListEntryRequest struct {
	pagination.Pagination
	LaborerID *snowflake.ID `form:"laborer_id"`
	JobID     *snowflake.ID `form:"job_id"`
	From      *time.Time    `form:"from" time_format:"2006-01-02"`
	To        *time.Time    `form:"to" time_format:"2006-01-02"`
}

type ListEntryResponse struct {
	pagination.PageInfo
	Entries []Entry `json:"entries"`
}

type Service interface {
	Create(ctx context.Context, req CreateEntryRequest) (Entry, error)
	GetByID(ctx context.Context, id snowflake.ID) (Entry, error)
	List(ctx context.Context, req ListEntryRequest) (ListEntryResponse, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
