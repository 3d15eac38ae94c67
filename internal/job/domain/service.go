package domain

import (
	"context"

	"github.com/ajyalhq/ajyal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateJobRequest struct {
	Name     string `json:"name"`
	Grouping string `json:"grouping"`
}

type UpdateJobRequest struct {
	Name     *string `json:"name"`
	Grouping *string `json:"grouping"`
}

type ListJobRequest struct {
	pagination.Pagination
}

type ListJobResponse struct {
	pagination.PageInfo
	Jobs []Job `json:"jobs"`
}

type Service interface {
	Create(ctx context.Context, req CreateJobRequest) (Job, error)
	GetByID(ctx context.Context, id snowflake.ID) (Job, error)
	List(ctx context.Context, req ListJobRequest) (ListJobResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateJobRequest) (Job, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
