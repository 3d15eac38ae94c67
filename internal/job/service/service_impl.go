package service

import (
	"context"
	"strings"

	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	"github.com/ajyalhq/ajyal/pkg/db/option"
	"github.com/ajyalhq/ajyal/pkg/db/pagination"
	"github.com/ajyalhq/ajyal/pkg/repository"
	"github.com/ajyalhq/ajyal/pkg/tenantctx"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	jobrepo repository.Repository[jobdomain.Job]
}

func NewService(p ServiceParam) jobdomain.Service {
	return &Service{
		log:     p.Log.Named("job.service"),
		genID:   p.GenID,
		jobrepo: repository.ProvideStore[jobdomain.Job](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req jobdomain.CreateJobRequest) (jobdomain.Job, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return jobdomain.Job{}, tenantdomain.ErrInvalidTenant
	}

	job := jobdomain.Job{
		ID:       s.genID.Generate(),
		TenantID: tenantID,
		Name:     strings.TrimSpace(req.Name),
		Grouping: strings.TrimSpace(req.Grouping),
	}
	if err := job.Validate(); err != nil {
		return jobdomain.Job{}, err
	}
	job.Slug = slugFor(job)

	if err := s.jobrepo.Create(ctx, &job); err != nil {
		return jobdomain.Job{}, err
	}
	return job, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (jobdomain.Job, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return jobdomain.Job{}, tenantdomain.ErrInvalidTenant
	}

	item, err := s.jobrepo.FindOne(ctx, &jobdomain.Job{ID: id, TenantID: tenantID})
	if err != nil {
		return jobdomain.Job{}, err
	}
	if item == nil {
		return jobdomain.Job{}, jobdomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req jobdomain.ListJobRequest) (jobdomain.ListJobResponse, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return jobdomain.ListJobResponse{}, tenantdomain.ErrInvalidTenant
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}
	items, err := s.jobrepo.Find(ctx, &jobdomain.Job{TenantID: tenantID},
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"name": true}, Field: "name"}),
		option.WithLimit(limit+1),
	)
	if err != nil {
		return jobdomain.ListJobResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, limit, func(j *jobdomain.Job) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: j.ID.String()})
		return token
	})

	jobs := make([]jobdomain.Job, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		jobs = append(jobs, *item)
	}
	return jobdomain.ListJobResponse{PageInfo: *pageInfo, Jobs: jobs}, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req jobdomain.UpdateJobRequest) (jobdomain.Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return jobdomain.Job{}, err
	}

	if req.Name != nil {
		job.Name = strings.TrimSpace(*req.Name)
	}
	if req.Grouping != nil {
		job.Grouping = strings.TrimSpace(*req.Grouping)
	}
	if err := job.Validate(); err != nil {
		return jobdomain.Job{}, err
	}
	job.Slug = slugFor(job)

	if err := s.jobrepo.Update(ctx, job.ID.String(), map[string]any{
		"name":     job.Name,
		"grouping": job.Grouping,
		"slug":     job.Slug,
	}); err != nil {
		return jobdomain.Job{}, err
	}
	return job, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.jobrepo.Delete(ctx, job.ID.String())
}

func slugFor(job jobdomain.Job) string {
	if job.Grouping != "" {
		return slug.Make(job.Grouping)
	}
	return slug.Make(job.Name)
}
