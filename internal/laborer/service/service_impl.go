package service

import (
	"context"
	"strings"

	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/ajyalhq/ajyal/pkg/db"
	"github.com/ajyalhq/ajyal/pkg/db/option"
	"github.com/ajyalhq/ajyal/pkg/db/pagination"
	"github.com/ajyalhq/ajyal/pkg/repository"
	"github.com/ajyalhq/ajyal/pkg/tenantctx"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	JobSvc jobdomain.Service
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	laborrepo repository.Repository[labordomain.Laborer]
	jobSvc    jobdomain.Service
}

func NewService(p ServiceParam) labordomain.Service {
	return &Service{
		log:       p.Log.Named("laborer.service"),
		genID:     p.GenID,
		laborrepo: repository.ProvideStore[labordomain.Laborer](p.DB),
		jobSvc:    p.JobSvc,
	}
}

func (s *Service) Create(ctx context.Context, req labordomain.CreateLaborerRequest) (labordomain.Laborer, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return labordomain.Laborer{}, tenantdomain.ErrInvalidTenant
	}

	laborer := labordomain.Laborer{
		ID:           s.genID.Generate(),
		TenantID:     tenantID,
		Name:         strings.TrimSpace(req.Name),
		GovernmentID: strings.TrimSpace(req.GovernmentID),
		PayRate:      req.PayRate,
		ChargeRate:   req.ChargeRate,
		JobID:        req.JobID,
	}
	if err := laborer.Validate(); err != nil {
		return labordomain.Laborer{}, err
	}

	if _, err := s.jobSvc.GetByID(ctx, laborer.JobID); err != nil {
		return labordomain.Laborer{}, err
	}

	if err := s.laborrepo.Create(ctx, &laborer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return labordomain.Laborer{}, labordomain.ErrDuplicateGovernment
		}
		return labordomain.Laborer{}, err
	}
	return laborer, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (labordomain.Laborer, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return labordomain.Laborer{}, tenantdomain.ErrInvalidTenant
	}

	item, err := s.laborrepo.FindOne(ctx, &labordomain.Laborer{ID: id, TenantID: tenantID})
	if err != nil {
		return labordomain.Laborer{}, err
	}
	if item == nil {
		return labordomain.Laborer{}, labordomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req labordomain.ListLaborerRequest) (labordomain.ListLaborerResponse, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return labordomain.ListLaborerResponse{}, tenantdomain.ErrInvalidTenant
	}

	filter := &labordomain.Laborer{TenantID: tenantID}
	if req.JobID != nil {
		filter.JobID = *req.JobID
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}
	items, err := s.laborrepo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"name": true}, Field: "name"}),
		option.WithLimit(limit+1),
	)
	if err != nil {
		return labordomain.ListLaborerResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, limit, func(l *labordomain.Laborer) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: l.ID.String()})
		return token
	})

	laborers := make([]labordomain.Laborer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		laborers = append(laborers, *item)
	}
	return labordomain.ListLaborerResponse{PageInfo: *pageInfo, Laborers: laborers}, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req labordomain.UpdateLaborerRequest) (labordomain.Laborer, error) {
	laborer, err := s.GetByID(ctx, id)
	if err != nil {
		return labordomain.Laborer{}, err
	}

	if req.Name != nil {
		laborer.Name = strings.TrimSpace(*req.Name)
	}
	if req.PayRate != nil {
		laborer.PayRate = *req.PayRate
	}
	if req.ChargeRate != nil {
		laborer.ChargeRate = *req.ChargeRate
	}
	if req.JobID != nil {
		if _, err := s.jobSvc.GetByID(ctx, *req.JobID); err != nil {
			return labordomain.Laborer{}, err
		}
		laborer.JobID = *req.JobID
	}
	if err := laborer.Validate(); err != nil {
		return labordomain.Laborer{}, err
	}

	if err := s.laborrepo.Update(ctx, laborer.ID.String(), map[string]any{
		"name":        laborer.Name,
		"pay_rate":    laborer.PayRate,
		"charge_rate": laborer.ChargeRate,
		"job_id":      laborer.JobID,
	}); err != nil {
		return labordomain.Laborer{}, err
	}
	return laborer, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	laborer, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.laborrepo.Delete(ctx, laborer.ID.String())
}
