package service

import (
	"context"
	"time"

	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	timesheetdomain "github.com/ajyalhq/ajyal/internal/timesheet/domain"
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

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	LaborerSvc labordomain.Service
	JobSvc     jobdomain.Service
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	entryrepo  repository.Repository[timesheetdomain.Entry]
	laborerSvc labordomain.Service
	jobSvc     jobdomain.Service
}

func NewService(p ServiceParam) timesheetdomain.Service {
	return &Service{
		log:        p.Log.Named("timesheet.service"),
		genID:      p.GenID,
		entryrepo:  repository.ProvideStore[timesheetdomain.Entry](p.DB),
		laborerSvc: p.LaborerSvc,
		jobSvc:     p.JobSvc,
	}
}

func (s *Service) Create(ctx context.Context, req timesheetdomain.CreateEntryRequest) (timesheetdomain.Entry, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return timesheetdomain.Entry{}, tenantdomain.ErrInvalidTenant
	}

	multiplier := req.OvertimeMultiplier
	if multiplier == 0 {
		multiplier = 1.5
	}

	entry := timesheetdomain.Entry{
		ID:                 s.genID.Generate(),
		TenantID:           tenantID,
		LaborerID:          req.LaborerID,
		JobID:              req.JobID,
		WorkDate:           truncateToDay(req.WorkDate),
		RegularHours:       req.RegularHours,
		OvertimeHours:      req.OvertimeHours,
		OvertimeMultiplier: multiplier,
	}
	if err := entry.Validate(); err != nil {
		return timesheetdomain.Entry{}, err
	}

	if _, err := s.laborerSvc.GetByID(ctx, entry.LaborerID); err != nil {
		return timesheetdomain.Entry{}, err
	}
	if _, err := s.jobSvc.GetByID(ctx, entry.JobID); err != nil {
		return timesheetdomain.Entry{}, err
	}

	// The unique index on (tenant, laborer, work_date) is the backstop for
	// concurrent submissions of the same day.
	existing, err := s.entryrepo.FindOne(ctx, &timesheetdomain.Entry{
		TenantID:  tenantID,
		LaborerID: entry.LaborerID,
		WorkDate:  entry.WorkDate,
	})
	if err != nil {
		return timesheetdomain.Entry{}, err
	}
	if existing != nil {
		return timesheetdomain.Entry{}, timesheetdomain.ErrDuplicateEntry
	}

	if err := s.entryrepo.Create(ctx, &entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return timesheetdomain.Entry{}, timesheetdomain.ErrDuplicateEntry
		}
		return timesheetdomain.Entry{}, err
	}
	return entry, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (timesheetdomain.Entry, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return timesheetdomain.Entry{}, tenantdomain.ErrInvalidTenant
	}

	item, err := s.entryrepo.FindOne(ctx, &timesheetdomain.Entry{ID: id, TenantID: tenantID})
	if err != nil {
		return timesheetdomain.Entry{}, err
	}
	if item == nil {
		return timesheetdomain.Entry{}, timesheetdomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req timesheetdomain.ListEntryRequest) (timesheetdomain.ListEntryResponse, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return timesheetdomain.ListEntryResponse{}, tenantdomain.ErrInvalidTenant
	}

	filter := &timesheetdomain.Entry{TenantID: tenantID}
	if req.LaborerID != nil {
		filter.LaborerID = *req.LaborerID
	}
	if req.JobID != nil {
		filter.JobID = *req.JobID
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"work_date": true}, Field: "work_date", Desc: true}),
	}
	if req.From != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "work_date",
			Operator: option.GTE,
			Value:    truncateToDay(*req.From),
		}))
	}
	if req.To != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "work_date",
			Operator: option.LTE,
			Value:    truncateToDay(*req.To),
		}))
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}
	options = append(options, option.WithLimit(limit+1))

	items, err := s.entryrepo.Find(ctx, filter, options...)
	if err != nil {
		return timesheetdomain.ListEntryResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, limit, func(e *timesheetdomain.Entry) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: e.ID.String()})
		return token
	})

	entries := make([]timesheetdomain.Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}
	return timesheetdomain.ListEntryResponse{PageInfo: *pageInfo, Entries: entries}, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	entry, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.entryrepo.Delete(ctx, entry.ID.String())
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
