package service

import (
	"context"
	"testing"
	"time"

	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	jobservice "github.com/ajyalhq/ajyal/internal/job/service"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	laborservice "github.com/ajyalhq/ajyal/internal/laborer/service"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	timesheetdomain "github.com/ajyalhq/ajyal/internal/timesheet/domain"
	"github.com/ajyalhq/ajyal/pkg/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type timesheetHarness struct {
	svc     timesheetdomain.Service
	ctx     context.Context
	laborer labordomain.Laborer
	job     jobdomain.Job
}

func newTimesheetHarness(t *testing.T) *timesheetHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{},
		&jobdomain.Job{},
		&labordomain.Laborer{},
		&timesheetdomain.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	tenantID := node.Generate()
	ctx := tenantctx.WithTenantID(context.Background(), tenantID)

	jobSvc := jobservice.NewService(jobservice.ServiceParam{DB: db, Log: log, GenID: node})
	laborerSvc := laborservice.NewService(laborservice.ServiceParam{
		DB: db, Log: log, GenID: node, JobSvc: jobSvc,
	})
	svc := NewService(ServiceParam{
		DB: db, Log: log, GenID: node, LaborerSvc: laborerSvc, JobSvc: jobSvc,
	})

	job, err := jobSvc.Create(ctx, jobdomain.CreateJobRequest{Name: "Site Alpha"})
	require.NoError(t, err)
	laborer, err := laborerSvc.Create(ctx, labordomain.CreateLaborerRequest{
		Name: "Worker", GovernmentID: "1098765432",
		PayRate: 20, ChargeRate: 35, JobID: job.ID,
	})
	require.NoError(t, err)

	return &timesheetHarness{svc: svc, ctx: ctx, laborer: laborer, job: job}
}

func TestCreateEntry_DuplicateDayRejected(t *testing.T) {
	h := newTimesheetHarness(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: h.job.ID, WorkDate: day, RegularHours: 8,
	})
	require.NoError(t, err)

	// Same laborer and day, even with different hours, must be rejected
	// rather than summed.
	_, err = h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: h.job.ID, WorkDate: day, RegularHours: 4,
	})
	assert.ErrorIs(t, err, timesheetdomain.ErrDuplicateEntry)

	// The next day is fine.
	_, err = h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: h.job.ID, WorkDate: day.AddDate(0, 0, 1), RegularHours: 8,
	})
	assert.NoError(t, err)
}

func TestCreateEntry_TimeOfDayIgnoredForUniqueness(t *testing.T) {
	h := newTimesheetHarness(t)

	_, err := h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: h.job.ID,
		WorkDate: time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC), RegularHours: 8,
	})
	require.NoError(t, err)

	_, err = h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: h.job.ID,
		WorkDate: time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC), RegularHours: 2,
	})
	assert.ErrorIs(t, err, timesheetdomain.ErrDuplicateEntry)
}

func TestCreateEntry_Validation(t *testing.T) {
	h := newTimesheetHarness(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: h.job.ID, WorkDate: day,
	})
	assert.ErrorIs(t, err, timesheetdomain.ErrInvalidHours)

	_, err = h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: h.job.ID, WorkDate: day,
		RegularHours: 8, OvertimeMultiplier: -1,
	})
	assert.ErrorIs(t, err, timesheetdomain.ErrInvalidMultiplier)

	_, err = h.svc.Create(h.ctx, timesheetdomain.CreateEntryRequest{
		LaborerID: h.laborer.ID, JobID: 12345, WorkDate: day, RegularHours: 8,
	})
	assert.ErrorIs(t, err, jobdomain.ErrNotFound)
}
