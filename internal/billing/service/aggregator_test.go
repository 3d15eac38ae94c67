package service

import (
	"context"
	"testing"
	"time"

	billingdomain "github.com/ajyalhq/ajyal/internal/billing/domain"
	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	timesheetdomain "github.com/ajyalhq/ajyal/internal/timesheet/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type aggregatorHarness struct {
	db       *gorm.DB
	node     *snowflake.Node
	tenantID snowflake.ID
	agg      billingdomain.Aggregator
}

func newAggregatorHarness(t *testing.T) *aggregatorHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&jobdomain.Job{},
		&labordomain.Laborer{},
		&timesheetdomain.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &aggregatorHarness{
		db:       db,
		node:     node,
		tenantID: node.Generate(),
		agg:      NewAggregator(AggregatorParam{Log: zap.NewNop()}),
	}
}

func (h *aggregatorHarness) createJob(t *testing.T, name, grouping string) jobdomain.Job {
	t.Helper()
	job := jobdomain.Job{
		ID:       h.node.Generate(),
		TenantID: h.tenantID,
		Name:     name,
		Grouping: grouping,
		Slug:     name,
	}
	require.NoError(t, h.db.Create(&job).Error)
	return job
}

func (h *aggregatorHarness) createLaborer(t *testing.T, job jobdomain.Job, pay, charge float64) labordomain.Laborer {
	t.Helper()
	laborer := labordomain.Laborer{
		ID:           h.node.Generate(),
		TenantID:     h.tenantID,
		Name:         "worker",
		GovernmentID: h.node.Generate().String(),
		PayRate:      pay,
		ChargeRate:   charge,
		JobID:        job.ID,
	}
	require.NoError(t, h.db.Create(&laborer).Error)
	return laborer
}

func (h *aggregatorHarness) logDay(t *testing.T, laborer labordomain.Laborer, jobID snowflake.ID, day time.Time, regular, overtime, multiplier float64) {
	t.Helper()
	entry := timesheetdomain.Entry{
		ID:                 h.node.Generate(),
		TenantID:           h.tenantID,
		LaborerID:          laborer.ID,
		JobID:              jobID,
		WorkDate:           day,
		RegularHours:       regular,
		OvertimeHours:      overtime,
		OvertimeMultiplier: multiplier,
	}
	require.NoError(t, h.db.Create(&entry).Error)
}

func TestAggregate_ChargeAndCostPerJob(t *testing.T) {
	h := newAggregatorHarness(t)
	job := h.createJob(t, "Site Alpha", "civil-works")
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// charge: 8*35 + 2*35*1.5 = 385.00, cost: 8*20 + 2*20*1.5 = 220.00
	laborerA := h.createLaborer(t, job, 20, 35)
	h.logDay(t, laborerA, job.ID, day, 8, 2, 1.5)

	// charge: 8*25 + 2*25*1.5 = 275.00, cost: 8*15 + 2*15*1.5 = 165.00
	laborerB := h.createLaborer(t, job, 15, 25)
	h.logDay(t, laborerB, job.ID, day, 8, 2, 1.5)

	lines, err := h.agg.Aggregate(context.Background(), h.db, h.tenantID, 2026, time.March)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "Site Alpha", line.JobName)
	assert.Equal(t, "civil-works", line.Grouping)
	assert.Equal(t, 16.0, line.TotalRegularHours)
	assert.Equal(t, 4.0, line.TotalOvertimeHours)
	assert.Equal(t, 660.00, line.ChargeAmount)
	assert.Equal(t, 385.00, line.CostAmount)
	assert.Equal(t, 2, line.LaborerCount)
}

func TestAggregate_LinesSortedByJobName(t *testing.T) {
	h := newAggregatorHarness(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	jobZ := h.createJob(t, "Zulu Yard", "")
	jobA := h.createJob(t, "Alpha Yard", "")
	laborer := h.createLaborer(t, jobA, 10, 20)
	h.logDay(t, laborer, jobZ.ID, day, 8, 0, 1.5)
	h.logDay(t, laborer, jobA.ID, day.AddDate(0, 0, 1), 8, 0, 1.5)

	lines, err := h.agg.Aggregate(context.Background(), h.db, h.tenantID, 2026, time.March)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Alpha Yard", lines[0].JobName)
	assert.Equal(t, "Zulu Yard", lines[1].JobName)
}

func TestAggregate_MonthBoundariesExcluded(t *testing.T) {
	h := newAggregatorHarness(t)
	job := h.createJob(t, "Site Alpha", "")
	laborer := h.createLaborer(t, job, 10, 20)

	h.logDay(t, laborer, job.ID, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 8, 0, 1.5)
	h.logDay(t, laborer, job.ID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 8, 0, 1.5)
	h.logDay(t, laborer, job.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 8, 0, 1.5)
	h.logDay(t, laborer, job.ID, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 8, 0, 1.5)

	lines, err := h.agg.Aggregate(context.Background(), h.db, h.tenantID, 2026, time.March)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 16.0, lines[0].TotalRegularHours)
}

func TestAggregate_EmptyPeriodReturnsNoLines(t *testing.T) {
	h := newAggregatorHarness(t)

	lines, err := h.agg.Aggregate(context.Background(), h.db, h.tenantID, 2026, time.March)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAggregate_MissingLaborerIsIntegrityFault(t *testing.T) {
	h := newAggregatorHarness(t)
	job := h.createJob(t, "Site Alpha", "")
	laborer := h.createLaborer(t, job, 10, 20)
	h.logDay(t, laborer, job.ID, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 8, 0, 1.5)

	require.NoError(t, h.db.Delete(&labordomain.Laborer{}, laborer.ID).Error)

	_, err := h.agg.Aggregate(context.Background(), h.db, h.tenantID, 2026, time.March)
	var fault *billingdomain.IntegrityError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "laborer", fault.Kind)
	assert.Equal(t, laborer.ID, fault.LaborerID)
}

func TestAggregate_MissingJobIsIntegrityFault(t *testing.T) {
	h := newAggregatorHarness(t)
	job := h.createJob(t, "Site Alpha", "")
	laborer := h.createLaborer(t, job, 10, 20)
	h.logDay(t, laborer, job.ID, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 8, 0, 1.5)

	require.NoError(t, h.db.Delete(&jobdomain.Job{}, job.ID).Error)

	_, err := h.agg.Aggregate(context.Background(), h.db, h.tenantID, 2026, time.March)
	var fault *billingdomain.IntegrityError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "job", fault.Kind)
}

func TestAggregate_TenantIsolation(t *testing.T) {
	h := newAggregatorHarness(t)
	job := h.createJob(t, "Site Alpha", "")
	laborer := h.createLaborer(t, job, 10, 20)
	h.logDay(t, laborer, job.ID, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 8, 0, 1.5)

	otherTenant := h.node.Generate()
	lines, err := h.agg.Aggregate(context.Background(), h.db, otherTenant, 2026, time.March)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
