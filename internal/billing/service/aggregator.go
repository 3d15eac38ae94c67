package service

import (
	"context"
	"sort"
	"time"

	billingdomain "github.com/ajyalhq/ajyal/internal/billing/domain"
	"github.com/ajyalhq/ajyal/internal/observability/metrics"
	"github.com/ajyalhq/ajyal/internal/tax"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AggregatorParam struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.BillingMetrics `optional:"true"`
}

type aggregator struct {
	log     *zap.Logger
	metrics *metrics.BillingMetrics
}

func NewAggregator(p AggregatorParam) billingdomain.Aggregator {
	return &aggregator{
		log:     p.Log.Named("billing.aggregator"),
		metrics: p.Metrics,
	}
}

// entryRow is one timesheet entry joined with its rate and job references.
// Rate and job columns are pointers so broken references surface as NULLs
// instead of silently dropped rows.
type entryRow struct {
	LaborerID          snowflake.ID
	JobID              snowflake.ID
	RegularHours       float64
	OvertimeHours      float64
	OvertimeMultiplier float64
	PayRate            *float64
	ChargeRate         *float64
	JobName            *string
	Grouping           *string
}

type jobAccumulator struct {
	jobName       string
	grouping      string
	regularHours  float64
	overtimeHours float64
	cost          float64
	charge        float64
	laborers      map[snowflake.ID]struct{}
}

func (a *aggregator) Aggregate(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, year int, month time.Month) ([]billingdomain.BillableLine, error) {
	start := time.Now()
	defer a.metrics.ObserveAggregation(start)

	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)

	var rows []entryRow
	err := tx.WithContext(ctx).Raw(
		`SELECT t.laborer_id, t.job_id, t.regular_hours, t.overtime_hours, t.overtime_multiplier,
		        l.pay_rate, l.charge_rate, j.name AS job_name, j.grouping
		 FROM timesheet_entries t
		 LEFT JOIN laborers l ON l.id = t.laborer_id AND l.tenant_id = t.tenant_id
		 LEFT JOIN jobs j ON j.id = t.job_id AND j.tenant_id = t.tenant_id
		 WHERE t.tenant_id = ? AND t.work_date >= ? AND t.work_date <= ?`,
		tenantID,
		firstOfMonth,
		lastOfMonth,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	groups := make(map[snowflake.ID]*jobAccumulator)
	for _, row := range rows {
		if row.PayRate == nil || row.ChargeRate == nil {
			fault := &billingdomain.IntegrityError{Kind: "laborer", LaborerID: row.LaborerID, JobID: row.JobID}
			a.log.Error("aggregation aborted",
				zap.String("tenant_id", tenantID.String()),
				zap.String("laborer_id", row.LaborerID.String()),
				zap.String("job_id", row.JobID.String()),
				zap.Error(fault),
			)
			return nil, fault
		}
		if row.JobName == nil {
			fault := &billingdomain.IntegrityError{Kind: "job", LaborerID: row.LaborerID, JobID: row.JobID}
			a.log.Error("aggregation aborted",
				zap.String("tenant_id", tenantID.String()),
				zap.String("laborer_id", row.LaborerID.String()),
				zap.String("job_id", row.JobID.String()),
				zap.Error(fault),
			)
			return nil, fault
		}

		group, ok := groups[row.JobID]
		if !ok {
			group = &jobAccumulator{
				jobName:  *row.JobName,
				laborers: make(map[snowflake.ID]struct{}),
			}
			if row.Grouping != nil {
				group.grouping = *row.Grouping
			}
			groups[row.JobID] = group
		}

		// Accumulate at laborer-day granularity; rounding happens once per
		// job group below so per-day rounding drift cannot build up.
		payRate := *row.PayRate
		chargeRate := *row.ChargeRate
		group.regularHours += row.RegularHours
		group.overtimeHours += row.OvertimeHours
		group.cost += row.RegularHours*payRate + row.OvertimeHours*payRate*row.OvertimeMultiplier
		group.charge += row.RegularHours*chargeRate + row.OvertimeHours*chargeRate*row.OvertimeMultiplier
		group.laborers[row.LaborerID] = struct{}{}
	}

	lines := make([]billingdomain.BillableLine, 0, len(groups))
	for jobID, group := range groups {
		lines = append(lines, billingdomain.BillableLine{
			JobID:              jobID,
			JobName:            group.jobName,
			Grouping:           group.grouping,
			TotalRegularHours:  group.regularHours,
			TotalOvertimeHours: group.overtimeHours,
			CostAmount:         tax.Round2(group.cost),
			ChargeAmount:       tax.Round2(group.charge),
			LaborerCount:       len(group.laborers),
		})
	}

	// Deterministic invoice layout.
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].JobName == lines[j].JobName {
			return lines[i].JobID < lines[j].JobID
		}
		return lines[i].JobName < lines[j].JobName
	})

	return lines, nil
}
