package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	auditdomain "github.com/ajyalhq/ajyal/internal/audit/domain"
	billingdomain "github.com/ajyalhq/ajyal/internal/billing/domain"
	"github.com/ajyalhq/ajyal/internal/clock"
	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	"github.com/ajyalhq/ajyal/internal/invoice/format"
	"github.com/ajyalhq/ajyal/internal/observability/metrics"
	"github.com/ajyalhq/ajyal/internal/ratelimit"
	sequencedomain "github.com/ajyalhq/ajyal/internal/sequence/domain"
	"github.com/ajyalhq/ajyal/internal/tax"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/ajyalhq/ajyal/internal/zatca"
	"github.com/ajyalhq/ajyal/pkg/db"
	"github.com/ajyalhq/ajyal/pkg/db/option"
	"github.com/ajyalhq/ajyal/pkg/db/pagination"
	"github.com/ajyalhq/ajyal/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const generateLockTTL = 30 * time.Second

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	TenantSvc  tenantdomain.Service
	Aggregator billingdomain.Aggregator
	Sequencer  sequencedomain.Sequencer
	Audit      auditdomain.Recorder
	Locker     *ratelimit.Locker       `optional:"true"`
	Metrics    *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	tenantSvc  tenantdomain.Service
	aggregator billingdomain.Aggregator
	sequencer  sequencedomain.Sequencer
	audit      auditdomain.Recorder
	locker     *ratelimit.Locker
	metrics    *metrics.BillingMetrics

	invoicerepo repository.Repository[invoicedomain.Invoice]
	itemrepo    repository.Repository[invoicedomain.InvoiceItem]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		tenantSvc:   p.TenantSvc,
		aggregator:  p.Aggregator,
		sequencer:   p.Sequencer,
		audit:       p.Audit,
		locker:      p.Locker,
		metrics:     p.Metrics,
		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
		itemrepo:    repository.ProvideStore[invoicedomain.InvoiceItem](p.DB),
	}
}

// GenerateMonthly turns one tenant's timesheet month into a DRAFT invoice.
// The call is idempotent per (tenant, year, month): the first call creates,
// every later call reports the surviving invoice via AlreadyExistsError,
// and a cancelled invoice frees the period for regeneration.
func (s *Service) GenerateMonthly(ctx context.Context, req invoicedomain.GenerateMonthlyRequest) (invoicedomain.Invoice, error) {
	start := time.Now()

	if req.Month < 1 || req.Month > 12 || req.Year < 2000 || req.Year > 2200 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPeriod
	}
	if strings.TrimSpace(req.Customer.Name) == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrMissingCustomer
	}

	tenant, err := s.tenantSvc.Current(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	// The advisory lock keeps racing callers from burning sequence numbers
	// on transactions doomed to collide; the partial unique index on the
	// source period is the real guarantee.
	lockKey := fmt.Sprintf("invoice:generate:%s:%04d-%02d", tenant.ID, req.Year, req.Month)
	token, acquired, err := s.locker.TryLock(ctx, lockKey, generateLockTTL)
	if err != nil {
		s.log.Warn("lock acquisition failed, relying on database constraints", zap.Error(err))
	}
	if acquired {
		defer func() {
			if releaseErr := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); releaseErr != nil {
				s.log.Warn("lock release failed", zap.String("key", lockKey), zap.Error(releaseErr))
			}
		}()
	}

	if existing, err := s.findActiveForPeriod(ctx, s.db, tenant.ID, req.Year, req.Month); err != nil {
		return invoicedomain.Invoice{}, err
	} else if existing != nil {
		s.metrics.ObserveGeneration("duplicate", start)
		return invoicedomain.Invoice{}, &invoicedomain.AlreadyExistsError{InvoiceID: existing.ID}
	}

	var invoice invoicedomain.Invoice
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findActiveForPeriod(ctx, tx, tenant.ID, req.Year, req.Month)
		if err != nil {
			return err
		}
		if existing != nil {
			return &invoicedomain.AlreadyExistsError{InvoiceID: existing.ID}
		}

		lines, err := s.aggregator.Aggregate(ctx, tx, tenant.ID, req.Year, time.Month(req.Month))
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return invoicedomain.ErrEmptyPeriod
		}

		issue := s.clock.Now().UTC()
		due := issue.AddDate(0, 0, tenant.PaymentTermDays)

		seq, err := s.sequencer.NextNumber(ctx, tx, tenant.ID, issue.Year(), int(issue.Month()))
		if err != nil {
			return err
		}

		sourceYear, sourceMonth := req.Year, req.Month
		invoice = invoicedomain.Invoice{
			ID:                s.genID.Generate(),
			TenantID:          tenant.ID,
			InvoiceNumber:     seq,
			NumberYear:        issue.Year(),
			NumberMonth:       int(issue.Month()),
			Number:            format.InvoiceNumber(tenant.NumberTemplate, issue, seq),
			SourceYear:        &sourceYear,
			SourceMonth:       &sourceMonth,
			CustomerName:      req.Customer.Name,
			CustomerVATNumber: req.Customer.VATNumber,
			CustomerAddress:   req.Customer.Address,
			Status:            invoicedomain.InvoiceStatusDraft,
			IssueDate:         issue,
			DueDate:           due,
		}

		items := make([]invoicedomain.InvoiceItem, 0, len(lines))
		taxLines := make([]tax.Line, 0, len(lines))
		for _, line := range lines {
			item := s.itemFromBillableLine(tenant, invoice, line)
			items = append(items, item)
			taxLines = append(taxLines, tax.Line{LineTotal: item.LineTotal, VatAmount: item.VatAmount})
		}

		invoice.Subtotal, invoice.VatAmount, invoice.TotalAmount = tax.ComputeInvoiceTotals(taxLines)

		qr, err := zatca.Encode(tenant.SellerName, tenant.VATNumber, issue, invoice.TotalAmount, invoice.VatAmount)
		if err != nil {
			return err
		}
		invoice.QRPayload = qr

		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		invoice.Items = items
		return nil
	})
	if txErr != nil {
		if db.IsDuplicateKeyErr(txErr) {
			// Lost the race on the period index; report the winner.
			if existing, findErr := s.findActiveForPeriod(ctx, s.db, tenant.ID, req.Year, req.Month); findErr == nil && existing != nil {
				s.metrics.ObserveGeneration("duplicate", start)
				return invoicedomain.Invoice{}, &invoicedomain.AlreadyExistsError{InvoiceID: existing.ID}
			}
		}
		s.metrics.ObserveGeneration(generationOutcome(txErr), start)
		return invoicedomain.Invoice{}, txErr
	}

	s.metrics.ObserveGeneration("created", start)
	s.audit.Record(ctx, auditdomain.Entry{
		TenantID:     tenant.ID,
		Action:       "invoice.generate_monthly",
		ResourceType: "invoice",
		ResourceID:   invoice.ID,
		Metadata: map[string]interface{}{
			"number":       invoice.Number,
			"source_year":  req.Year,
			"source_month": req.Month,
			"total_amount": invoice.TotalAmount,
		},
	})
	s.log.Info("monthly invoice generated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.Int("source_year", req.Year),
		zap.Int("source_month", req.Month),
	)

	invoice.DerivedStatus = invoice.Status
	return invoice, nil
}

// CreateManual issues an ad-hoc invoice outside the timesheet flow. Manual
// invoices carry no source period and never block monthly generation.
func (s *Service) CreateManual(ctx context.Context, req invoicedomain.CreateManualRequest) (invoicedomain.Invoice, error) {
	if strings.TrimSpace(req.Customer.Name) == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrMissingCustomer
	}
	if len(req.Items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrMissingItems
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Description) == "" || item.Quantity <= 0 || item.UnitPrice < 0 {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidItem
		}
	}

	tenant, err := s.tenantSvc.Current(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var invoice invoicedomain.Invoice
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issue := s.clock.Now().UTC()
		due := issue.AddDate(0, 0, tenant.PaymentTermDays)

		seq, err := s.sequencer.NextNumber(ctx, tx, tenant.ID, issue.Year(), int(issue.Month()))
		if err != nil {
			return err
		}

		invoice = invoicedomain.Invoice{
			ID:                s.genID.Generate(),
			TenantID:          tenant.ID,
			InvoiceNumber:     seq,
			NumberYear:        issue.Year(),
			NumberMonth:       int(issue.Month()),
			Number:            format.InvoiceNumber(tenant.NumberTemplate, issue, seq),
			CustomerName:      req.Customer.Name,
			CustomerVATNumber: req.Customer.VATNumber,
			CustomerAddress:   req.Customer.Address,
			Status:            invoicedomain.InvoiceStatusDraft,
			IssueDate:         issue,
			DueDate:           due,
		}

		items := make([]invoicedomain.InvoiceItem, 0, len(req.Items))
		taxLines := make([]tax.Line, 0, len(req.Items))
		for _, in := range req.Items {
			lineTotal := tax.Round2(in.Quantity * in.UnitPrice)
			vat := tax.ComputeLineVat(lineTotal, tenant.VatRatePercent)
			item := invoicedomain.InvoiceItem{
				ID:             s.genID.Generate(),
				TenantID:       tenant.ID,
				InvoiceID:      invoice.ID,
				Description:    in.Description,
				Quantity:       in.Quantity,
				UnitPrice:      in.UnitPrice,
				LineTotal:      lineTotal,
				VatRatePercent: tenant.VatRatePercent,
				VatAmount:      vat,
				TotalAmount:    tax.Round2(lineTotal + vat),
			}
			items = append(items, item)
			taxLines = append(taxLines, tax.Line{LineTotal: lineTotal, VatAmount: vat})
		}

		invoice.Subtotal, invoice.VatAmount, invoice.TotalAmount = tax.ComputeInvoiceTotals(taxLines)

		qr, err := zatca.Encode(tenant.SellerName, tenant.VATNumber, issue, invoice.TotalAmount, invoice.VatAmount)
		if err != nil {
			return err
		}
		invoice.QRPayload = qr

		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		invoice.Items = items
		return nil
	})
	if txErr != nil {
		return invoicedomain.Invoice{}, txErr
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TenantID:     tenant.ID,
		Action:       "invoice.create_manual",
		ResourceType: "invoice",
		ResourceID:   invoice.ID,
		Metadata: map[string]interface{}{
			"number":       invoice.Number,
			"total_amount": invoice.TotalAmount,
		},
	})

	invoice.DerivedStatus = invoice.Status
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	tenant, err := s.tenantSvc.Current(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	item, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: id, TenantID: tenant.ID})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}

	invoice := *item
	items, err := s.itemrepo.Find(ctx, &invoicedomain.InvoiceItem{InvoiceID: invoice.ID, TenantID: tenant.ID})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice.Items = make([]invoicedomain.InvoiceItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			invoice.Items = append(invoice.Items, *it)
		}
	}

	invoice.DerivedStatus = invoicedomain.EffectiveStatus(invoice.Status, invoice.DueDate, s.clock.Now())
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	tenant, err := s.tenantSvc.Current(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	filter := &invoicedomain.Invoice{TenantID: tenant.ID}
	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"issue_date": true}, Field: "issue_date", Desc: true}),
	}

	now := s.clock.Now()
	if req.Status != nil {
		// OVERDUE is derived, so the filter translates to its storage form.
		if *req.Status == invoicedomain.InvoiceStatusOverdue {
			filter.Status = invoicedomain.InvoiceStatusSent
			options = append(options, option.ApplyOperator(option.Condition{
				Field:    "due_date",
				Operator: option.LT,
				Value:    truncateToDay(now),
			}))
		} else {
			filter.Status = *req.Status
		}
	}
	if req.SourceYear != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field: "source_year", Operator: option.EQ, Value: *req.SourceYear,
		}))
	}
	if req.SourceMonth != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field: "source_month", Operator: option.EQ, Value: *req.SourceMonth,
		}))
	}
	if req.IssuedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field: "issue_date", Operator: option.GTE, Value: *req.IssuedFrom,
		}))
	}
	if req.IssuedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field: "issue_date", Operator: option.LTE, Value: *req.IssuedTo,
		}))
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}
	options = append(options, option.WithLimit(limit+1))

	rows, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo, rows := pagination.BuildCursorPageInfo(rows, limit, func(inv *invoicedomain.Invoice) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: inv.ID.String()})
		return token
	})

	invoices := make([]invoicedomain.Invoice, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		invoice := *row
		invoice.DerivedStatus = invoicedomain.EffectiveStatus(invoice.Status, invoice.DueDate, now)
		invoices = append(invoices, invoice)
	}
	return invoicedomain.ListInvoiceResponse{PageInfo: *pageInfo, Invoices: invoices}, nil
}

// Transition moves an invoice along the lifecycle table. The status
// predicate in the UPDATE makes the edge atomic: two racing transitions
// cannot both observe the same starting state.
func (s *Service) Transition(ctx context.Context, id snowflake.ID, req invoicedomain.TransitionRequest) (invoicedomain.Invoice, error) {
	tenant, err := s.tenantSvc.Current(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if !invoicedomain.CanTransition(current.Status, req.Status) {
		s.denyTransition(current.Status, req.Status)
		return invoicedomain.Invoice{}, &invoicedomain.TransitionError{From: current.Status, To: req.Status}
	}

	updates := map[string]interface{}{
		"status":     req.Status,
		"updated_at": s.clock.Now().UTC(),
	}
	if req.Status == invoicedomain.InvoiceStatusPaid {
		if req.PaymentMethod == nil || strings.TrimSpace(*req.PaymentMethod) == "" {
			return invoicedomain.Invoice{}, invoicedomain.ErrMissingPaymentMethod
		}
		paidDate := s.clock.Now().UTC()
		if req.PaidDate != nil {
			paidDate = req.PaidDate.UTC()
		}
		updates["paid_date"] = paidDate
		updates["payment_method"] = *req.PaymentMethod
	}

	res := s.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenant.ID, current.Status).
		Updates(updates)
	if res.Error != nil {
		return invoicedomain.Invoice{}, res.Error
	}
	if res.RowsAffected == 0 {
		// Someone moved the invoice first; report the edge from its state now.
		fresh, freshErr := s.GetByID(ctx, id)
		if freshErr != nil {
			return invoicedomain.Invoice{}, freshErr
		}
		s.denyTransition(fresh.Status, req.Status)
		return invoicedomain.Invoice{}, &invoicedomain.TransitionError{From: fresh.Status, To: req.Status}
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TenantID:     tenant.ID,
		Action:       "invoice.transition",
		ResourceType: "invoice",
		ResourceID:   id,
		Metadata: map[string]interface{}{
			"from": string(current.Status),
			"to":   string(req.Status),
		},
	})

	return s.GetByID(ctx, id)
}

// Delete removes a DRAFT invoice and its items. Anything past DRAFT has
// been seen outside the system and must be cancelled instead.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	tenant, err := s.tenantSvc.Current(ctx)
	if err != nil {
		return err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != invoicedomain.InvoiceStatusDraft {
		return invoicedomain.ErrInvalidState
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND tenant_id = ? AND status = ?",
			id, tenant.ID, invoicedomain.InvoiceStatusDraft).
			Delete(&invoicedomain.Invoice{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicedomain.ErrInvalidState
		}
		return tx.Where("invoice_id = ? AND tenant_id = ?", id, tenant.ID).
			Delete(&invoicedomain.InvoiceItem{}).Error
	})
	if txErr != nil {
		return txErr
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TenantID:     tenant.ID,
		Action:       "invoice.delete",
		ResourceType: "invoice",
		ResourceID:   id,
		Metadata:     map[string]interface{}{"number": current.Number},
	})
	return nil
}

func (s *Service) itemFromBillableLine(tenant tenantdomain.Tenant, invoice invoicedomain.Invoice, line billingdomain.BillableLine) invoicedomain.InvoiceItem {
	quantity := line.TotalRegularHours + line.TotalOvertimeHours
	lineTotal := line.ChargeAmount

	// Unit price is presentational; the charge amount computed from rates
	// is authoritative and quantity*unit_price may differ by a cent.
	var unitPrice float64
	if quantity > 0 {
		unitPrice = tax.Round2(lineTotal / quantity)
	}

	description := line.JobName
	if line.Grouping != "" {
		description = fmt.Sprintf("%s (%s)", line.JobName, line.Grouping)
	}

	vat := tax.ComputeLineVat(lineTotal, tenant.VatRatePercent)
	jobID := line.JobID
	return invoicedomain.InvoiceItem{
		ID:             s.genID.Generate(),
		TenantID:       tenant.ID,
		InvoiceID:      invoice.ID,
		JobID:          &jobID,
		Description:    description,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		LineTotal:      lineTotal,
		VatRatePercent: tenant.VatRatePercent,
		VatAmount:      vat,
		TotalAmount:    tax.Round2(lineTotal + vat),
	}
}

// findActiveForPeriod returns the non-cancelled invoice already holding a
// source period, if any.
func (s *Service) findActiveForPeriod(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, year, month int) (*invoicedomain.Invoice, error) {
	var rows []invoicedomain.Invoice
	err := tx.WithContext(ctx).
		Where("tenant_id = ? AND source_year = ? AND source_month = ? AND status <> ?",
			tenantID, year, month, invoicedomain.InvoiceStatusCancelled).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Service) denyTransition(from, to invoicedomain.InvoiceStatus) {
	if s.metrics != nil {
		s.metrics.LifecycleDenied.Inc()
	}
	s.log.Warn("lifecycle transition denied",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

func generationOutcome(err error) string {
	if errors.Is(err, invoicedomain.ErrEmptyPeriod) {
		return "empty_period"
	}
	return "error"
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
