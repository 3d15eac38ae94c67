package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	auditdomain "github.com/ajyalhq/ajyal/internal/audit/domain"
	auditservice "github.com/ajyalhq/ajyal/internal/audit/service"
	billingservice "github.com/ajyalhq/ajyal/internal/billing/service"
	"github.com/ajyalhq/ajyal/internal/clock"
	"github.com/ajyalhq/ajyal/internal/config"
	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	sequencedomain "github.com/ajyalhq/ajyal/internal/sequence/domain"
	sequenceservice "github.com/ajyalhq/ajyal/internal/sequence/service"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	tenantservice "github.com/ajyalhq/ajyal/internal/tenant/service"
	timesheetdomain "github.com/ajyalhq/ajyal/internal/timesheet/domain"
	"github.com/ajyalhq/ajyal/pkg/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	svc    invoicedomain.Service
	tenant tenantdomain.Tenant
	ctx    context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{},
		&jobdomain.Job{},
		&labordomain.Laborer{},
		&timesheetdomain.Entry{},
		&sequencedomain.InvoiceSequence{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&auditdomain.AuditLog{},
	))
	// AutoMigrate cannot express the partial uniqueness that lets a
	// cancelled invoice free its period.
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_invoices_active_source_period
		 ON invoices (tenant_id, source_year, source_month)
		 WHERE status <> 'CANCELLED' AND source_year IS NOT NULL`,
	).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))

	holder, err := config.NewBillingConfigHolder()
	require.NoError(t, err)
	tenantSvc := tenantservice.NewService(tenantservice.ServiceParam{
		DB: db, Log: log, GenID: node, BillingConfig: holder,
	})

	svc := NewService(ServiceParam{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      fake,
		TenantSvc:  tenantSvc,
		Aggregator: billingservice.NewAggregator(billingservice.AggregatorParam{Log: log}),
		Sequencer:  sequenceservice.NewService(sequenceservice.ServiceParam{Log: log, GenID: node}),
		Audit:      auditservice.NewService(auditservice.ServiceParam{DB: db, Log: log, GenID: node}),
	})

	tenant := tenantdomain.Tenant{
		ID:              node.Generate(),
		Name:            "Ajyal Contracting",
		SellerName:      "Ajyal Contracting LLC",
		VATNumber:       "310122393500003",
		VatRatePercent:  15,
		PaymentTermDays: 30,
		NumberTemplate:  "INV-{YYYY}{MM}-{SEQ4}",
	}
	require.NoError(t, db.Create(&tenant).Error)

	return &harness{
		db:     db,
		node:   node,
		clock:  fake,
		svc:    svc,
		tenant: tenant,
		ctx:    tenantctx.WithTenantID(context.Background(), tenant.ID),
	}
}

func (h *harness) seedMarchTimesheets(t *testing.T) {
	t.Helper()

	job := jobdomain.Job{
		ID: h.node.Generate(), TenantID: h.tenant.ID,
		Name: "Site Alpha", Grouping: "civil-works", Slug: "site-alpha",
	}
	require.NoError(t, h.db.Create(&job).Error)

	laborerA := labordomain.Laborer{
		ID: h.node.Generate(), TenantID: h.tenant.ID, Name: "A",
		GovernmentID: h.node.Generate().String(), PayRate: 20, ChargeRate: 35, JobID: job.ID,
	}
	laborerB := labordomain.Laborer{
		ID: h.node.Generate(), TenantID: h.tenant.ID, Name: "B",
		GovernmentID: h.node.Generate().String(), PayRate: 15, ChargeRate: 25, JobID: job.ID,
	}
	require.NoError(t, h.db.Create(&laborerA).Error)
	require.NoError(t, h.db.Create(&laborerB).Error)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, laborer := range []labordomain.Laborer{laborerA, laborerB} {
		entry := timesheetdomain.Entry{
			ID: h.node.Generate(), TenantID: h.tenant.ID,
			LaborerID: laborer.ID, JobID: job.ID, WorkDate: day,
			RegularHours: 8, OvertimeHours: 2, OvertimeMultiplier: 1.5,
		}
		require.NoError(t, h.db.Create(&entry).Error)
	}
}

func marchRequest() invoicedomain.GenerateMonthlyRequest {
	return invoicedomain.GenerateMonthlyRequest{
		Year:  2026,
		Month: 3,
		Customer: invoicedomain.Customer{
			Name:      "Acme Industrial",
			VATNumber: "300000000000003",
			Address:   "Riyadh",
		},
	}
}

func TestGenerateMonthly_BuildsDraftInvoice(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, int64(1), invoice.InvoiceNumber)
	assert.Equal(t, "INV-202604-0001", invoice.Number)
	assert.Equal(t, time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC), invoice.IssueDate)
	assert.Equal(t, time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), invoice.DueDate)

	// charge 385.00 + 275.00 = 660.00, VAT 15% per line
	assert.Equal(t, 660.00, invoice.Subtotal)
	assert.Equal(t, 99.00, invoice.VatAmount)
	assert.Equal(t, 759.00, invoice.TotalAmount)

	require.Len(t, invoice.Items, 1)
	item := invoice.Items[0]
	assert.Equal(t, "Site Alpha (civil-works)", item.Description)
	assert.Equal(t, 20.0, item.Quantity)
	assert.Equal(t, 660.00, item.LineTotal)
	assert.Equal(t, 15.0, item.VatRatePercent)

	// The stored QR payload is valid TLV carrying the seller identity.
	raw, err := base64.StdEncoding.DecodeString(invoice.QRPayload)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, h.tenant.SellerName, string(raw[2:2+int(raw[1])]))
}

func TestGenerateMonthly_SecondCallReportsExisting(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	first, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)

	_, err = h.svc.GenerateMonthly(h.ctx, marchRequest())
	var exists *invoicedomain.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, first.ID, exists.InvoiceID)

	var count int64
	require.NoError(t, h.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateMonthly_EmptyPeriodPersistsNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.ErrorIs(t, err, invoicedomain.ErrEmptyPeriod)

	var count int64
	require.NoError(t, h.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// No sequence number was burned on the failed attempt.
	h.seedMarchTimesheets(t)
	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), invoice.InvoiceNumber)
}

func TestGenerateMonthly_CancelledInvoiceFreesPeriod(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	first, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)

	_, err = h.svc.Transition(h.ctx, first.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusCancelled,
	})
	require.NoError(t, err)

	second, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int64(2), second.InvoiceNumber)
}

func TestGenerateMonthly_ValidatesRequest(t *testing.T) {
	h := newHarness(t)

	bad := marchRequest()
	bad.Month = 13
	_, err := h.svc.GenerateMonthly(h.ctx, bad)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPeriod)

	bad = marchRequest()
	bad.Customer.Name = "  "
	_, err = h.svc.GenerateMonthly(h.ctx, bad)
	assert.ErrorIs(t, err, invoicedomain.ErrMissingCustomer)
}

func TestCreateManual_DoesNotBlockMonthlyGeneration(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	manual, err := h.svc.CreateManual(h.ctx, invoicedomain.CreateManualRequest{
		Customer: invoicedomain.Customer{Name: "Walk-in Client"},
		Items: []invoicedomain.ManualItem{
			{Description: "Equipment rental", Quantity: 3, UnitPrice: 100},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, manual.SourceYear)
	assert.Equal(t, 300.00, manual.Subtotal)
	assert.Equal(t, 45.00, manual.VatAmount)
	assert.Equal(t, 345.00, manual.TotalAmount)
	assert.Equal(t, int64(1), manual.InvoiceNumber)

	monthly, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(2), monthly.InvoiceNumber)
}

func TestCreateManual_ValidatesItems(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CreateManual(h.ctx, invoicedomain.CreateManualRequest{
		Customer: invoicedomain.Customer{Name: "Client"},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrMissingItems)

	_, err = h.svc.CreateManual(h.ctx, invoicedomain.CreateManualRequest{
		Customer: invoicedomain.Customer{Name: "Client"},
		Items:    []invoicedomain.ManualItem{{Description: "x", Quantity: 0, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidItem)
}

func TestTransition_HappyPathToPaid(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)

	sent, err := h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusSent,
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, sent.Status)

	method := "bank_transfer"
	paid, err := h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status:        invoicedomain.InvoiceStatusPaid,
		PaymentMethod: &method,
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.WithinDuration(t, h.clock.Now(), *paid.PaidDate, time.Second)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, method, *paid.PaymentMethod)
}

func TestTransition_PaidRequiresPaymentMethod(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)
	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusSent,
	})
	require.NoError(t, err)

	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusPaid,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrMissingPaymentMethod)
}

func TestTransition_IllegalEdgesRejected(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)

	// DRAFT cannot jump straight to PAID.
	method := "cash"
	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status:        invoicedomain.InvoiceStatusPaid,
		PaymentMethod: &method,
	})
	var denied *invoicedomain.TransitionError
	require.ErrorAs(t, err, &denied)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	// Terminal states stay terminal.
	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusCancelled,
	})
	require.NoError(t, err)
	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusSent,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)
}

func TestDelete_OnlyDraftInvoices(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)

	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusSent,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, h.svc.Delete(h.ctx, invoice.ID), invoicedomain.ErrInvalidState)
}

func TestDelete_RemovesInvoiceAndItems(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)
	require.NoError(t, h.svc.Delete(h.ctx, invoice.ID))

	_, err = h.svc.GetByID(h.ctx, invoice.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	var items int64
	require.NoError(t, h.db.Model(&invoicedomain.InvoiceItem{}).
		Where("invoice_id = ?", invoice.ID).Count(&items).Error)
	assert.Equal(t, int64(0), items)
}

func TestGetByID_DerivesOverdue(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)
	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusSent,
	})
	require.NoError(t, err)

	h.clock.Advance(45 * 24 * time.Hour)

	got, err := h.svc.GetByID(h.ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, got.Status)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, got.DerivedStatus)
}

func TestGetByID_OtherTenantCannotSee(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)

	other := tenantdomain.Tenant{
		ID: h.node.Generate(), Name: "Other", SellerName: "Other",
		VatRatePercent: 15, PaymentTermDays: 30, NumberTemplate: "INV-{SEQ}",
	}
	require.NoError(t, h.db.Create(&other).Error)

	otherCtx := tenantctx.WithTenantID(context.Background(), other.ID)
	_, err = h.svc.GetByID(otherCtx, invoice.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestList_FiltersByDerivedOverdue(t *testing.T) {
	h := newHarness(t)
	h.seedMarchTimesheets(t)

	invoice, err := h.svc.GenerateMonthly(h.ctx, marchRequest())
	require.NoError(t, err)
	_, err = h.svc.Transition(h.ctx, invoice.ID, invoicedomain.TransitionRequest{
		Status: invoicedomain.InvoiceStatusSent,
	})
	require.NoError(t, err)

	overdue := invoicedomain.InvoiceStatusOverdue
	resp, err := h.svc.List(h.ctx, invoicedomain.ListInvoiceRequest{Status: &overdue})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)

	h.clock.Advance(45 * 24 * time.Hour)

	resp, err = h.svc.List(h.ctx, invoicedomain.ListInvoiceRequest{Status: &overdue})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, resp.Invoices[0].DerivedStatus)
}
