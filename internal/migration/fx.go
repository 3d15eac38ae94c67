package migration

import (
	auditdomain "github.com/ajyalhq/ajyal/internal/audit/domain"
	"github.com/ajyalhq/ajyal/internal/config"
	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	"github.com/ajyalhq/ajyal/internal/seed"
	sequencedomain "github.com/ajyalhq/ajyal/internal/sequence/domain"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	timesheetdomain "github.com/ajyalhq/ajyal/internal/timesheet/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres targets (sqlite for local runs) build the schema
			// from the models plus the partial index AutoMigrate cannot
			// express.
			if err := conn.AutoMigrate(
				&tenantdomain.Tenant{},
				&jobdomain.Job{},
				&labordomain.Laborer{},
				&timesheetdomain.Entry{},
				&sequencedomain.InvoiceSequence{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
			if err := conn.Exec(
				`CREATE UNIQUE INDEX IF NOT EXISTS ux_invoices_active_source_period
				 ON invoices (tenant_id, source_year, source_month)
				 WHERE status <> 'CANCELLED' AND source_year IS NOT NULL`,
			).Error; err != nil {
				return err
			}
		}

		return seed.EnsureDefaultTenant(conn, cfg.DefaultTenantID)
	}),
)
