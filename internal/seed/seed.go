// Package seed bootstraps the default tenant for single-tenant deployments.
package seed

import (
	"context"
	"errors"

	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const defaultTenantName = "Main"

// EnsureDefaultTenant creates the tenant with the given id if it does not
// exist yet. Billing settings start from column defaults and are edited
// through the API afterwards.
func EnsureDefaultTenant(db *gorm.DB, id int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if id == 0 {
		return nil
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&tenantdomain.Tenant{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		return tx.Create(&tenantdomain.Tenant{
			ID:              snowflake.ParseInt64(id),
			Name:            defaultTenantName,
			SellerName:      defaultTenantName,
			VatRatePercent:  15,
			PaymentTermDays: 30,
			NumberTemplate:  "INV-{YYYY}{MM}-{SEQ4}",
		}).Error
	})
}
