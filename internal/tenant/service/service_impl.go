package service

import (
	"context"
	"strings"

	"github.com/ajyalhq/ajyal/internal/config"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/ajyalhq/ajyal/pkg/repository"
	"github.com/ajyalhq/ajyal/pkg/tenantctx"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	BillingConfig *config.BillingConfigHolder
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	tenantrepo repository.Repository[tenantdomain.Tenant]
	billingCfg *config.BillingConfigHolder
}

func NewService(p ServiceParam) tenantdomain.Service {
	return &Service{
		log:        p.Log.Named("tenant.service"),
		genID:      p.GenID,
		tenantrepo: repository.ProvideStore[tenantdomain.Tenant](p.DB),
		billingCfg: p.BillingConfig,
	}
}

func (s *Service) Create(ctx context.Context, req tenantdomain.CreateTenantRequest) (tenantdomain.Tenant, error) {
	defaults := s.billingCfg.Get()

	tenant := tenantdomain.Tenant{
		ID:              s.genID.Generate(),
		Name:            strings.TrimSpace(req.Name),
		SellerName:      strings.TrimSpace(req.SellerName),
		VATNumber:       strings.TrimSpace(req.VATNumber),
		BankDetails:     strings.TrimSpace(req.BankDetails),
		VatRatePercent:  defaults.DefaultVatRatePercent,
		PaymentTermDays: defaults.PaymentTermDays,
		NumberTemplate:  defaults.NumberTemplate,
	}
	if tenant.SellerName == "" {
		tenant.SellerName = tenant.Name
	}
	if req.VatRatePercent != nil {
		tenant.VatRatePercent = *req.VatRatePercent
	}
	if req.PaymentTermDays != nil {
		tenant.PaymentTermDays = *req.PaymentTermDays
	}
	if err := tenant.Validate(); err != nil {
		return tenantdomain.Tenant{}, err
	}

	if err := s.tenantrepo.Create(ctx, &tenant); err != nil {
		return tenantdomain.Tenant{}, err
	}
	s.log.Info("tenant created", zap.String("tenant_id", tenant.ID.String()))
	return tenant, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (tenantdomain.Tenant, error) {
	item, err := s.tenantrepo.FindOne(ctx, &tenantdomain.Tenant{ID: id})
	if err != nil {
		return tenantdomain.Tenant{}, err
	}
	if item == nil {
		return tenantdomain.Tenant{}, tenantdomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Current(ctx context.Context) (tenantdomain.Tenant, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok || tenantID == 0 {
		return tenantdomain.Tenant{}, tenantdomain.ErrInvalidTenant
	}
	return s.GetByID(ctx, tenantID)
}

func (s *Service) UpdateBillingSettings(ctx context.Context, req tenantdomain.UpdateBillingSettingsRequest) (tenantdomain.Tenant, error) {
	tenant, err := s.Current(ctx)
	if err != nil {
		return tenantdomain.Tenant{}, err
	}

	if req.SellerName != nil {
		tenant.SellerName = strings.TrimSpace(*req.SellerName)
	}
	if req.VATNumber != nil {
		tenant.VATNumber = strings.TrimSpace(*req.VATNumber)
	}
	if req.BankDetails != nil {
		tenant.BankDetails = strings.TrimSpace(*req.BankDetails)
	}
	if req.VatRatePercent != nil {
		tenant.VatRatePercent = *req.VatRatePercent
	}
	if req.PaymentTermDays != nil {
		tenant.PaymentTermDays = *req.PaymentTermDays
	}
	if req.NumberTemplate != nil && strings.TrimSpace(*req.NumberTemplate) != "" {
		tenant.NumberTemplate = strings.TrimSpace(*req.NumberTemplate)
	}
	if err := tenant.Validate(); err != nil {
		return tenantdomain.Tenant{}, err
	}

	if err := s.tenantrepo.Update(ctx, tenant.ID.String(), map[string]any{
		"seller_name":       tenant.SellerName,
		"vat_number":        tenant.VATNumber,
		"bank_details":      tenant.BankDetails,
		"vat_rate_percent":  tenant.VatRatePercent,
		"payment_term_days": tenant.PaymentTermDays,
		"number_template":   tenant.NumberTemplate,
	}); err != nil {
		return tenantdomain.Tenant{}, err
	}
	return tenant, nil
}
