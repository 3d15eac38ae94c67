// Package pdf renders invoice documents.
package pdf

import (
	"context"
	"io"

	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"go.uber.org/fx"
)

type Provider interface {
	GenerateInvoice(ctx context.Context, tenant tenantdomain.Tenant, invoice invoicedomain.Invoice) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
