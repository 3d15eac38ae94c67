package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

// GenerateInvoice renders the tax invoice document. The QR column embeds
// the stored compliance payload verbatim; it is never recomputed at render
// time so the document always matches what was persisted at issue.
func (p *PDFProvider) GenerateInvoice(ctx context.Context, tenant tenantdomain.Tenant, invoice invoicedomain.Invoice) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(8, "Tax Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		code.NewQrCol(4, invoice.QRPayload, props.Rect{
			Center:  false,
			Percent: 90,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.Number, props.Text{Top: 0}),
			text.New("Date of issue: "+invoice.IssueDate.Format("2006-01-02"), props.Text{Top: 4}),
			text.New("Date due: "+invoice.DueDate.Format("2006-01-02"), props.Text{Top: 8}),
			text.New("Status: "+string(invoice.DerivedStatus), props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New(servicePeriod(invoice), props.Text{Top: 0}),
		),
	)

	m.AddRow(35,
		col.New(6).Add(
			text.New(tenant.SellerName, props.Text{Style: fontstyle.Bold}),
			text.New("VAT: "+tenant.VATNumber, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.CustomerName, props.Text{Top: 5}),
			text.New(invoice.CustomerAddress, props.Text{Top: 9}),
			text.New("VAT: "+invoice.CustomerVATNumber, props.Text{Top: 13}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Hours", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "VAT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range invoice.Items {
		m.AddRow(12,
			text.NewCol(5, item.Description, props.Text{Size: 9}),
			text.NewCol(1, formatAmount(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.VatAmount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.TotalAmount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, formatAmount(invoice.Subtotal), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "VAT", props.Text{Size: 9}),
		text.NewCol(2, formatAmount(invoice.VatAmount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, formatAmount(invoice.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if tenant.BankDetails != "" {
		m.AddRow(20,
			text.NewCol(12, tenant.BankDetails, props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func servicePeriod(invoice invoicedomain.Invoice) string {
	if invoice.SourceYear == nil || invoice.SourceMonth == nil {
		return "Service period: ad hoc"
	}
	return fmt.Sprintf("Service period: %04d-%02d", *invoice.SourceYear, *invoice.SourceMonth)
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
