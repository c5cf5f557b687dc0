package service

import (
	"context"
	"errors"

	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"github.com/smallbiznis/snelcrm/internal/providers/pdf"
)

const dateLayout = "02/01/2006"

var errRendererNotConfigured = errors.New("renderer_not_configured")

func (s *Service) RenderInvoicePDF(ctx context.Context, invoiceID string) ([]byte, error) {
	if s.pdf == nil {
		return nil, errRendererNotConfigured
	}
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, err
	}

	var (
		doc pdf.InvoiceDocument
		ok  bool
	)
	now := s.clock.Now()
	s.store.View(func(state *billingstore.State) {
		var invoice *domain.Invoice
		if invoice, ok = state.Invoices[id]; !ok {
			return
		}
		doc = invoiceDocument(invoice.AsOf(now))
		if client, found := state.Clients[invoice.ClientID]; found {
			doc.ClientName = client.Name
			doc.ClientNumber = client.Number
			doc.ClientAddress = client.Address
		}
	})
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return s.pdf.Invoice(ctx, doc)
}

func invoiceDocument(inv domain.Invoice) pdf.InvoiceDocument {
	return pdf.InvoiceDocument{
		Number:      inv.Number,
		IssueDate:   inv.IssueDate.Format(dateLayout),
		DueDate:     inv.DueDate.Format(dateLayout),
		Period:      inv.Period,
		Status:      string(inv.Status),
		MeterNumber: inv.MeterNumber,
		Lines: []pdf.Line{{
			Description: "Consommation électrique " + inv.Period,
			Quantity:    inv.Consumption.String() + " kWh",
			UnitPrice:   format.Money(inv.UnitPrice, inv.Currency),
			Amount:      format.Money(inv.NetAmount, inv.Currency),
		}},
		NetAmount:  format.Money(inv.NetAmount, inv.Currency),
		TaxLabel:   "TVA " + inv.TaxRate.Shift(2).String() + "%",
		Tax:        format.Money(inv.Tax, inv.Currency),
		Total:      format.Money(inv.TotalAmount, inv.Currency),
		AmountPaid: format.Money(inv.AmountPaid, inv.Currency),
		Balance:    format.Money(inv.Balance, inv.Currency),
	}
}
