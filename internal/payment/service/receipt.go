package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"github.com/smallbiznis/snelcrm/internal/payment/domain"
	"github.com/smallbiznis/snelcrm/internal/providers/pdf"
)

var errRendererNotConfigured = errors.New("renderer_not_configured")

func (s *Service) RenderReceiptPDF(ctx context.Context, paymentID string) ([]byte, error) {
	if s.pdf == nil {
		return nil, errRendererNotConfigured
	}
	id, err := parseID(paymentID)
	if err != nil {
		return nil, err
	}

	var (
		doc pdf.ReceiptDocument
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var payment *domain.Payment
		if payment, ok = state.Payments[id]; !ok {
			return
		}
		currency := "FC"
		balance := decimal.Zero
		if invoice, found := state.Invoices[payment.InvoiceID]; found {
			currency = invoice.Currency
			balance = invoice.TotalAmount.Sub(paidThrough(state, payment))
		}
		doc = pdf.ReceiptDocument{
			Number:        payment.Number,
			PaidAt:        payment.PaidAt.Format("02/01/2006 15:04"),
			InvoiceNumber: payment.InvoiceNumber,
			Amount:        format.Money(payment.Amount, currency),
			PaymentMode:   string(payment.PaymentMode),
			Channel:       string(payment.Channel),
			Reference:     payment.TransactionReference,
			BalanceAfter:  format.Money(balance, currency),
		}
		if client, found := state.Clients[payment.ClientID]; found {
			doc.ClientName = client.Name
			doc.ClientNumber = client.Number
			doc.MeterNumber = client.MeterNumber
		}
	})
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return s.pdf.Receipt(ctx, doc)
}

// paidThrough sums the payments on the same invoice up to and including p.
func paidThrough(state *billingstore.State, p *domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, other := range state.Payments {
		if other.InvoiceID == p.InvoiceID && other.ID <= p.ID {
			total = total.Add(other.Amount)
		}
	}
	return total
}
