package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/config"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/providers/pdf"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *billingstore.Store
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Tariff  *config.TariffHolder
	PDF     pdf.Provider     `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *billingstore.Store
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	tariff  *config.TariffHolder
	pdf     pdf.Provider
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		tariff:  p.Tariff,
		pdf:     p.PDF,
		metrics: p.Metrics,
	}
}

func (s *Service) GenerateInvoice(ctx context.Context, req domain.GenerateInvoiceRequest) (domain.Invoice, error) {
	readingID, err := parseID(req.ReadingID)
	if err != nil {
		return domain.Invoice{}, err
	}
	period := strings.TrimSpace(req.Period)
	if period == "" {
		return domain.Invoice{}, domain.ErrInvalidPeriod
	}
	tariff := s.tariff.Get()

	var (
		out     domain.Invoice
		created bool
	)
	err = s.store.Update(ctx, "invoice.generate", func(tx *billingstore.Tx) error {
		state := tx.State()
		reading, ok := state.Readings[readingID]
		if !ok {
			return readingdomain.ErrReadingNotFound
		}
		if reading.Status != readingdomain.StatusValidated {
			return domain.ErrReadingNotValidated
		}
		if existing, ok := state.InvoiceForReading(reading.ID); ok {
			out = *existing
			return nil
		}

		meter, ok := state.Meters[reading.MeterID]
		if !ok {
			return customerdomain.ErrMeterNotFound
		}
		client, ok := state.Clients[meter.ClientID]
		if !ok {
			return customerdomain.ErrClientNotFound
		}
		unitPrice, ok := tariff.UnitPrice(string(client.SubscriptionType))
		if !ok {
			return domain.ErrTariffNotFound
		}

		now := s.clock.Now().UTC()
		number, err := format.FormatNumber(format.InvoiceNumberTemplate, now,
			state.NextSequence(format.SequenceKey(format.InvoiceNumberTemplate, now)))
		if err != nil {
			return err
		}

		amounts := domain.Price(reading.Consumption, unitPrice, tariff.Tax())
		invoice := &domain.Invoice{
			ID:          s.genID.Generate(),
			Number:      number,
			ClientID:    client.ID,
			MeterNumber: meter.Number,
			ReadingID:   reading.ID,
			Period:      period,
			IssueDate:   now,
			DueDate:     now.AddDate(0, tariff.DueMonths, 0),
			Consumption: amounts.Consumption,
			UnitPrice:   amounts.UnitPrice,
			NetAmount:   amounts.NetAmount,
			TaxRate:     amounts.TaxRate,
			Tax:         amounts.Tax,
			TotalAmount: amounts.TotalAmount,
			AmountPaid:  decimal.Zero,
			Balance:     amounts.TotalAmount,
			Currency:    tariff.Currency,
			Status:      domain.StatusPending,
		}
		// Nothing owed: settled at issue so PAID keeps matching balance <= 0.
		if invoice.Balance.Sign() <= 0 {
			invoice.Status = domain.StatusPaid
			invoice.PaymentDate = &now
		}
		state.Invoices[invoice.ID] = invoice
		tx.Touch(billingstore.KeyInvoices, billingstore.KeySequences)
		tx.Emit(events.New(events.InvoiceGenerated, invoice.ID.String(), now, map[string]string{
			"number":       invoice.Number,
			"client_id":    invoice.ClientID.String(),
			"total_amount": invoice.TotalAmount.String(),
			"due_date":     invoice.DueDate.Format("2006-01-02"),
		}))
		if invoice.Status == domain.StatusPaid {
			tx.Emit(events.New(events.InvoicePaid, invoice.ID.String(), now, map[string]string{
				"number":    invoice.Number,
				"client_id": invoice.ClientID.String(),
			}))
		}
		out = *invoice
		created = true
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	if created {
		total, _ := out.TotalAmount.Float64()
		s.metrics.RecordInvoice(total)
		s.log.Info("invoice generated",
			zap.String("invoice_id", out.ID.String()),
			zap.String("number", out.Number),
			zap.String("reading_id", out.ReadingID.String()),
			zap.String("total_amount", out.TotalAmount.String()),
		)
	}
	return out.AsOf(s.clock.Now()), nil
}

func (s *Service) CancelInvoice(ctx context.Context, req domain.CancelInvoiceRequest) (domain.Invoice, error) {
	id, err := parseID(req.InvoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Invoice{}, domain.ErrInvalidReason
	}

	var out domain.Invoice
	err = s.store.Update(ctx, "invoice.cancel", func(tx *billingstore.Tx) error {
		invoice, ok := tx.State().Invoices[id]
		if !ok {
			return domain.ErrInvoiceNotFound
		}
		switch {
		case invoice.Status == domain.StatusCancelled:
			return domain.ErrInvoiceCancelled
		case invoice.Status == domain.StatusPaid:
			return domain.ErrInvoiceAlreadyPaid
		case invoice.AmountPaid.IsPositive():
			return domain.ErrInvoicePartiallyPaid
		}

		now := s.clock.Now().UTC()
		invoice.Status = domain.StatusCancelled
		invoice.CancelledAt = &now
		invoice.CancelReason = reason
		tx.Touch(billingstore.KeyInvoices)
		tx.Emit(events.New(events.InvoiceCancelled, invoice.ID.String(), now, map[string]string{
			"number": invoice.Number,
			"reason": reason,
		}))
		out = *invoice
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.log.Info("invoice cancelled",
		zap.String("invoice_id", out.ID.String()),
		zap.String("number", out.Number),
	)
	return out, nil
}

func (s *Service) GetInvoice(_ context.Context, invoiceID string) (domain.Invoice, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	var (
		out domain.Invoice
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var invoice *domain.Invoice
		if invoice, ok = state.Invoices[id]; ok {
			out = *invoice
		}
	})
	if !ok {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return out.AsOf(s.clock.Now()), nil
}

func (s *Service) GetInvoiceByNumber(_ context.Context, number string) (domain.Invoice, error) {
	var (
		out domain.Invoice
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var invoice *domain.Invoice
		if invoice, ok = state.InvoiceByNumber(number); ok {
			out = *invoice
		}
	})
	if !ok {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return out.AsOf(s.clock.Now()), nil
}

// ListInvoices filters on the effective status, so asking for OVERDUE
// returns pending invoices past their due date.
func (s *Service) ListInvoices(_ context.Context, req domain.ListInvoiceRequest) ([]domain.Invoice, error) {
	status := domain.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	var clientID snowflake.ID
	if strings.TrimSpace(req.ClientID) != "" {
		id, err := parseID(req.ClientID)
		if err != nil {
			return nil, err
		}
		clientID = id
	}
	meterNumber := strings.TrimSpace(req.MeterNumber)
	now := s.clock.Now()

	var items []domain.Invoice
	s.store.View(func(state *billingstore.State) {
		items = billingstore.Sorted(state.Invoices, func(inv *domain.Invoice) bool {
			if clientID != 0 && inv.ClientID != clientID {
				return false
			}
			if meterNumber != "" && !strings.EqualFold(inv.MeterNumber, meterNumber) {
				return false
			}
			return status == "" || inv.EffectiveStatus(now) == status
		})
	})

	out := make([]domain.Invoice, 0, len(items))
	for _, inv := range items {
		out = append(out, inv.AsOf(now))
	}
	return out, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
