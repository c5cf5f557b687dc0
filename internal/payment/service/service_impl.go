package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/events"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/payment/domain"
	"github.com/smallbiznis/snelcrm/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *billingstore.Store
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	PDF     pdf.Provider     `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *billingstore.Store
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	pdf     pdf.Provider
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		pdf:     p.PDF,
		metrics: p.Metrics,
	}
}

// ApplyPayment records a payment against an open invoice and settles the
// invoice once its balance reaches zero. The balance check and the write
// happen under one store lock.
func (s *Service) ApplyPayment(ctx context.Context, req domain.ApplyPaymentRequest) (domain.Payment, error) {
	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return domain.Payment{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Payment{}, domain.ErrInvalidAmount
	}
	mode := domain.Mode(strings.ToUpper(strings.TrimSpace(req.PaymentMode)))
	if !mode.Valid() {
		return domain.Payment{}, domain.ErrInvalidPaymentMode
	}
	channel := domain.Channel(strings.ToUpper(strings.TrimSpace(req.Channel)))
	if !channel.Valid() {
		return domain.Payment{}, domain.ErrInvalidChannel
	}
	agentID := strings.TrimSpace(req.AgentID)
	if channel.RequiresAgent() && agentID == "" {
		return domain.Payment{}, domain.ErrAgentRequired
	}

	var (
		out     domain.Payment
		settled bool
	)
	err = s.store.Update(ctx, "payment.apply", func(tx *billingstore.Tx) error {
		state := tx.State()
		invoice, ok := state.Invoices[invoiceID]
		if !ok {
			return invoicedomain.ErrInvoiceNotFound
		}
		switch invoice.Status {
		case invoicedomain.StatusPaid:
			return invoicedomain.ErrInvoiceAlreadyPaid
		case invoicedomain.StatusCancelled:
			return invoicedomain.ErrInvoiceCancelled
		}
		if req.Amount.GreaterThan(invoice.Balance) {
			return domain.ErrAmountExceedsBalance
		}

		now := s.clock.Now().UTC()
		number, err := format.FormatNumber(format.PaymentNumberTemplate, now,
			state.NextSequence(format.SequenceKey(format.PaymentNumberTemplate, now)))
		if err != nil {
			return err
		}

		payment := &domain.Payment{
			ID:                   s.genID.Generate(),
			Number:               number,
			InvoiceID:            invoice.ID,
			InvoiceNumber:        invoice.Number,
			ClientID:             invoice.ClientID,
			Amount:               req.Amount,
			PaymentMode:          mode,
			Channel:              channel,
			AgentID:              agentID,
			TransactionReference: strings.TrimSpace(req.TransactionReference),
			Status:               domain.StatusValid,
			PaidAt:               now,
		}
		state.Payments[payment.ID] = payment

		invoice.AmountPaid = invoice.AmountPaid.Add(req.Amount)
		invoice.Balance = invoice.TotalAmount.Sub(invoice.AmountPaid)
		if invoice.Balance.LessThanOrEqual(decimal.Zero) {
			invoice.Status = invoicedomain.StatusPaid
			invoice.PaymentMode = string(mode)
			invoice.PaymentDate = &now
			settled = true
		}

		tx.Touch(billingstore.KeyPayments, billingstore.KeyInvoices, billingstore.KeySequences)
		tx.Emit(events.New(events.PaymentApplied, payment.ID.String(), now, map[string]string{
			"number":         payment.Number,
			"invoice_number": invoice.Number,
			"amount":         payment.Amount.String(),
			"balance":        invoice.Balance.String(),
			"channel":        string(channel),
		}))
		if settled {
			tx.Emit(events.New(events.InvoicePaid, invoice.ID.String(), now, map[string]string{
				"number":       invoice.Number,
				"total_amount": invoice.TotalAmount.String(),
			}))
		}
		out = *payment
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}

	amount, _ := out.Amount.Float64()
	s.metrics.RecordPayment(string(out.PaymentMode), string(out.Channel), amount)
	s.log.Info("payment applied",
		zap.String("payment_id", out.ID.String()),
		zap.String("number", out.Number),
		zap.String("invoice_number", out.InvoiceNumber),
		zap.String("amount", out.Amount.String()),
		zap.String("channel", string(out.Channel)),
		zap.Bool("settled", settled),
	)
	return out, nil
}

func (s *Service) GetPayment(_ context.Context, paymentID string) (domain.Payment, error) {
	id, err := parseID(paymentID)
	if err != nil {
		return domain.Payment{}, err
	}

	var (
		out domain.Payment
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var payment *domain.Payment
		if payment, ok = state.Payments[id]; ok {
			out = *payment
		}
	})
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return out, nil
}

func (s *Service) ListPayments(_ context.Context, req domain.ListPaymentRequest) ([]domain.Payment, error) {
	invoiceID, err := optionalID(req.InvoiceID)
	if err != nil {
		return nil, err
	}
	clientID, err := optionalID(req.ClientID)
	if err != nil {
		return nil, err
	}
	agentID := strings.TrimSpace(req.AgentID)

	var out []domain.Payment
	s.store.View(func(state *billingstore.State) {
		out = billingstore.Sorted(state.Payments, func(p *domain.Payment) bool {
			if invoiceID != 0 && p.InvoiceID != invoiceID {
				return false
			}
			if clientID != 0 && p.ClientID != clientID {
				return false
			}
			return agentID == "" || p.AgentID == agentID
		})
	})
	return out, nil
}

func optionalID(value string) (snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return parseID(value)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
