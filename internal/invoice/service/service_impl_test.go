package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/billingstore/billingstoretest"
	"github.com/smallbiznis/snelcrm/internal/config"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/providers/pdf"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
	readingservice "github.com/smallbiznis/snelcrm/internal/reading/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(f *billingstoretest.Fixture) domain.Service {
	return New(Params{
		Store:   f.Store,
		Log:     f.Log,
		GenID:   f.GenID,
		Clock:   f.Clock,
		Tariff:  f.Tariff,
		PDF:     pdf.New(pdf.DefaultIssuer()),
		Metrics: f.Metrics,
	})
}

// validatedReading enters and validates a reading on a seeded meter.
func validatedReading(t *testing.T, f *billingstoretest.Fixture, meterID, meterNumber string, previous, next int64) readingdomain.Reading {
	t.Helper()
	readings := readingservice.New(readingservice.Params{
		Store: f.Store,
		Log:   f.Log,
		GenID: f.GenID,
		Clock: f.Clock,
	})
	ctx := context.Background()
	reading, err := readings.CreateReading(ctx, readingdomain.CreateReadingRequest{
		MeterID:       meterID,
		MeterNumber:   meterNumber,
		AgentID:       "AGT-002",
		AgentName:     "Sarah Mbuyi",
		PreviousIndex: decimal.NewFromInt(previous),
		NewIndex:      decimal.NewFromInt(next),
		ReadingDate:   f.Clock.Now().AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	reading, err = readings.ValidateReading(ctx, reading.ID.String())
	require.NoError(t, err)
	return reading
}

func TestGenerateInvoicePricesDomesticConsumption(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	reading := validatedReading(t, f, "2003", "MTR-100003", 950, 1050)

	inv, err := svc.GenerateInvoice(context.Background(), domain.GenerateInvoiceRequest{
		ReadingID: reading.ID.String(),
		Period:    "2024-05",
	})
	require.NoError(t, err)

	assert.Equal(t, "FAC-2024-00007", inv.Number)
	assert.True(t, inv.Consumption.Equal(decimal.NewFromInt(100)))
	assert.True(t, inv.NetAmount.Equal(decimal.NewFromInt(15000)), inv.NetAmount.String())
	assert.True(t, inv.Tax.Equal(decimal.NewFromInt(2700)), inv.Tax.String())
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(17700)), inv.TotalAmount.String())
	assert.True(t, inv.Balance.Equal(inv.TotalAmount))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.Equal(t, domain.StatusPending, inv.Status)
	assert.Equal(t, "FC", inv.Currency)
	assert.Equal(t, billingstoretest.Now.AddDate(0, 1, 0), inv.DueDate)
	assert.Contains(t, f.Events.Types(), events.InvoiceGenerated)
}

func TestGenerateInvoiceIsIdempotentPerReading(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	reading := validatedReading(t, f, "2003", "MTR-100003", 950, 1050)
	req := domain.GenerateInvoiceRequest{ReadingID: reading.ID.String(), Period: "2024-05"}

	first, err := svc.GenerateInvoice(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.GenerateInvoice(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)

	generated := 0
	for _, typ := range f.Events.Types() {
		if typ == events.InvoiceGenerated {
			generated++
		}
	}
	assert.Equal(t, 1, generated)

	var count int
	f.Store.View(func(s *billingstore.State) {
		for _, inv := range s.Invoices {
			if inv.ReadingID == reading.ID {
				count++
			}
		}
	})
	assert.Equal(t, 1, count)
}

func TestZeroConsumptionInvoiceIsSettledAtIssue(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	reading := validatedReading(t, f, "2003", "MTR-100003", 1050, 1050)

	inv, err := svc.GenerateInvoice(context.Background(), domain.GenerateInvoiceRequest{
		ReadingID: reading.ID.String(),
		Period:    "2024-05",
	})
	require.NoError(t, err)
	assert.True(t, inv.TotalAmount.IsZero(), inv.TotalAmount.String())
	assert.True(t, inv.Balance.IsZero(), inv.Balance.String())
	assert.Equal(t, domain.StatusPaid, inv.Status)
	require.NotNil(t, inv.PaymentDate)
	assert.Contains(t, f.Events.Types(), events.InvoicePaid)

	f.Clock.Advance(40 * 24 * time.Hour)
	later, err := svc.GetInvoice(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, later.Status)
}

func TestGenerateInvoiceRejectsUnvalidatedReading(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)

	_, err := svc.GenerateInvoice(context.Background(), domain.GenerateInvoiceRequest{ReadingID: "3100", Period: "2024-05"})
	assert.ErrorIs(t, err, domain.ErrReadingNotValidated)

	_, err = svc.GenerateInvoice(context.Background(), domain.GenerateInvoiceRequest{ReadingID: "999999", Period: "2024-05"})
	assert.ErrorIs(t, err, readingdomain.ErrReadingNotFound)

	_, err = svc.GenerateInvoice(context.Background(), domain.GenerateInvoiceRequest{ReadingID: "abc", Period: "2024-05"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GenerateInvoice(context.Background(), domain.GenerateInvoiceRequest{ReadingID: "3100", Period: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestGenerateInvoiceWithoutTariffForSubscription(t *testing.T) {
	f := billingstoretest.Seeded(t)
	cfg := config.DefaultTariffConfig()
	cfg.UnitPrices = map[string]float64{"COMMERCIAL": 120}
	tariff, err := config.NewStaticTariffHolder(cfg)
	require.NoError(t, err)
	f.Tariff = tariff
	svc := newTestService(f)

	reading := validatedReading(t, f, "2003", "MTR-100003", 950, 1050)
	_, err = svc.GenerateInvoice(context.Background(), domain.GenerateInvoiceRequest{ReadingID: reading.ID.String(), Period: "2024-05"})
	assert.ErrorIs(t, err, domain.ErrTariffNotFound)
}

func TestOverdueIsDerivedFromDueDate(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	inv, err := svc.GetInvoice(ctx, "4003")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOverdue, inv.Status)

	f.Store.View(func(s *billingstore.State) {
		assert.Equal(t, domain.StatusPending, s.Invoices[4003].Status)
	})

	overdue, err := svc.ListInvoices(ctx, domain.ListInvoiceRequest{Status: "overdue"})
	require.NoError(t, err)
	numbers := make([]string, 0, len(overdue))
	for _, item := range overdue {
		numbers = append(numbers, item.ID.String())
	}
	assert.Equal(t, []string{"4002", "4003", "4005", "4006"}, numbers)

	pending, err := svc.ListInvoices(ctx, domain.ListInvoiceRequest{Status: "PENDING"})
	require.NoError(t, err)
	assert.Empty(t, pending)

	paid, err := svc.ListInvoices(ctx, domain.ListInvoiceRequest{Status: "PAID", ClientID: "1001"})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "MTR-100001", paid[0].MeterNumber)

	_, err = svc.ListInvoices(ctx, domain.ListInvoiceRequest{Status: "LATE"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestInvoiceIsPendingBeforeDueDate(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	f.Clock.Set(time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC))

	inv, err := svc.GetInvoiceByNumber(context.Background(), "fac-2024-00003")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, inv.Status)
}

func TestCancelInvoice(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.CancelInvoice(ctx, domain.CancelInvoiceRequest{InvoiceID: "4003"})
	assert.ErrorIs(t, err, domain.ErrInvalidReason)

	_, err = svc.CancelInvoice(ctx, domain.CancelInvoiceRequest{InvoiceID: "4001", Reason: "duplicate"})
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyPaid)

	_, err = svc.CancelInvoice(ctx, domain.CancelInvoiceRequest{InvoiceID: "4002", Reason: "duplicate"})
	assert.ErrorIs(t, err, domain.ErrInvoicePartiallyPaid)

	inv, err := svc.CancelInvoice(ctx, domain.CancelInvoiceRequest{InvoiceID: "4003", Reason: "index error"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, inv.Status)
	assert.Equal(t, "index error", inv.CancelReason)
	require.NotNil(t, inv.CancelledAt)

	_, err = svc.CancelInvoice(ctx, domain.CancelInvoiceRequest{InvoiceID: "4003", Reason: "again"})
	assert.ErrorIs(t, err, domain.ErrInvoiceCancelled)

	got, err := svc.GetInvoice(ctx, "4003")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Contains(t, f.Events.Types(), events.InvoiceCancelled)
}

func TestRenderInvoicePDF(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)

	data, err := svc.RenderInvoicePDF(context.Background(), "4002")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = svc.RenderInvoicePDF(context.Background(), "4999")
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}
