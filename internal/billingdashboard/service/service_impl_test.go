package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	billingdashboard "github.com/smallbiznis/snelcrm/internal/billingdashboard/domain"
	"github.com/smallbiznis/snelcrm/internal/billingstore/billingstoretest"
	feedbackservice "github.com/smallbiznis/snelcrm/internal/feedback/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(f *billingstoretest.Fixture) billingdashboard.Service {
	return NewService(Params{
		Store:  f.Store,
		Log:    f.Log,
		Clock:  f.Clock,
		Tariff: f.Tariff,
		Feedback: feedbackservice.New(feedbackservice.Params{
			Store: f.Store,
			Log:   f.Log,
			GenID: f.GenID,
			Clock: f.Clock,
		}),
	})
}

func amount(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func TestBillingSummaryOverSeededState(t *testing.T) {
	f := billingstoretest.Seeded(t)
	summary, err := newTestService(f).BillingSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "FC", summary.Currency)
	assert.Equal(t, 2, summary.ByStatus["PAID"].Count)
	assert.True(t, summary.ByStatus["PAID"].Amount.Equal(amount(t, "994150")))
	assert.Equal(t, 4, summary.ByStatus["OVERDUE"].Count)
	assert.True(t, summary.ByStatus["OVERDUE"].Amount.Equal(amount(t, "131652.6")))
	assert.Equal(t, 0, summary.ByStatus["PENDING"].Count)

	assert.True(t, summary.TotalInvoiced.Equal(amount(t, "1125802.6")), summary.TotalInvoiced.String())
	assert.True(t, summary.Collected.Equal(amount(t, "1031054.5")), summary.Collected.String())
	assert.True(t, summary.Outstanding.Equal(amount(t, "94748.1")), summary.Outstanding.String())
	assert.True(t, summary.TotalInvoiced.Equal(summary.Collected.Add(summary.Outstanding)))
	assert.Equal(t, 91.58, summary.CollectionRate)

	assert.Equal(t, 6, summary.ActiveClients)
	assert.Equal(t, 1, summary.ReadingsPending)
	assert.Equal(t, 1, summary.OpenComplaints)
	assert.Equal(t, 3, summary.Rating.Count)
	assert.Equal(t, 3.67, summary.Rating.Average)
}

func TestBillingSummaryOnEmptyStore(t *testing.T) {
	f := billingstoretest.New(t)
	summary, err := newTestService(f).BillingSummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.CollectionRate)
	assert.True(t, summary.TotalInvoiced.IsZero())
	assert.Len(t, summary.ByStatus, 4)
}

func TestAgentActivity(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	reader, err := svc.AgentActivity(ctx, "AGT-001")
	require.NoError(t, err)
	assert.Equal(t, "Didier Lukusa", reader.AgentName)
	assert.Equal(t, 7, reader.ReadingsEntered)
	assert.Equal(t, 6, reader.ReadingsValidated)
	assert.Equal(t, 1, reader.ReadingsPending)
	assert.Zero(t, reader.PaymentsCollected)

	cashier, err := svc.AgentActivity(ctx, "CSH-001")
	require.NoError(t, err)
	assert.Equal(t, 2, cashier.PaymentsCollected)
	assert.True(t, cashier.AmountCollected.Equal(amount(t, "36904.5")), cashier.AmountCollected.String())

	_, err = svc.AgentActivity(ctx, " ")
	assert.ErrorIs(t, err, billingdashboard.ErrInvalidAgent)
}

func TestListClientBalances(t *testing.T) {
	f := billingstoretest.Seeded(t)
	resp, err := newTestService(f).ListClientBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Clients, 6)

	names := make([]string, 0, len(resp.Clients))
	for _, c := range resp.Clients {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"Boulangerie Matonge",
		"Cimenterie du Fleuve",
		"Grace Kabila Traders",
		"Jean Mukendi",
		"Marie Tshisekedi",
		"Paul Ilunga",
	}, names)

	cement := resp.Clients[1]
	assert.Equal(t, "settled", cement.PaymentStatus)
	assert.True(t, cement.Balance.IsZero())

	traders := resp.Clients[2]
	assert.Equal(t, "due", traders.PaymentStatus)
	assert.Equal(t, 1, traders.OpenInvoices)
	assert.True(t, traders.Balance.Equal(amount(t, "21240")))
	assert.Equal(t, "FAC-2024-00002", traders.LastInvoiceNumber)
}

func TestListPeriods(t *testing.T) {
	f := billingstoretest.Seeded(t)
	resp, err := newTestService(f).ListPeriods(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Periods, 1)
	assert.Equal(t, "2024-04", resp.Periods[0].Period)
	assert.Equal(t, 6, resp.Periods[0].InvoiceCount)
	assert.True(t, resp.Periods[0].Outstanding.Equal(amount(t, "94748.1")))
}

func TestListBillingActivityGroupsByDay(t *testing.T) {
	f := billingstoretest.Seeded(t)
	resp, err := newTestService(f).ListBillingActivity(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, resp.Activity, 2)

	assert.Equal(t, "Yesterday", resp.Activity[0].Title)
	require.Len(t, resp.Activity[0].Activities, 1)
	assert.Contains(t, resp.Activity[0].Activities[0].Message, "entered for MTR-100001")

	assert.Equal(t, "Earlier", resp.Activity[1].Title)
	assert.Len(t, resp.Activity[1].Activities, 2)
	for _, a := range resp.Activity[1].Activities {
		assert.Contains(t, a.Message, "Complaint PLA-2024-")
	}
}
