package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/seed"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	"github.com/smallbiznis/snelcrm/internal/snapshot/repository"
	"github.com/smallbiznis/snelcrm/internal/statestore"
	"github.com/smallbiznis/snelcrm/internal/ticketing/domain"
	"github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    domain.Service
	store  *store.Store
	events *events.Recorder
}

func newFixture(t *testing.T, seeded bool) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	rec := &events.Recorder{}
	st := store.New(repository.NewMemoryStore(), snapshot.NewCodec("none"), zaptest.NewLogger(t),
		statestore.WithPublisher[store.State](rec),
	)
	var s store.Seed
	if seeded {
		s = func() *store.State { return seed.Ticketing(now) }
	}
	require.NoError(t, st.Load(context.Background(), s))

	return &fixture{
		svc:    New(Params{Store: st, Log: zaptest.NewLogger(t), GenID: node, Clock: clock.NewFakeClock(now)}),
		store:  st,
		events: rec,
	}
}

func ticketRequest(departureID string, seats int) domain.CreateTicketRequest {
	return domain.CreateTicketRequest{
		ClientName:  "Joseph Kabamba",
		ClientPhone: "+243899999999",
		DepartureID: departureID,
		SeatCount:   seats,
		Channel:     "online",
		PaymentMode: "mobile_money",
	}
}

func TestNetworkSetup(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	op, err := f.svc.CreateOperator(ctx, domain.CreateOperatorRequest{Name: "Kin Express", Prefix: "kex", TransportType: "bus"})
	require.NoError(t, err)
	assert.Equal(t, "KEX", op.Prefix)
	assert.True(t, op.Active)

	_, err = f.svc.CreateOperator(ctx, domain.CreateOperatorRequest{Name: "Other", Prefix: "KEX", TransportType: "BUS"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePrefix)

	line, err := f.svc.CreateLine(ctx, domain.CreateLineRequest{
		OperatorID:             op.ID.String(),
		Origin:                 "Kinshasa",
		Destination:            "Boma",
		Price:                  decimal.NewFromInt(32000),
		AverageDurationMinutes: 480,
	})
	require.NoError(t, err)

	at := now.Add(24 * time.Hour)
	departure, err := f.svc.CreateDeparture(ctx, domain.CreateDepartureRequest{LineID: line.ID.String(), DepartureTime: at, TotalSeats: 40})
	require.NoError(t, err)
	assert.Equal(t, at.Add(8*time.Hour), departure.ArrivalTime)
	assert.Equal(t, 40, departure.AvailableSeats())
	assert.Equal(t, domain.DepartureScheduled, departure.Status)

	lines, err := f.svc.ListLines(ctx, op.ID.String())
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	departures, err := f.svc.ListDepartures(ctx, line.ID.String())
	require.NoError(t, err)
	assert.Len(t, departures, 1)
}

func TestNetworkSetupRejectsBadInput(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.CreateOperator(ctx, domain.CreateOperatorRequest{Name: "X", Prefix: "T-1", TransportType: "BUS"})
	assert.ErrorIs(t, err, domain.ErrInvalidPrefix)
	_, err = f.svc.CreateOperator(ctx, domain.CreateOperatorRequest{Name: "X", Prefix: "XYZ", TransportType: "ROCKET"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransportType)

	_, err = f.svc.CreateLine(ctx, domain.CreateLineRequest{OperatorID: "10001", Origin: "Kinshasa", Destination: "kinshasa", Price: decimal.NewFromInt(1), AverageDurationMinutes: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidRoute)
	_, err = f.svc.CreateLine(ctx, domain.CreateLineRequest{OperatorID: "10001", Origin: "A", Destination: "B", Price: decimal.Zero, AverageDurationMinutes: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	_, err = f.svc.CreateLine(ctx, domain.CreateLineRequest{OperatorID: "10001", Origin: "A", Destination: "B", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)
	_, err = f.svc.CreateLine(ctx, domain.CreateLineRequest{OperatorID: "99", Origin: "A", Destination: "B", Price: decimal.NewFromInt(1), AverageDurationMinutes: 10})
	assert.ErrorIs(t, err, domain.ErrOperatorNotFound)

	_, err = f.svc.CreateDeparture(ctx, domain.CreateDepartureRequest{LineID: "11001", DepartureTime: now, TotalSeats: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidSeats)
	_, err = f.svc.CreateDeparture(ctx, domain.CreateDepartureRequest{LineID: "11001", TotalSeats: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidDepartureTime)
}

func TestCreateTicketAssignsLowestFreeSeats(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tickets, err := f.svc.CreateTicket(ctx, ticketRequest("12001", 2))
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "TRC-00000006", tickets[0].Code)
	assert.Equal(t, "TRC-00000007", tickets[1].Code)
	assert.Equal(t, 4, tickets[0].SeatNumber)
	assert.Equal(t, 5, tickets[1].SeatNumber)
	assert.True(t, tickets[0].Price.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, domain.TicketValid, tickets[0].Status)

	departure, err := f.svc.GetDeparture(ctx, "12001")
	require.NoError(t, err)
	assert.Equal(t, 5, departure.SoldSeats)
	assert.Equal(t, []string{events.TicketsIssued}, f.events.Types())

	// seat 1 on the boat was released by a cancellation
	tickets, err = f.svc.CreateTicket(ctx, ticketRequest("12003", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, tickets[0].SeatNumber)
	assert.Equal(t, "ONT-00000003", tickets[0].Code)
}

func TestCreateTicketRejections(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	cases := []struct {
		name string
		edit func(*domain.CreateTicketRequest)
		want error
	}{
		{"over capacity", func(r *domain.CreateTicketRequest) { r.SeatCount = 48 }, domain.ErrCapacityExceeded},
		{"zero seats", func(r *domain.CreateTicketRequest) { r.SeatCount = 0 }, domain.ErrInvalidSeatCount},
		{"no client", func(r *domain.CreateTicketRequest) { r.ClientName = " " }, domain.ErrInvalidClient},
		{"bad channel", func(r *domain.CreateTicketRequest) { r.Channel = "FAX" }, domain.ErrInvalidChannel},
		{"bad mode", func(r *domain.CreateTicketRequest) { r.PaymentMode = "CHEQUE" }, domain.ErrInvalidPaymentMode},
		{"agent missing", func(r *domain.CreateTicketRequest) { r.Channel = "COUNTER" }, domain.ErrAgentRequired},
		{"unknown departure", func(r *domain.CreateTicketRequest) { r.DepartureID = "12999" }, domain.ErrDepartureNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := ticketRequest("12001", 1)
			tc.edit(&req)
			_, err := f.svc.CreateTicket(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	departure, err := f.svc.GetDeparture(ctx, "12001")
	require.NoError(t, err)
	assert.Equal(t, 3, departure.SoldSeats)
}

func TestCreateTicketNeverOversells(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		sold    []domain.Ticket
		refused int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets, err := f.svc.CreateTicket(ctx, ticketRequest("12001", 3))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
				refused++
				return
			}
			sold = append(sold, tickets...)
		}()
	}
	wg.Wait()

	assert.Len(t, sold, 45)
	assert.Equal(t, 5, refused)

	seats := make(map[int]bool)
	for _, ticket := range sold {
		assert.False(t, seats[ticket.SeatNumber], "seat %d sold twice", ticket.SeatNumber)
		seats[ticket.SeatNumber] = true
	}

	departure, err := f.svc.GetDeparture(ctx, "12001")
	require.NoError(t, err)
	assert.Equal(t, 48, departure.SoldSeats)
	assert.LessOrEqual(t, departure.SoldSeats, departure.TotalSeats)
}

func TestValidateAndCancelTicket(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	used, err := f.svc.ValidateTicket(ctx, "trc-00000001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketUsed, used.Status)
	require.NotNil(t, used.UsedAt)

	_, err = f.svc.ValidateTicket(ctx, "TRC-00000001")
	assert.ErrorIs(t, err, domain.ErrTicketNotValid)
	_, err = f.svc.CancelTicket(ctx, "TRC-00000001")
	assert.ErrorIs(t, err, domain.ErrTicketNotValid)
	_, err = f.svc.ValidateTicket(ctx, "TRC-99999999")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)

	cancelled, err := f.svc.CancelTicket(ctx, "TRC-00000002")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCancelled, cancelled.Status)

	departure, err := f.svc.GetDeparture(ctx, "12001")
	require.NoError(t, err)
	assert.Equal(t, 2, departure.SoldSeats)
}

func TestCancelDepartureCancelsValidTickets(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	departure, err := f.svc.CancelDeparture(ctx, "12001")
	require.NoError(t, err)
	assert.Equal(t, domain.DepartureCancelled, departure.Status)
	assert.Equal(t, 0, departure.SoldSeats)

	tickets, err := f.svc.ListTickets(ctx, domain.ListTicketRequest{DepartureID: "12001", Status: "cancelled"})
	require.NoError(t, err)
	assert.Len(t, tickets, 3)

	_, err = f.svc.CreateTicket(ctx, ticketRequest("12001", 1))
	assert.ErrorIs(t, err, domain.ErrDepartureCancelled)
	_, err = f.svc.CancelDeparture(ctx, "12001")
	assert.ErrorIs(t, err, domain.ErrDepartureCancelled)
}

func TestSummary(t *testing.T) {
	f := newFixture(t, true)

	summary, err := f.svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TicketsIssued)
	assert.Equal(t, 4, summary.TicketsValid)
	assert.Equal(t, 2, summary.TicketsUsed)
	assert.Equal(t, 1, summary.TicketsCancelled)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(210000)), summary.Revenue.String())
	assert.Equal(t, 4, summary.Departures)
	assert.Equal(t, 420, summary.SeatsOffered)
	assert.Equal(t, 6, summary.SeatsSold)
	assert.InDelta(t, 1.43, summary.Occupancy, 0.001)
}

func TestListTicketsRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.ListTickets(context.Background(), domain.ListTicketRequest{Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	ticket, err := f.svc.GetTicket(context.Background(), "ONT-00000002")
	require.NoError(t, err)
	assert.Equal(t, "Esther Banza", ticket.ClientName)
}
