package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	ticketingdomain "github.com/smallbiznis/snelcrm/internal/ticketing/domain"
	ticketingstore "github.com/smallbiznis/snelcrm/internal/ticketing/store"
)

const (
	operatorBase  snowflake.ID = 10_000
	lineBase      snowflake.ID = 11_000
	departureBase snowflake.ID = 12_000
	ticketBase    snowflake.ID = 13_000
)

type lineFixture struct {
	Operator            snowflake.ID
	Origin, Destination string
	Price               int64
	Minutes             int
}

var operators = []ticketingdomain.Operator{
	{Name: "Transco", Prefix: "TRC", TransportType: ticketingdomain.TransportBus},
	{Name: "ONATRA Fluvial", Prefix: "ONT", TransportType: ticketingdomain.TransportBoat},
	{Name: "SNCC", Prefix: "SNCC", TransportType: ticketingdomain.TransportTrain},
}

var lines = []lineFixture{
	{operatorBase + 1, "Kinshasa", "Matadi", 25000, 360},
	{operatorBase + 1, "Kinshasa", "Kikwit", 30000, 540},
	{operatorBase + 2, "Kinshasa", "Mbandaka", 85000, 4320},
	{operatorBase + 3, "Lubumbashi", "Kolwezi", 18000, 420},
}

type departureFixture struct {
	Line   snowflake.ID
	Offset time.Duration
	Seats  int
}

type ticketFixture struct {
	Departure snowflake.ID
	Client    string
	Phone     string
	Channel   ticketingdomain.Channel
	Mode      ticketingdomain.PaymentMode
	AgentID   string
	Status    ticketingdomain.TicketStatus
}

// Ticketing returns an operator network with a few sold, used and cancelled
// tickets, anchored on the start of now's day.
func Ticketing(now time.Time) *ticketingstore.State {
	state := ticketingstore.NewState()
	day := now.UTC().Truncate(24 * time.Hour)
	created := day.AddDate(0, -6, 0)

	for i, o := range operators {
		op := o
		op.ID = operatorBase + snowflake.ID(i+1)
		op.Active = true
		op.CreatedAt = created
		state.Operators[op.ID] = &op
	}

	for i, f := range lines {
		id := lineBase + snowflake.ID(i+1)
		state.Lines[id] = &ticketingdomain.Line{
			ID:                     id,
			OperatorID:             f.Operator,
			Origin:                 f.Origin,
			Destination:            f.Destination,
			Price:                  decimal.NewFromInt(f.Price),
			AverageDurationMinutes: f.Minutes,
			Active:                 true,
		}
	}

	departures := []departureFixture{
		{lineBase + 1, 31 * time.Hour, 50},
		{lineBase + 1, -17 * time.Hour, 50},
		{lineBase + 3, 78 * time.Hour, 120},
		{lineBase + 4, 56 * time.Hour, 200},
	}
	for i, f := range departures {
		id := departureBase + snowflake.ID(i+1)
		line := state.Lines[f.Line]
		at := day.Add(f.Offset)
		state.Departures[id] = &ticketingdomain.Departure{
			ID:            id,
			LineID:        line.ID,
			OperatorID:    line.OperatorID,
			DepartureTime: at,
			ArrivalTime:   at.Add(time.Duration(line.AverageDurationMinutes) * time.Minute),
			TotalSeats:    f.Seats,
			Status:        ticketingdomain.DepartureScheduled,
		}
	}

	tickets := []ticketFixture{
		{departureBase + 1, "Alain Mbuyi", "+243811111111", ticketingdomain.ChannelCounter, ticketingdomain.PaymentCash, "GUI-001", ticketingdomain.TicketValid},
		{departureBase + 1, "Alain Mbuyi", "+243811111111", ticketingdomain.ChannelCounter, ticketingdomain.PaymentCash, "GUI-001", ticketingdomain.TicketValid},
		{departureBase + 1, "Sarah Kalonji", "+243822222222", ticketingdomain.ChannelOnline, ticketingdomain.PaymentMobileMoney, "", ticketingdomain.TicketValid},
		{departureBase + 2, "Patrick Mwamba", "+243833333333", ticketingdomain.ChannelOnline, ticketingdomain.PaymentMobileMoney, "", ticketingdomain.TicketUsed},
		{departureBase + 2, "Nadine Kasongo", "+243844444444", ticketingdomain.ChannelOnline, ticketingdomain.PaymentCard, "", ticketingdomain.TicketUsed},
		{departureBase + 3, "Didier Ngoy", "+243855555555", ticketingdomain.ChannelAgent, ticketingdomain.PaymentCash, "AGT-014", ticketingdomain.TicketCancelled},
		{departureBase + 3, "Esther Banza", "+243866666666", ticketingdomain.ChannelOnline, ticketingdomain.PaymentCard, "", ticketingdomain.TicketValid},
	}
	seats := make(map[snowflake.ID]int)
	for i, f := range tickets {
		departure := state.Departures[f.Departure]
		line := state.Lines[departure.LineID]
		operator := state.Operators[departure.OperatorID]
		issued := day.Add(-48 * time.Hour).Add(time.Duration(i) * time.Hour)

		seats[departure.ID]++
		ticket := &ticketingdomain.Ticket{
			ID:          ticketBase + snowflake.ID(i+1),
			Code:        mustTicketCode(state, operator.Prefix, issued),
			DepartureID: departure.ID,
			LineID:      line.ID,
			OperatorID:  operator.ID,
			ClientName:  f.Client,
			ClientPhone: f.Phone,
			SeatNumber:  seats[departure.ID],
			Price:       line.Price,
			Channel:     f.Channel,
			PaymentMode: f.Mode,
			AgentID:     f.AgentID,
			Status:      f.Status,
			IssuedAt:    issued,
		}
		switch f.Status {
		case ticketingdomain.TicketUsed:
			used := departure.DepartureTime.Add(-20 * time.Minute)
			ticket.UsedAt = &used
		case ticketingdomain.TicketCancelled:
			cancelled := issued.Add(3 * time.Hour)
			ticket.CancelledAt = &cancelled
		}
		if f.Status.HoldsSeat() {
			departure.SoldSeats++
		}
		state.Tickets[ticket.ID] = ticket
	}
	return state
}

func mustTicketCode(state *ticketingstore.State, prefix string, at time.Time) string {
	template := prefix + "-{SEQ8}"
	code, err := format.FormatNumber(template, at, state.NextSequence(format.SequenceKey(template, at)))
	if err != nil {
		panic(err)
	}
	return code
}
