// Package store owns the ticketing collections: operators, lines,
// departures and tickets.
package store

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/snelcrm/internal/ticketing/domain"
)

const (
	KeyOperators  = "ticketing.operators"
	KeyLines      = "ticketing.lines"
	KeyDepartures = "ticketing.departures"
	KeyTickets    = "ticketing.tickets"
	KeySequences  = "ticketing.sequences"
)

type State struct {
	Operators  map[snowflake.ID]*domain.Operator
	Lines      map[snowflake.ID]*domain.Line
	Departures map[snowflake.ID]*domain.Departure
	Tickets    map[snowflake.ID]*domain.Ticket
	Sequences  map[string]int64
}

func NewState() *State {
	s := &State{}
	s.normalize()
	return s
}

func Collections(s *State) map[string]any {
	return map[string]any{
		KeyOperators:  &s.Operators,
		KeyLines:      &s.Lines,
		KeyDepartures: &s.Departures,
		KeyTickets:    &s.Tickets,
		KeySequences:  &s.Sequences,
	}
}

func (s *State) normalize() {
	if s.Operators == nil {
		s.Operators = make(map[snowflake.ID]*domain.Operator)
	}
	if s.Lines == nil {
		s.Lines = make(map[snowflake.ID]*domain.Line)
	}
	if s.Departures == nil {
		s.Departures = make(map[snowflake.ID]*domain.Departure)
	}
	if s.Tickets == nil {
		s.Tickets = make(map[snowflake.ID]*domain.Ticket)
	}
	if s.Sequences == nil {
		s.Sequences = make(map[string]int64)
	}
}

func (s *State) NextSequence(name string) int64 {
	s.Sequences[name]++
	return s.Sequences[name]
}

func (s *State) OperatorByPrefix(prefix string) (*domain.Operator, bool) {
	for _, o := range s.Operators {
		if strings.EqualFold(o.Prefix, prefix) {
			return o, true
		}
	}
	return nil, false
}

func (s *State) TicketByCode(code string) (*domain.Ticket, bool) {
	code = strings.TrimSpace(code)
	for _, t := range s.Tickets {
		if strings.EqualFold(t.Code, code) {
			return t, true
		}
	}
	return nil, false
}

// FreeSeats returns the n lowest seat numbers of departure that no valid
// or used ticket holds.
func (s *State) FreeSeats(departure *domain.Departure, n int) []int {
	taken := make(map[int]struct{})
	for _, t := range s.Tickets {
		if t.DepartureID == departure.ID && t.Status.HoldsSeat() {
			taken[t.SeatNumber] = struct{}{}
		}
	}
	seats := make([]int, 0, n)
	for seat := 1; seat <= departure.TotalSeats && len(seats) < n; seat++ {
		if _, ok := taken[seat]; !ok {
			seats = append(seats, seat)
		}
	}
	return seats
}
