package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"github.com/smallbiznis/snelcrm/internal/statestore"
	"github.com/smallbiznis/snelcrm/internal/ticketing/domain"
	"github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"go.uber.org/zap"
)

const ticketCodeSuffix = "-{SEQ8}"

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// CreateTicket checks capacity and takes the seats under the same lock, so
// concurrent sales never oversell a departure.
func (s *Service) CreateTicket(ctx context.Context, req domain.CreateTicketRequest) ([]domain.Ticket, error) {
	departureID, err := parseID(req.DepartureID)
	if err != nil {
		return nil, err
	}
	clientName := strings.TrimSpace(req.ClientName)
	clientPhone := strings.TrimSpace(req.ClientPhone)
	if clientName == "" || clientPhone == "" {
		return nil, domain.ErrInvalidClient
	}
	if req.SeatCount <= 0 {
		return nil, domain.ErrInvalidSeatCount
	}
	channel := domain.Channel(strings.ToUpper(strings.TrimSpace(req.Channel)))
	if !channel.Valid() {
		return nil, domain.ErrInvalidChannel
	}
	mode := domain.PaymentMode(strings.ToUpper(strings.TrimSpace(req.PaymentMode)))
	if !mode.Valid() {
		return nil, domain.ErrInvalidPaymentMode
	}
	agentID := strings.TrimSpace(req.AgentID)
	if channel.RequiresAgent() && agentID == "" {
		return nil, domain.ErrAgentRequired
	}

	var out []domain.Ticket
	err = s.store.Update(ctx, "ticket.create", func(tx *store.Tx) error {
		state := tx.State()
		departure, ok := state.Departures[departureID]
		if !ok {
			return domain.ErrDepartureNotFound
		}
		if departure.Status == domain.DepartureCancelled {
			return domain.ErrDepartureCancelled
		}
		if req.SeatCount > departure.AvailableSeats() {
			return domain.ErrCapacityExceeded
		}
		line, ok := state.Lines[departure.LineID]
		if !ok {
			return domain.ErrLineNotFound
		}
		operator, ok := state.Operators[departure.OperatorID]
		if !ok {
			return domain.ErrOperatorNotFound
		}
		seats := state.FreeSeats(departure, req.SeatCount)
		if len(seats) < req.SeatCount {
			return domain.ErrCapacityExceeded
		}

		now := s.clock.Now().UTC()
		template := operator.Prefix + ticketCodeSuffix
		out = make([]domain.Ticket, 0, req.SeatCount)
		for _, seat := range seats {
			code, err := format.FormatNumber(template, now, state.NextSequence(format.SequenceKey(template, now)))
			if err != nil {
				return err
			}
			ticket := &domain.Ticket{
				ID:          s.genID.Generate(),
				Code:        code,
				DepartureID: departure.ID,
				LineID:      line.ID,
				OperatorID:  operator.ID,
				ClientName:  clientName,
				ClientPhone: clientPhone,
				SeatNumber:  seat,
				Price:       line.Price,
				Channel:     channel,
				PaymentMode: mode,
				AgentID:     agentID,
				Status:      domain.TicketValid,
				IssuedAt:    now,
			}
			state.Tickets[ticket.ID] = ticket
			out = append(out, *ticket)
		}
		departure.SoldSeats += len(out)

		codes := make([]string, 0, len(out))
		for _, t := range out {
			codes = append(codes, t.Code)
		}
		tx.Touch(store.KeyTickets, store.KeyDepartures, store.KeySequences)
		tx.Emit(events.New(events.TicketsIssued, departure.ID.String(), now, map[string]any{
			"codes":      codes,
			"sold_seats": departure.SoldSeats,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTickets("issued", len(out))
	s.log.Info("tickets issued",
		zap.String("departure_id", out[0].DepartureID.String()),
		zap.Int("seat_count", len(out)),
		zap.String("channel", string(channel)),
	)
	return out, nil
}

func (s *Service) ValidateTicket(ctx context.Context, code string) (domain.Ticket, error) {
	return s.transition(ctx, code, "ticket.validate", events.TicketUsed, func(state *store.State, t *domain.Ticket, now time.Time) {
		t.Status = domain.TicketUsed
		t.UsedAt = &now
	})
}

// CancelTicket releases the seat back to the departure.
func (s *Service) CancelTicket(ctx context.Context, code string) (domain.Ticket, error) {
	return s.transition(ctx, code, "ticket.cancel", events.TicketCancelled, func(state *store.State, t *domain.Ticket, now time.Time) {
		t.Status = domain.TicketCancelled
		t.CancelledAt = &now
		if departure, ok := state.Departures[t.DepartureID]; ok {
			departure.SoldSeats = max(departure.SoldSeats-1, 0)
		}
	})
}

func (s *Service) transition(ctx context.Context, code, op, eventType string, apply func(*store.State, *domain.Ticket, time.Time)) (domain.Ticket, error) {
	var out domain.Ticket
	err := s.store.Update(ctx, op, func(tx *store.Tx) error {
		state := tx.State()
		ticket, ok := state.TicketByCode(code)
		if !ok {
			return domain.ErrTicketNotFound
		}
		if ticket.Status != domain.TicketValid {
			return domain.ErrTicketNotValid
		}
		now := s.clock.Now().UTC()
		apply(state, ticket, now)
		tx.Touch(store.KeyTickets, store.KeyDepartures)
		tx.Emit(events.New(eventType, ticket.ID.String(), now, map[string]string{"code": ticket.Code}))
		out = *ticket
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	s.metrics.RecordTickets(strings.ToLower(string(out.Status)), 1)
	s.log.Info("ticket updated", zap.String("code", out.Code), zap.String("status", string(out.Status)))
	return out, nil
}

func (s *Service) GetTicket(_ context.Context, code string) (domain.Ticket, error) {
	var (
		out domain.Ticket
		ok  bool
	)
	s.store.View(func(state *store.State) {
		var ticket *domain.Ticket
		if ticket, ok = state.TicketByCode(code); ok {
			out = *ticket
		}
	})
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return out, nil
}

func (s *Service) ListTickets(_ context.Context, req domain.ListTicketRequest) ([]domain.Ticket, error) {
	departureID, err := optionalID(req.DepartureID)
	if err != nil {
		return nil, err
	}
	status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	var out []domain.Ticket
	s.store.View(func(state *store.State) {
		out = statestore.Sorted(state.Tickets, func(t *domain.Ticket) bool {
			if departureID != 0 && t.DepartureID != departureID {
				return false
			}
			return status == "" || t.Status == status
		})
	})
	return out, nil
}

func (s *Service) Summary(context.Context) (domain.Summary, error) {
	summary := domain.Summary{Revenue: decimal.Zero}
	s.store.View(func(state *store.State) {
		for _, t := range state.Tickets {
			summary.TicketsIssued++
			switch t.Status {
			case domain.TicketValid:
				summary.TicketsValid++
			case domain.TicketUsed:
				summary.TicketsUsed++
			case domain.TicketCancelled:
				summary.TicketsCancelled++
			}
			if t.Status.HoldsSeat() {
				summary.Revenue = summary.Revenue.Add(t.Price)
			}
		}
		for _, d := range state.Departures {
			if d.Status == domain.DepartureCancelled {
				continue
			}
			summary.Departures++
			summary.SeatsOffered += d.TotalSeats
			summary.SeatsSold += d.SoldSeats
		}
	})
	if summary.SeatsOffered > 0 {
		rate := float64(summary.SeatsSold) * 100 / float64(summary.SeatsOffered)
		summary.Occupancy, _ = strconv.ParseFloat(strconv.FormatFloat(rate, 'f', 2, 64), 64)
	}
	return summary, nil
}
