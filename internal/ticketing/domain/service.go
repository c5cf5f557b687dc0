package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CreateOperatorRequest struct {
	Name          string
	Prefix        string
	TransportType string
}

type CreateLineRequest struct {
	OperatorID             string
	Origin                 string
	Destination            string
	Price                  decimal.Decimal
	AverageDurationMinutes int
}

type CreateDepartureRequest struct {
	LineID        string
	DepartureTime time.Time
	TotalSeats    int
}

type CreateTicketRequest struct {
	ClientName  string
	ClientPhone string
	DepartureID string
	SeatCount   int
	Channel     string
	PaymentMode string
	AgentID     string
}

type ListTicketRequest struct {
	DepartureID string
	Status      string
}

type Service interface {
	CreateOperator(context.Context, CreateOperatorRequest) (Operator, error)
	ListOperators(context.Context) ([]Operator, error)
	CreateLine(context.Context, CreateLineRequest) (Line, error)
	ListLines(ctx context.Context, operatorID string) ([]Line, error)
	CreateDeparture(context.Context, CreateDepartureRequest) (Departure, error)
	CancelDeparture(ctx context.Context, departureID string) (Departure, error)
	GetDeparture(ctx context.Context, departureID string) (Departure, error)
	ListDepartures(ctx context.Context, lineID string) ([]Departure, error)

	// CreateTicket sells SeatCount seats on one departure, all or none.
	CreateTicket(context.Context, CreateTicketRequest) ([]Ticket, error)
	ValidateTicket(ctx context.Context, code string) (Ticket, error)
	CancelTicket(ctx context.Context, code string) (Ticket, error)
	GetTicket(ctx context.Context, code string) (Ticket, error)
	ListTickets(context.Context, ListTicketRequest) ([]Ticket, error)
	Summary(context.Context) (Summary, error)
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidPrefix        = errors.New("invalid_prefix")
	ErrInvalidTransportType = errors.New("invalid_transport_type")
	ErrInvalidRoute         = errors.New("invalid_route")
	ErrInvalidPrice         = errors.New("invalid_price")
	ErrInvalidDuration      = errors.New("invalid_duration")
	ErrInvalidDepartureTime = errors.New("invalid_departure_time")
	ErrInvalidSeats         = errors.New("invalid_seats")
	ErrInvalidSeatCount     = errors.New("invalid_seat_count")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidChannel       = errors.New("invalid_channel")
	ErrInvalidPaymentMode   = errors.New("invalid_payment_mode")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrAgentRequired        = errors.New("agent_required")
	ErrDuplicatePrefix      = errors.New("duplicate_prefix")
	ErrOperatorNotFound     = errors.New("operator_not_found")
	ErrOperatorInactive     = errors.New("operator_inactive")
	ErrLineNotFound         = errors.New("line_not_found")
	ErrLineInactive         = errors.New("line_inactive")
	ErrDepartureNotFound    = errors.New("departure_not_found")
	ErrDepartureCancelled   = errors.New("departure_cancelled")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrTicketNotFound       = errors.New("ticket_not_found")
	ErrTicketNotValid       = errors.New("ticket_not_valid")
)
