package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type TransportType string

const (
	TransportBus   TransportType = "BUS"
	TransportTrain TransportType = "TRAIN"
	TransportBoat  TransportType = "BOAT"
	TransportPlane TransportType = "PLANE"
)

func (t TransportType) Valid() bool {
	switch t {
	case TransportBus, TransportTrain, TransportBoat, TransportPlane:
		return true
	}
	return false
}

type Operator struct {
	ID            snowflake.ID  `json:"id"`
	Name          string        `json:"name"`
	Prefix        string        `json:"prefix"`
	TransportType TransportType `json:"transport_type"`
	Active        bool          `json:"active"`
	CreatedAt     time.Time     `json:"created_at"`
}

type Line struct {
	ID                     snowflake.ID    `json:"id"`
	OperatorID             snowflake.ID    `json:"operator_id"`
	Origin                 string          `json:"origin"`
	Destination            string          `json:"destination"`
	Price                  decimal.Decimal `json:"price"`
	AverageDurationMinutes int             `json:"average_duration_minutes"`
	Active                 bool            `json:"active"`
}

type DepartureStatus string

const (
	DepartureScheduled DepartureStatus = "SCHEDULED"
	DepartureCancelled DepartureStatus = "CANCELLED"
)

// Departure holds the seat inventory of one trip. SoldSeats counts the
// tickets that are not cancelled and never exceeds TotalSeats.
type Departure struct {
	ID            snowflake.ID    `json:"id"`
	LineID        snowflake.ID    `json:"line_id"`
	OperatorID    snowflake.ID    `json:"operator_id"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	TotalSeats    int             `json:"total_seats"`
	SoldSeats     int             `json:"sold_seats"`
	Status        DepartureStatus `json:"status"`
}

func (d Departure) AvailableSeats() int {
	if d.Status == DepartureCancelled {
		return 0
	}
	return d.TotalSeats - d.SoldSeats
}

type Channel string

const (
	ChannelOnline  Channel = "ONLINE"
	ChannelCounter Channel = "COUNTER"
	ChannelAgent   Channel = "AGENT"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelOnline, ChannelCounter, ChannelAgent:
		return true
	}
	return false
}

func (c Channel) RequiresAgent() bool {
	return c == ChannelCounter || c == ChannelAgent
}

type PaymentMode string

const (
	PaymentCash        PaymentMode = "CASH"
	PaymentMobileMoney PaymentMode = "MOBILE_MONEY"
	PaymentCard        PaymentMode = "CARD"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentMobileMoney, PaymentCard:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketValid     TicketStatus = "VALID"
	TicketUsed      TicketStatus = "USED"
	TicketCancelled TicketStatus = "CANCELLED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketValid, TicketUsed, TicketCancelled:
		return true
	}
	return false
}

// HoldsSeat reports whether the ticket still occupies its seat.
func (s TicketStatus) HoldsSeat() bool {
	return s == TicketValid || s == TicketUsed
}

type Ticket struct {
	ID          snowflake.ID    `json:"id"`
	Code        string          `json:"code"`
	DepartureID snowflake.ID    `json:"departure_id"`
	LineID      snowflake.ID    `json:"line_id"`
	OperatorID  snowflake.ID    `json:"operator_id"`
	ClientName  string          `json:"client_name"`
	ClientPhone string          `json:"client_phone"`
	SeatNumber  int             `json:"seat_number"`
	Price       decimal.Decimal `json:"price"`
	Channel     Channel         `json:"channel"`
	PaymentMode PaymentMode     `json:"payment_mode"`
	AgentID     string          `json:"agent_id,omitempty"`
	Status      TicketStatus    `json:"status"`
	IssuedAt    time.Time       `json:"issued_at"`
	UsedAt      *time.Time      `json:"used_at,omitempty"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
}

// Summary is the ticketing dashboard. Occupancy is a percentage over
// scheduled departures.
type Summary struct {
	TicketsIssued    int             `json:"tickets_issued"`
	TicketsValid     int             `json:"tickets_valid"`
	TicketsUsed      int             `json:"tickets_used"`
	TicketsCancelled int             `json:"tickets_cancelled"`
	Revenue          decimal.Decimal `json:"revenue"`
	Departures       int             `json:"departures"`
	SeatsOffered     int             `json:"seats_offered"`
	SeatsSold        int             `json:"seats_sold"`
	Occupancy        float64         `json:"occupancy"`
}
