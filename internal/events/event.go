package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	ReadingEntered    = "reading.entered"
	ReadingValidated  = "reading.validated"
	ReadingRejected   = "reading.rejected"
	InvoiceGenerated  = "invoice.generated"
	InvoiceCancelled  = "invoice.cancelled"
	InvoicePaid       = "invoice.paid"
	PaymentApplied    = "payment.applied"
	ClientRegistered  = "client.registered"
	ClientDeactivated = "client.deactivated"
	ComplaintCreated  = "complaint.created"
	ComplaintUpdated  = "complaint.updated"
	ReviewCreated     = "review.created"
	TicketsIssued     = "tickets.issued"
	TicketUsed        = "ticket.used"
	TicketCancelled   = "ticket.cancelled"
	DepartureCreated  = "departure.created"
)

// Event is a fact about a committed mutation. Subject is the aggregate id and
// doubles as the partition key.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(eventType, subject string, occurredAt time.Time, data any) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		Subject:    subject,
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	}
}

// Publisher delivers events. Implementations must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
