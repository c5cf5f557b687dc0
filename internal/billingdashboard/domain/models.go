package domain

import (
	"time"

	"github.com/shopspring/decimal"
	feedbackdomain "github.com/smallbiznis/snelcrm/internal/feedback/domain"
)

// StatusTotals counts invoices in one effective status.
type StatusTotals struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// BillingSummary is the administrative overview as of a point in time.
// Cancelled invoices count in ByStatus only.
type BillingSummary struct {
	AsOf            time.Time                    `json:"as_of"`
	Currency        string                       `json:"currency"`
	ByStatus        map[string]StatusTotals      `json:"by_status"`
	TotalInvoiced   decimal.Decimal              `json:"total_invoiced"`
	Collected       decimal.Decimal              `json:"collected"`
	Outstanding     decimal.Decimal              `json:"outstanding"`
	CollectionRate  float64                      `json:"collection_rate"`
	ActiveClients   int                          `json:"active_clients"`
	ReadingsPending int                          `json:"readings_pending"`
	OpenComplaints  int                          `json:"open_complaints"`
	Rating          feedbackdomain.RatingSummary `json:"rating"`
}

type AgentActivity struct {
	AgentID           string          `json:"agent_id"`
	AgentName         string          `json:"agent_name,omitempty"`
	ReadingsEntered   int             `json:"readings_entered"`
	ReadingsValidated int             `json:"readings_validated"`
	ReadingsRejected  int             `json:"readings_rejected"`
	ReadingsPending   int             `json:"readings_pending"`
	PaymentsCollected int             `json:"payments_collected"`
	AmountCollected   decimal.Decimal `json:"amount_collected"`
}

// ClientBalance is what a client still owes across open invoices.
type ClientBalance struct {
	ClientID          string          `json:"client_id"`
	Number            string          `json:"number"`
	Name              string          `json:"name"`
	MeterNumber       string          `json:"meter_number"`
	Balance           decimal.Decimal `json:"balance"`
	Currency          string          `json:"currency"`
	OpenInvoices      int             `json:"open_invoices"`
	LastInvoiceNumber string          `json:"last_invoice_number,omitempty"`
	PaymentStatus     string          `json:"payment_status"`
}

type ClientBalancesResponse struct {
	Clients []ClientBalance `json:"clients"`
}

// PeriodSummary aggregates the invoices billed for one consumption period.
type PeriodSummary struct {
	Period       string          `json:"period"`
	InvoiceCount int             `json:"invoice_count"`
	Invoiced     decimal.Decimal `json:"invoiced"`
	Collected    decimal.Decimal `json:"collected"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

type PeriodSummaryResponse struct {
	Periods []PeriodSummary `json:"periods"`
}

// BillingActivity represents a human-readable billing event.
type BillingActivity struct {
	Action     string    `json:"action"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ActivityGroup struct {
	Title      string            `json:"title"`
	Activities []BillingActivity `json:"activities"`
}

type BillingActivityResponse struct {
	Activity []ActivityGroup `json:"activity"`
}
