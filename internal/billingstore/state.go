// Package billingstore owns the billing collections: clients, meters,
// zones, readings, invoices, payments, complaints and reviews.
package billingstore

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	feedbackdomain "github.com/smallbiznis/snelcrm/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/snelcrm/internal/payment/domain"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
	"github.com/smallbiznis/snelcrm/internal/statestore"
)

const (
	KeyClients    = "snel.clients"
	KeyMeters     = "snel.meters"
	KeyZones      = "snel.zones"
	KeyReadings   = "snel.readings"
	KeyInvoices   = "snel.invoices"
	KeyPayments   = "snel.payments"
	KeyComplaints = "snel.complaints"
	KeyReviews    = "snel.reviews"
	KeySequences  = "snel.sequences"
)

type State struct {
	Clients    map[snowflake.ID]*customerdomain.Client
	Meters     map[snowflake.ID]*customerdomain.Meter
	Zones      []customerdomain.Zone
	Readings   map[snowflake.ID]*readingdomain.Reading
	Invoices   map[snowflake.ID]*invoicedomain.Invoice
	Payments   map[snowflake.ID]*paymentdomain.Payment
	Complaints map[snowflake.ID]*feedbackdomain.Complaint
	Reviews    map[snowflake.ID]*feedbackdomain.Review
	Sequences  map[string]int64
}

func NewState() *State {
	s := &State{}
	s.normalize()
	return s
}

// Collections binds each snapshot key to its collection.
func Collections(s *State) map[string]any {
	return map[string]any{
		KeyClients:    &s.Clients,
		KeyMeters:     &s.Meters,
		KeyZones:      &s.Zones,
		KeyReadings:   &s.Readings,
		KeyInvoices:   &s.Invoices,
		KeyPayments:   &s.Payments,
		KeyComplaints: &s.Complaints,
		KeyReviews:    &s.Reviews,
		KeySequences:  &s.Sequences,
	}
}

func (s *State) normalize() {
	if s.Clients == nil {
		s.Clients = make(map[snowflake.ID]*customerdomain.Client)
	}
	if s.Meters == nil {
		s.Meters = make(map[snowflake.ID]*customerdomain.Meter)
	}
	if s.Zones == nil {
		s.Zones = []customerdomain.Zone{}
	}
	if s.Readings == nil {
		s.Readings = make(map[snowflake.ID]*readingdomain.Reading)
	}
	if s.Invoices == nil {
		s.Invoices = make(map[snowflake.ID]*invoicedomain.Invoice)
	}
	if s.Payments == nil {
		s.Payments = make(map[snowflake.ID]*paymentdomain.Payment)
	}
	if s.Complaints == nil {
		s.Complaints = make(map[snowflake.ID]*feedbackdomain.Complaint)
	}
	if s.Reviews == nil {
		s.Reviews = make(map[snowflake.ID]*feedbackdomain.Review)
	}
	if s.Sequences == nil {
		s.Sequences = make(map[string]int64)
	}
}

// NextSequence increments and returns the named counter. Callers must
// touch KeySequences.
func (s *State) NextSequence(name string) int64 {
	s.Sequences[name]++
	return s.Sequences[name]
}

func (s *State) MeterByNumber(number string) (*customerdomain.Meter, bool) {
	number = strings.TrimSpace(number)
	for _, m := range s.Meters {
		if strings.EqualFold(m.Number, number) {
			return m, true
		}
	}
	return nil, false
}

func (s *State) ClientByMeterNumber(number string) (*customerdomain.Client, bool) {
	number = strings.TrimSpace(number)
	for _, c := range s.Clients {
		if strings.EqualFold(c.MeterNumber, number) {
			return c, true
		}
	}
	return nil, false
}

func (s *State) Zone(code string) (customerdomain.Zone, bool) {
	for _, z := range s.Zones {
		if strings.EqualFold(z.Code, code) {
			return z, true
		}
	}
	return customerdomain.Zone{}, false
}

// InvoiceForReading returns the invoice generated from readingID, if any.
func (s *State) InvoiceForReading(readingID snowflake.ID) (*invoicedomain.Invoice, bool) {
	for _, inv := range s.Invoices {
		if inv.ReadingID == readingID {
			return inv, true
		}
	}
	return nil, false
}

func (s *State) InvoiceByNumber(number string) (*invoicedomain.Invoice, bool) {
	number = strings.TrimSpace(number)
	for _, inv := range s.Invoices {
		if strings.EqualFold(inv.Number, number) {
			return inv, true
		}
	}
	return nil, false
}

// Sorted copies the values of m ordered by id, which for snowflake ids is
// creation order.
func Sorted[V any](m map[snowflake.ID]*V, keep func(*V) bool) []V {
	return statestore.Sorted(m, keep)
}
