package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Invoice bills one validated reading. Status is PAID exactly when the
// balance has reached zero.
type Invoice struct {
	ID           snowflake.ID    `json:"id"`
	Number       string          `json:"number"`
	ClientID     snowflake.ID    `json:"client_id"`
	MeterNumber  string          `json:"meter_number"`
	ReadingID    snowflake.ID    `json:"reading_id"`
	Period       string          `json:"period"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	Consumption  decimal.Decimal `json:"consumption"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Tax          decimal.Decimal `json:"tax"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Balance      decimal.Decimal `json:"balance"`
	Currency     string          `json:"currency"`
	Status       Status          `json:"status"`
	PaymentMode  string          `json:"payment_mode,omitempty"`
	PaymentDate  *time.Time      `json:"payment_date,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason string          `json:"cancel_reason,omitempty"`
}

// EffectiveStatus reports OVERDUE for a pending invoice past its due date.
// The stored status never changes for that reason.
func (i Invoice) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusPending && i.DueDate.Before(now) {
		return StatusOverdue
	}
	return i.Status
}

// AsOf returns a copy carrying the effective status.
func (i Invoice) AsOf(now time.Time) Invoice {
	i.Status = i.EffectiveStatus(now)
	return i
}

// Open reports whether the invoice still accepts payments.
func (i Invoice) Open() bool {
	return i.Status == StatusPending
}

// Amounts is the priced result of a consumption under a tariff.
type Amounts struct {
	Consumption decimal.Decimal
	UnitPrice   decimal.Decimal
	NetAmount   decimal.Decimal
	TaxRate     decimal.Decimal
	Tax         decimal.Decimal
	TotalAmount decimal.Decimal
}

// Price computes net, tax and total. Tax is rounded to two places.
func Price(consumption, unitPrice, taxRate decimal.Decimal) Amounts {
	net := consumption.Mul(unitPrice)
	tax := net.Mul(taxRate).Round(2)
	return Amounts{
		Consumption: consumption,
		UnitPrice:   unitPrice,
		NetAmount:   net,
		TaxRate:     taxRate,
		Tax:         tax,
		TotalAmount: net.Add(tax),
	}
}
