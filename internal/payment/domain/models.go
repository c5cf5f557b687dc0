package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Mode string

const (
	ModeCash        Mode = "CASH"
	ModeMobileMoney Mode = "MOBILE_MONEY"
	ModeCard        Mode = "CARD"
	ModeTransfer    Mode = "TRANSFER"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeCash, ModeMobileMoney, ModeCard, ModeTransfer:
		return true
	}
	return false
}

type Channel string

const (
	ChannelSelfService Channel = "SELF_SERVICE"
	ChannelCounter     Channel = "COUNTER"
	ChannelAgent       Channel = "AGENT"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSelfService, ChannelCounter, ChannelAgent:
		return true
	}
	return false
}

// RequiresAgent reports whether a payment on this channel is collected by
// staff who must be identified.
func (c Channel) RequiresAgent() bool {
	return c == ChannelCounter || c == ChannelAgent
}

const StatusValid = "VALID"

// Payment is immutable once applied.
type Payment struct {
	ID                   snowflake.ID    `json:"id"`
	Number               string          `json:"number"`
	InvoiceID            snowflake.ID    `json:"invoice_id"`
	InvoiceNumber        string          `json:"invoice_number"`
	ClientID             snowflake.ID    `json:"client_id"`
	Amount               decimal.Decimal `json:"amount"`
	PaymentMode          Mode            `json:"payment_mode"`
	Channel              Channel         `json:"channel"`
	AgentID              string          `json:"agent_id,omitempty"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	Status               string          `json:"status"`
	PaidAt               time.Time       `json:"paid_at"`
}
