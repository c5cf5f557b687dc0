package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type SubscriptionType string

const (
	SubscriptionDomestic   SubscriptionType = "DOMESTIC"
	SubscriptionCommercial SubscriptionType = "COMMERCIAL"
	SubscriptionIndustrial SubscriptionType = "INDUSTRIAL"
)

func (t SubscriptionType) Valid() bool {
	switch t {
	case SubscriptionDomestic, SubscriptionCommercial, SubscriptionIndustrial:
		return true
	}
	return false
}

type MeterType string

const (
	MeterSinglePhase MeterType = "SINGLE_PHASE"
	MeterThreePhase  MeterType = "THREE_PHASE"
)

func (t MeterType) Valid() bool {
	return t == MeterSinglePhase || t == MeterThreePhase
}

// Client is a subscriber. Clients are never deleted, only deactivated.
type Client struct {
	ID               snowflake.ID     `json:"id"`
	Number           string           `json:"number"`
	Name             string           `json:"name"`
	Phone            string           `json:"phone"`
	Email            string           `json:"email,omitempty"`
	Address          string           `json:"address"`
	Zone             string           `json:"zone"`
	MeterNumber      string           `json:"meter_number"`
	SubscriptionType SubscriptionType `json:"subscription_type"`
	Active           bool             `json:"active"`
	CreatedAt        time.Time        `json:"created_at"`
	DeactivatedAt    *time.Time       `json:"deactivated_at,omitempty"`
}

type Meter struct {
	ID          snowflake.ID    `json:"id"`
	Number      string          `json:"number"`
	ClientID    snowflake.ID    `json:"client_id"`
	MeterType   MeterType       `json:"meter_type"`
	Power       decimal.Decimal `json:"power"`
	Active      bool            `json:"active"`
	InstalledAt time.Time       `json:"installed_at"`
}

type Zone struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Commune string `json:"commune"`
}
