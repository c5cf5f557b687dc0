package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusEntered   Status = "ENTERED"
	StatusValidated Status = "VALIDATED"
	StatusRejected  Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusEntered, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// Reading is an index captured by a field agent. It moves from ENTERED to
// VALIDATED or REJECTED exactly once.
type Reading struct {
	ID            snowflake.ID    `json:"id"`
	Number        string          `json:"number"`
	MeterID       snowflake.ID    `json:"meter_id"`
	MeterNumber   string          `json:"meter_number"`
	ClientID      snowflake.ID    `json:"client_id"`
	AgentID       string          `json:"agent_id"`
	AgentName     string          `json:"agent_name"`
	PreviousIndex decimal.Decimal `json:"previous_index"`
	NewIndex      decimal.Decimal `json:"new_index"`
	Consumption   decimal.Decimal `json:"consumption"`
	ReadingDate   time.Time       `json:"reading_date"`
	EntryDate     time.Time       `json:"entry_date"`
	Notes         string          `json:"notes,omitempty"`
	Status        Status          `json:"status"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
}
