package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ComplaintType string

const (
	ComplaintOutage  ComplaintType = "OUTAGE"
	ComplaintBilling ComplaintType = "BILLING"
	ComplaintService ComplaintType = "SERVICE"
	ComplaintOther   ComplaintType = "OTHER"
)

func (t ComplaintType) Valid() bool {
	switch t {
	case ComplaintOutage, ComplaintBilling, ComplaintService, ComplaintOther:
		return true
	}
	return false
}

type ComplaintStatus string

const (
	ComplaintNew        ComplaintStatus = "NEW"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
	ComplaintClosed     ComplaintStatus = "CLOSED"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintNew, ComplaintInProgress, ComplaintResolved, ComplaintClosed:
		return true
	}
	return false
}

// Open reports whether the complaint still awaits a resolution.
func (s ComplaintStatus) Open() bool {
	return s == ComplaintNew || s == ComplaintInProgress
}

type Complaint struct {
	ID             snowflake.ID    `json:"id"`
	Number         string          `json:"number"`
	ClientID       snowflake.ID    `json:"client_id"`
	MeterNumber    string          `json:"meter_number"`
	InvoiceID      *snowflake.ID   `json:"invoice_id,omitempty"`
	Type           ComplaintType   `json:"type"`
	Subject        string          `json:"subject"`
	Description    string          `json:"description"`
	Status         ComplaintStatus `json:"status"`
	AssignedTo     string          `json:"assigned_to,omitempty"`
	Response       string          `json:"response,omitempty"`
	ResolvedBy     string          `json:"resolved_by,omitempty"`
	ResolutionDate *time.Time      `json:"resolution_date,omitempty"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ReviewCategory string

const (
	ReviewService ReviewCategory = "SERVICE"
	ReviewBilling ReviewCategory = "BILLING"
	ReviewAgent   ReviewCategory = "AGENT"
	ReviewGeneral ReviewCategory = "GENERAL"
)

func (c ReviewCategory) Valid() bool {
	switch c {
	case ReviewService, ReviewBilling, ReviewAgent, ReviewGeneral:
		return true
	}
	return false
}

const (
	MinRating = 1
	MaxRating = 5
)

// Review is immutable.
type Review struct {
	ID          snowflake.ID   `json:"id"`
	ClientID    snowflake.ID   `json:"client_id"`
	MeterNumber string         `json:"meter_number"`
	Rating      int            `json:"rating"`
	Comment     string         `json:"comment,omitempty"`
	Category    ReviewCategory `json:"category"`
	CreatedAt   time.Time      `json:"created_at"`
}
