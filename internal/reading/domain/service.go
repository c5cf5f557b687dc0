package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CreateReadingRequest struct {
	MeterID       string
	MeterNumber   string
	AgentID       string
	AgentName     string
	PreviousIndex decimal.Decimal
	NewIndex      decimal.Decimal
	ReadingDate   time.Time
	Notes         string
}

type ListReadingRequest struct {
	MeterNumber string
	AgentID     string
	Status      string
}

type Service interface {
	CreateReading(context.Context, CreateReadingRequest) (Reading, error)
	ValidateReading(ctx context.Context, readingID string) (Reading, error)
	RejectReading(ctx context.Context, readingID string) (Reading, error)
	GetReading(ctx context.Context, readingID string) (Reading, error)
	ListReadings(context.Context, ListReadingRequest) ([]Reading, error)
	// LastIndex is the new index of the latest validated reading, zero when
	// the meter has none.
	LastIndex(ctx context.Context, meterNumber string) (decimal.Decimal, error)
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidIndex          = errors.New("invalid_index")
	ErrIndexBelowPrevious    = errors.New("new index below previous index")
	ErrInvalidAgent          = errors.New("invalid_agent")
	ErrInvalidReadingDate    = errors.New("invalid_reading_date")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrMeterMismatch         = errors.New("meter_mismatch")
	ErrReadingNotFound       = errors.New("reading_not_found")
	ErrReadingAlreadyDecided = errors.New("reading_already_decided")
)
