package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type RegisterClientRequest struct {
	Name             string
	Phone            string
	Email            string
	Address          string
	Zone             string
	SubscriptionType string
	MeterNumber      string
	MeterType        string
	Power            decimal.Decimal
}

type Registration struct {
	Client Client `json:"client"`
	Meter  Meter  `json:"meter"`
}

type ListClientRequest struct {
	Zone             string
	SubscriptionType string
	Active           *bool
}

type ListMeterRequest struct {
	Active *bool
}

type Service interface {
	RegisterClient(context.Context, RegisterClientRequest) (Registration, error)
	DeactivateClient(ctx context.Context, clientID string) (Client, error)
	GetClient(ctx context.Context, clientID string) (Client, error)
	GetClientByMeterNumber(ctx context.Context, meterNumber string) (Client, error)
	ListClients(context.Context, ListClientRequest) ([]Client, error)
	GetMeter(ctx context.Context, meterID string) (Meter, error)
	ListMeters(context.Context, ListMeterRequest) ([]Meter, error)
	ListZones(context.Context) ([]Zone, error)
}

var (
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidName             = errors.New("invalid_name")
	ErrInvalidPhone            = errors.New("invalid_phone")
	ErrInvalidEmail            = errors.New("invalid_email")
	ErrInvalidAddress          = errors.New("invalid_address")
	ErrInvalidSubscriptionType = errors.New("invalid_subscription_type")
	ErrInvalidMeterNumber      = errors.New("invalid_meter_number")
	ErrInvalidMeterType        = errors.New("invalid_meter_type")
	ErrInvalidPower            = errors.New("invalid_power")
	ErrZoneNotFound            = errors.New("zone_not_found")
	ErrDuplicateMeterNumber    = errors.New("duplicate_meter_number")
	ErrClientNotFound          = errors.New("client_not_found")
	ErrClientInactive          = errors.New("client_inactive")
	ErrMeterNotFound           = errors.New("meter_not_found")
	ErrMeterInactive           = errors.New("meter_inactive")
)
