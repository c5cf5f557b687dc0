package domain

import (
	"context"
	"errors"
)

type GenerateInvoiceRequest struct {
	ReadingID string
	Period    string
}

type CancelInvoiceRequest struct {
	InvoiceID string
	Reason    string
}

type ListInvoiceRequest struct {
	ClientID    string
	MeterNumber string
	Status      string
}

type Service interface {
	// GenerateInvoice is idempotent per reading: a second call returns the
	// invoice created by the first.
	GenerateInvoice(context.Context, GenerateInvoiceRequest) (Invoice, error)
	CancelInvoice(context.Context, CancelInvoiceRequest) (Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (Invoice, error)
	ListInvoices(context.Context, ListInvoiceRequest) ([]Invoice, error)
	RenderInvoicePDF(ctx context.Context, invoiceID string) ([]byte, error)
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidReason        = errors.New("invalid_reason")
	ErrReadingNotValidated  = errors.New("reading_not_validated")
	ErrTariffNotFound       = errors.New("tariff_not_found")
	ErrInvoiceNotFound      = errors.New("invoice_not_found")
	ErrInvoiceAlreadyPaid   = errors.New("invoice_already_paid")
	ErrInvoiceCancelled     = errors.New("invoice_cancelled")
	ErrInvoicePartiallyPaid = errors.New("invoice_partially_paid")
)
