package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type ApplyPaymentRequest struct {
	InvoiceID            string
	Amount               decimal.Decimal
	PaymentMode          string
	Channel              string
	AgentID              string
	TransactionReference string
}

type ListPaymentRequest struct {
	InvoiceID string
	ClientID  string
	AgentID   string
}

type Service interface {
	ApplyPayment(context.Context, ApplyPaymentRequest) (Payment, error)
	GetPayment(ctx context.Context, paymentID string) (Payment, error)
	ListPayments(context.Context, ListPaymentRequest) ([]Payment, error)
	RenderReceiptPDF(ctx context.Context, paymentID string) ([]byte, error)
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrAmountExceedsBalance = errors.New("amount exceeds balance")
	ErrInvalidPaymentMode   = errors.New("invalid_payment_mode")
	ErrInvalidChannel       = errors.New("invalid_channel")
	ErrAgentRequired        = errors.New("agent_required")
	ErrPaymentNotFound      = errors.New("payment_not_found")
)
