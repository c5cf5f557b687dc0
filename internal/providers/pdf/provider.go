package pdf

import (
	"context"

	"go.uber.org/fx"
)

// Issuer identifies the utility printed on every document.
type Issuer struct {
	Name    string
	Address string
	Phone   string
	TaxID   string
}

func DefaultIssuer() Issuer {
	return Issuer{
		Name:    "Société Nationale d'Électricité",
		Address: "2831 Av. de la Justice, Kinshasa-Gombe",
		Phone:   "+243 81 555 0000",
		TaxID:   "A0700019Y",
	}
}

// Line is one priced row of a document.
type Line struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

type InvoiceDocument struct {
	Number        string
	IssueDate     string
	DueDate       string
	Period        string
	Status        string
	ClientName    string
	ClientNumber  string
	ClientAddress string
	MeterNumber   string
	Lines         []Line
	NetAmount     string
	TaxLabel      string
	Tax           string
	Total         string
	AmountPaid    string
	Balance       string
}

type ReceiptDocument struct {
	Number        string
	PaidAt        string
	InvoiceNumber string
	ClientName    string
	ClientNumber  string
	MeterNumber   string
	Amount        string
	PaymentMode   string
	Channel       string
	Reference     string
	BalanceAfter  string
}

type Provider interface {
	Invoice(ctx context.Context, doc InvoiceDocument) ([]byte, error)
	Receipt(ctx context.Context, doc ReceiptDocument) ([]byte, error)
}

var Module = fx.Module("pdf",
	fx.Provide(func() Provider { return New(DefaultIssuer()) }),
)
