package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func (p *MarotoProvider) Receipt(_ context.Context, doc ReceiptDocument) ([]byte, error) {
	m := p.newDocument()
	p.header(m, "REÇU")

	m.AddRow(20,
		col.New(6).Add(
			text.New("Reçu n° "+doc.Number, props.Text{Style: fontstyle.Bold}),
			text.New("Payé le "+doc.PaidAt, props.Text{Top: 5}),
			text.New("Facture "+doc.InvoiceNumber, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New(doc.ClientName, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New("Client "+doc.ClientNumber, props.Text{Top: 5, Align: align.Right}),
			text.New("Compteur "+doc.MeterNumber, props.Text{Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(14,
		text.NewCol(12, doc.Amount+" reçu", props.Text{Size: 14, Style: fontstyle.Bold, Top: 4}),
	)

	rows := [][2]string{
		{"Mode de paiement", doc.PaymentMode},
		{"Canal", doc.Channel},
	}
	if doc.Reference != "" {
		rows = append(rows, [2]string{"Référence", doc.Reference})
	}
	rows = append(rows, [2]string{"Reste à payer", doc.BalanceAfter})
	totals(m, rows)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", doc.Number, err)
	}
	return out.GetBytes(), nil
}
