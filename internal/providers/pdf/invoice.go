package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoProvider struct {
	issuer Issuer
}

func New(issuer Issuer) *MarotoProvider {
	return &MarotoProvider{issuer: issuer}
}

func (p *MarotoProvider) newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (p *MarotoProvider) header(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(8, p.issuer.Name, props.Text{Size: 14, Style: fontstyle.Bold}),
		text.NewCol(4, title, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(12,
		col.New(8).Add(
			text.New(p.issuer.Address, props.Text{Size: 8}),
			text.New("Tél. "+p.issuer.Phone+"  NIF "+p.issuer.TaxID, props.Text{Size: 8, Top: 4}),
		),
		col.New(4),
	)
}

func (p *MarotoProvider) Invoice(_ context.Context, doc InvoiceDocument) ([]byte, error) {
	m := p.newDocument()
	p.header(m, "FACTURE")

	m.AddRow(24,
		col.New(6).Add(
			text.New("Facture n° "+doc.Number, props.Text{Style: fontstyle.Bold}),
			text.New("Émise le "+doc.IssueDate, props.Text{Top: 5}),
			text.New("Échéance "+doc.DueDate, props.Text{Top: 10}),
			text.New("Période "+doc.Period, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New(doc.ClientName, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New("Client "+doc.ClientNumber, props.Text{Top: 5, Align: align.Right}),
			text.New(doc.ClientAddress, props.Text{Top: 10, Align: align.Right}),
			text.New("Compteur "+doc.MeterNumber, props.Text{Top: 15, Align: align.Right}),
		),
	)

	lineTable(m, doc.Lines)

	totals(m, [][2]string{
		{"Montant HT", doc.NetAmount},
		{doc.TaxLabel, doc.Tax},
		{"Total TTC", doc.Total},
		{"Déjà payé", doc.AmountPaid},
		{"Reste à payer", doc.Balance},
	})
	m.AddRow(10,
		text.NewCol(12, "Statut : "+doc.Status, props.Text{Size: 9, Style: fontstyle.Italic, Top: 4}),
	)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	return out.GetBytes(), nil
}

func lineTable(m core.Maroto, lines []Line) {
	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(8,
		text.NewCol(6, "Désignation", header),
		text.NewCol(2, "Quantité", headerRight),
		text.NewCol(2, "Prix unitaire", headerRight),
		text.NewCol(2, "Montant", headerRight),
	)
	for _, line := range lines {
		m.AddRow(7,
			text.NewCol(6, line.Description, props.Text{Size: 9}),
			text.NewCol(2, line.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func totals(m core.Maroto, rows [][2]string) {
	for i, row := range rows {
		style := props.Text{Size: 9}
		if i == len(rows)-1 {
			style.Style = fontstyle.Bold
		}
		valueStyle := style
		valueStyle.Align = align.Right
		m.AddRow(7,
			col.New(7),
			text.NewCol(3, row[0], style),
			text.NewCol(2, row[1], valueStyle),
		)
	}
}
