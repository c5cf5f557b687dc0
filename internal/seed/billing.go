package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/config"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	feedbackdomain "github.com/smallbiznis/snelcrm/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	paymentdomain "github.com/smallbiznis/snelcrm/internal/payment/domain"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
)

// Fixture ids sit far below any generated snowflake id so seeded records
// always list first.
const (
	clientBase    snowflake.ID = 1_000
	meterBase     snowflake.ID = 2_000
	readingBase   snowflake.ID = 3_000
	invoiceBase   snowflake.ID = 4_000
	paymentBase   snowflake.ID = 5_000
	complaintBase snowflake.ID = 6_000
	reviewBase    snowflake.ID = 7_000
)

type communeFixture struct {
	Name    string
	Commune string
}

var communes = []communeFixture{
	{Name: "Gombe Centre", Commune: "Gombe"},
	{Name: "Limete Industriel", Commune: "Limete"},
	{Name: "Kintambo Magasin", Commune: "Kintambo"},
	{Name: "Ngaliema Binza", Commune: "Ngaliema"},
	{Name: "Lemba Salongo", Commune: "Lemba"},
	{Name: "Masina Petro-Congo", Commune: "Masina"},
	{Name: "Bandalungwa Lingwala", Commune: "Bandalungwa"},
	{Name: "Kalamu Matonge", Commune: "Kalamu"},
}

type clientFixture struct {
	Name         string
	Phone        string
	Email        string
	Address      string
	Commune      string
	Subscription customerdomain.SubscriptionType
	MeterType    customerdomain.MeterType
	Power        int64
	// indexes of the last two monthly readings
	Previous, Current int64
}

var clients = []clientFixture{
	{"Jean Mukendi", "+243810000001", "jean.mukendi@example.cd", "12 Av. de la Justice", "Gombe", customerdomain.SubscriptionDomestic, customerdomain.MeterSinglePhase, 6, 1200, 1350},
	{"Grace Kabila Traders", "+243820000002", "contact@gkt.example.cd", "45 Bd. Lumumba", "Limete", customerdomain.SubscriptionCommercial, customerdomain.MeterThreePhase, 25, 3500, 3800},
	{"Marie Tshisekedi", "+243830000003", "", "7 Av. Kasa-Vubu", "Kalamu", customerdomain.SubscriptionDomestic, customerdomain.MeterSinglePhase, 4, 800, 950},
	{"Cimenterie du Fleuve", "+243840000004", "factures@cdf.example.cd", "Zone Industrielle", "Limete", customerdomain.SubscriptionIndustrial, customerdomain.MeterThreePhase, 250, 50200, 58400},
	{"Paul Ilunga", "+243850000005", "paul.ilunga@example.cd", "3 Av. Binza UPN", "Ngaliema", customerdomain.SubscriptionDomestic, customerdomain.MeterSinglePhase, 6, 2400, 2577},
	{"Boulangerie Matonge", "+243860000006", "", "18 Av. Victoire", "Kalamu", customerdomain.SubscriptionCommercial, customerdomain.MeterThreePhase, 15, 9100, 9321},
}

// ZoneCode derives the stable zone code for a named area.
func ZoneCode(name string) string {
	return strings.ToUpper(slug.Make("kin " + name))
}

// Billing returns deterministic fixtures anchored on now: one validated and
// invoiced reading per client for the previous month, a mix of paid, partly
// paid and open invoices, and a handful of complaints and reviews.
func Billing(now time.Time, tariff config.TariffConfig) *billingstore.State {
	state := billingstore.NewState()
	now = now.UTC()
	issued := time.Date(now.Year(), now.Month(), 1, 8, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	period := issued.AddDate(0, -1, 0).Format("2006-01")

	zoneByCommune := make(map[string]string, len(communes))
	for _, c := range communes {
		code := ZoneCode(c.Name)
		state.Zones = append(state.Zones, customerdomain.Zone{Code: code, Name: c.Name, Commune: c.Commune})
		zoneByCommune[c.Commune] = code
	}

	for i, f := range clients {
		n := snowflake.ID(i + 1)
		clientID, meterID := clientBase+n, meterBase+n
		meterNumber := fmt.Sprintf("MTR-%06d", 100000+int(n))
		clientNumber := mustNumber(state, format.ClientNumberTemplate, issued)
		installed := issued.AddDate(-2, 0, 0)

		state.Clients[clientID] = &customerdomain.Client{
			ID:               clientID,
			Number:           clientNumber,
			Name:             f.Name,
			Phone:            f.Phone,
			Email:            f.Email,
			Address:          f.Address,
			Zone:             zoneByCommune[f.Commune],
			MeterNumber:      meterNumber,
			SubscriptionType: f.Subscription,
			Active:           true,
			CreatedAt:        installed,
		}
		state.Meters[meterID] = &customerdomain.Meter{
			ID:          meterID,
			Number:      meterNumber,
			ClientID:    clientID,
			MeterType:   f.MeterType,
			Power:       decimal.NewFromInt(f.Power),
			Active:      true,
			InstalledAt: installed,
		}

		readingDate := issued.AddDate(0, 0, -3)
		decided := readingDate.Add(26 * time.Hour)
		reading := &readingdomain.Reading{
			ID:            readingBase + n,
			Number:        mustNumber(state, format.ReadingNumberTemplate, readingDate),
			MeterID:       meterID,
			MeterNumber:   meterNumber,
			ClientID:      clientID,
			AgentID:       "AGT-001",
			AgentName:     "Didier Lukusa",
			PreviousIndex: decimal.NewFromInt(f.Previous),
			NewIndex:      decimal.NewFromInt(f.Current),
			Consumption:   decimal.NewFromInt(f.Current - f.Previous),
			ReadingDate:   readingDate,
			EntryDate:     readingDate.Add(2 * time.Hour),
			Status:        readingdomain.StatusValidated,
			DecidedAt:     &decided,
		}
		state.Readings[reading.ID] = reading

		unitPrice, _ := tariff.UnitPrice(string(f.Subscription))
		amounts := invoicedomain.Price(reading.Consumption, unitPrice, tariff.Tax())
		inv := &invoicedomain.Invoice{
			ID:          invoiceBase + n,
			Number:      mustNumber(state, format.InvoiceNumberTemplate, issued),
			ClientID:    clientID,
			MeterNumber: meterNumber,
			ReadingID:   reading.ID,
			Period:      period,
			IssueDate:   issued,
			DueDate:     issued.AddDate(0, tariff.DueMonths, 0),
			Consumption: amounts.Consumption,
			UnitPrice:   amounts.UnitPrice,
			NetAmount:   amounts.NetAmount,
			TaxRate:     amounts.TaxRate,
			Tax:         amounts.Tax,
			TotalAmount: amounts.TotalAmount,
			AmountPaid:  decimal.Zero,
			Balance:     amounts.TotalAmount,
			Currency:    tariff.Currency,
			Status:      invoicedomain.StatusPending,
		}
		state.Invoices[inv.ID] = inv

		switch i % 3 {
		case 0:
			pay(state, inv, paymentBase+n, inv.Balance, paymentdomain.ModeMobileMoney, paymentdomain.ChannelSelfService, "", issued.AddDate(0, 0, 5))
		case 1:
			half := inv.TotalAmount.Div(decimal.NewFromInt(2)).Round(2)
			pay(state, inv, paymentBase+n, half, paymentdomain.ModeCash, paymentdomain.ChannelCounter, "CSH-001", issued.AddDate(0, 0, 9))
		}
	}

	// a fresh reading awaiting validation on the first meter
	first := state.Meters[meterBase+1]
	pending := &readingdomain.Reading{
		ID:            readingBase + 100,
		Number:        mustNumber(state, format.ReadingNumberTemplate, now),
		MeterID:       first.ID,
		MeterNumber:   first.Number,
		ClientID:      first.ClientID,
		AgentID:       "AGT-001",
		AgentName:     "Didier Lukusa",
		PreviousIndex: state.Readings[readingBase+1].NewIndex,
		NewIndex:      state.Readings[readingBase+1].NewIndex.Add(decimal.NewFromInt(142)),
		ReadingDate:   now.AddDate(0, 0, -1),
		EntryDate:     now.AddDate(0, 0, -1),
		Status:        readingdomain.StatusEntered,
	}
	pending.Consumption = pending.NewIndex.Sub(pending.PreviousIndex)
	state.Readings[pending.ID] = pending

	complaintAt := issued.AddDate(0, 0, 12)
	resolvedAt := complaintAt.AddDate(0, 0, 2)
	disputed := invoiceBase + 2
	state.Complaints[complaintBase+1] = &feedbackdomain.Complaint{
		ID:          complaintBase + 1,
		Number:      mustNumber(state, format.ComplaintNumberTemplate, complaintAt),
		ClientID:    clientBase + 3,
		MeterNumber: state.Clients[clientBase+3].MeterNumber,
		Type:        feedbackdomain.ComplaintOutage,
		Subject:     "Coupure prolongée",
		Description: "Pas de courant depuis 48 heures sur l'avenue Kasa-Vubu.",
		Status:      feedbackdomain.ComplaintNew,
		CreatedAt:   complaintAt,
	}
	state.Complaints[complaintBase+2] = &feedbackdomain.Complaint{
		ID:             complaintBase + 2,
		Number:         mustNumber(state, format.ComplaintNumberTemplate, complaintAt),
		ClientID:       clientBase + 2,
		MeterNumber:    state.Clients[clientBase+2].MeterNumber,
		InvoiceID:      &disputed,
		Type:           feedbackdomain.ComplaintBilling,
		Subject:        "Montant de facture contesté",
		Description:    "La consommation facturée semble élevée.",
		Status:         feedbackdomain.ComplaintResolved,
		AssignedTo:     "BIL-001",
		Response:       "Relevé vérifié sur site, index confirmé.",
		ResolvedBy:     "BIL-001",
		ResolutionDate: &resolvedAt,
		CreatedAt:      complaintAt,
	}

	reviews := []struct {
		client   snowflake.ID
		rating   int
		category feedbackdomain.ReviewCategory
		comment  string
	}{
		{clientBase + 1, 4, feedbackdomain.ReviewService, "Paiement mobile rapide."},
		{clientBase + 3, 2, feedbackdomain.ReviewService, "Trop de coupures."},
		{clientBase + 5, 5, feedbackdomain.ReviewAgent, "Agent courtois et ponctuel."},
	}
	for i, r := range reviews {
		id := reviewBase + snowflake.ID(i+1)
		state.Reviews[id] = &feedbackdomain.Review{
			ID:          id,
			ClientID:    r.client,
			MeterNumber: state.Clients[r.client].MeterNumber,
			Rating:      r.rating,
			Comment:     r.comment,
			Category:    r.category,
			CreatedAt:   issued.AddDate(0, 0, 15+i),
		}
	}

	return state
}

func pay(state *billingstore.State, inv *invoicedomain.Invoice, id snowflake.ID, amount decimal.Decimal, mode paymentdomain.Mode, channel paymentdomain.Channel, agentID string, at time.Time) {
	state.Payments[id] = &paymentdomain.Payment{
		ID:            id,
		Number:        mustNumber(state, format.PaymentNumberTemplate, at),
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		ClientID:      inv.ClientID,
		Amount:        amount,
		PaymentMode:   mode,
		Channel:       channel,
		AgentID:       agentID,
		Status:        paymentdomain.StatusValid,
		PaidAt:        at,
	}
	inv.AmountPaid = inv.AmountPaid.Add(amount)
	inv.Balance = inv.TotalAmount.Sub(inv.AmountPaid)
	if inv.Balance.LessThanOrEqual(decimal.Zero) {
		inv.Status = invoicedomain.StatusPaid
		inv.PaymentMode = string(mode)
		inv.PaymentDate = &at
	}
}

func mustNumber(state *billingstore.State, template string, at time.Time) string {
	seq := state.NextSequence(format.SequenceKey(template, at))
	number, err := format.FormatNumber(template, at, seq)
	if err != nil {
		panic(err)
	}
	return number
}
