package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	billingdashboard "github.com/smallbiznis/snelcrm/internal/billingdashboard/domain"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/config"
	feedbackdomain "github.com/smallbiznis/snelcrm/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxPeriods = 36

var hundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	Store    *billingstore.Store
	Log      *zap.Logger
	Clock    clock.Clock
	Tariff   *config.TariffHolder
	Feedback feedbackdomain.Service
}

type Service struct {
	store    *billingstore.Store
	log      *zap.Logger
	clock    clock.Clock
	tariff   *config.TariffHolder
	feedback feedbackdomain.Service
}

func NewService(p Params) billingdashboard.Service {
	return &Service{
		store:    p.Store,
		log:      p.Log.Named("billingdashboard.service"),
		clock:    p.Clock,
		tariff:   p.Tariff,
		feedback: p.Feedback,
	}
}

func (s *Service) BillingSummary(ctx context.Context) (billingdashboard.BillingSummary, error) {
	now := s.clock.Now()
	summary := billingdashboard.BillingSummary{
		AsOf:          now,
		Currency:      s.tariff.Get().Currency,
		ByStatus:      make(map[string]billingdashboard.StatusTotals, 4),
		TotalInvoiced: decimal.Zero,
		Collected:     decimal.Zero,
		Outstanding:   decimal.Zero,
	}
	for _, status := range []invoicedomain.Status{
		invoicedomain.StatusPending,
		invoicedomain.StatusOverdue,
		invoicedomain.StatusPaid,
		invoicedomain.StatusCancelled,
	} {
		summary.ByStatus[string(status)] = billingdashboard.StatusTotals{Amount: decimal.Zero}
	}

	s.store.View(func(state *billingstore.State) {
		for _, inv := range state.Invoices {
			status := inv.EffectiveStatus(now)
			totals := summary.ByStatus[string(status)]
			totals.Count++
			totals.Amount = totals.Amount.Add(inv.TotalAmount)
			summary.ByStatus[string(status)] = totals

			if status == invoicedomain.StatusCancelled {
				continue
			}
			summary.TotalInvoiced = summary.TotalInvoiced.Add(inv.TotalAmount)
			summary.Collected = summary.Collected.Add(inv.AmountPaid)
			if status != invoicedomain.StatusPaid {
				summary.Outstanding = summary.Outstanding.Add(inv.Balance)
			}
		}
		for _, c := range state.Clients {
			if c.Active {
				summary.ActiveClients++
			}
		}
		for _, r := range state.Readings {
			if r.Status == readingdomain.StatusEntered {
				summary.ReadingsPending++
			}
		}
		for _, c := range state.Complaints {
			if c.Status.Open() {
				summary.OpenComplaints++
			}
		}
	})

	if summary.TotalInvoiced.IsPositive() {
		summary.CollectionRate, _ = summary.Collected.Div(summary.TotalInvoiced).Mul(hundred).Round(2).Float64()
	}

	rating, err := s.feedback.AverageRating(ctx)
	if err != nil {
		return billingdashboard.BillingSummary{}, err
	}
	summary.Rating = rating
	return summary, nil
}

func (s *Service) AgentActivity(_ context.Context, agentID string) (billingdashboard.AgentActivity, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return billingdashboard.AgentActivity{}, billingdashboard.ErrInvalidAgent
	}

	out := billingdashboard.AgentActivity{AgentID: agentID, AmountCollected: decimal.Zero}
	s.store.View(func(state *billingstore.State) {
		for _, r := range state.Readings {
			if r.AgentID != agentID {
				continue
			}
			if out.AgentName == "" {
				out.AgentName = r.AgentName
			}
			out.ReadingsEntered++
			switch r.Status {
			case readingdomain.StatusValidated:
				out.ReadingsValidated++
			case readingdomain.StatusRejected:
				out.ReadingsRejected++
			default:
				out.ReadingsPending++
			}
		}
		for _, p := range state.Payments {
			if p.AgentID != agentID {
				continue
			}
			out.PaymentsCollected++
			out.AmountCollected = out.AmountCollected.Add(p.Amount)
		}
	})
	return out, nil
}

func (s *Service) ListClientBalances(context.Context) (billingdashboard.ClientBalancesResponse, error) {
	now := s.clock.Now()
	currency := s.tariff.Get().Currency

	var clients []billingdashboard.ClientBalance
	s.store.View(func(state *billingstore.State) {
		type agg struct {
			balance decimal.Decimal
			open    int
			last    *invoicedomain.Invoice
		}
		byClient := make(map[string]*agg, len(state.Clients))
		for _, inv := range state.Invoices {
			key := inv.ClientID.String()
			a, ok := byClient[key]
			if !ok {
				a = &agg{balance: decimal.Zero}
				byClient[key] = a
			}
			if a.last == nil || inv.IssueDate.After(a.last.IssueDate) ||
				(inv.IssueDate.Equal(a.last.IssueDate) && inv.ID > a.last.ID) {
				a.last = inv
			}
			switch inv.EffectiveStatus(now) {
			case invoicedomain.StatusPending, invoicedomain.StatusOverdue:
				a.balance = a.balance.Add(inv.Balance)
				a.open++
			}
		}

		clients = make([]billingdashboard.ClientBalance, 0, len(state.Clients))
		for _, c := range state.Clients {
			row := billingdashboard.ClientBalance{
				ClientID:      c.ID.String(),
				Number:        c.Number,
				Name:          c.Name,
				MeterNumber:   c.MeterNumber,
				Balance:       decimal.Zero,
				Currency:      currency,
				PaymentStatus: "settled",
			}
			if a, ok := byClient[row.ClientID]; ok {
				row.Balance = a.balance
				row.OpenInvoices = a.open
				if a.last != nil {
					row.LastInvoiceNumber = a.last.Number
					row.Currency = a.last.Currency
				}
			}
			if row.Balance.IsPositive() {
				row.PaymentStatus = "due"
			}
			clients = append(clients, row)
		}
	})

	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Name == clients[j].Name {
			return clients[i].ClientID < clients[j].ClientID
		}
		return clients[i].Name < clients[j].Name
	})
	return billingdashboard.ClientBalancesResponse{Clients: clients}, nil
}

// ListPeriods returns the most recent consumption periods first.
func (s *Service) ListPeriods(context.Context) (billingdashboard.PeriodSummaryResponse, error) {
	byPeriod := make(map[string]*billingdashboard.PeriodSummary)
	s.store.View(func(state *billingstore.State) {
		for _, inv := range state.Invoices {
			if inv.Status == invoicedomain.StatusCancelled {
				continue
			}
			p, ok := byPeriod[inv.Period]
			if !ok {
				p = &billingdashboard.PeriodSummary{
					Period:      inv.Period,
					Invoiced:    decimal.Zero,
					Collected:   decimal.Zero,
					Outstanding: decimal.Zero,
				}
				byPeriod[inv.Period] = p
			}
			p.InvoiceCount++
			p.Invoiced = p.Invoiced.Add(inv.TotalAmount)
			p.Collected = p.Collected.Add(inv.AmountPaid)
			p.Outstanding = p.Outstanding.Add(inv.Balance)
		}
	})

	periods := make([]billingdashboard.PeriodSummary, 0, len(byPeriod))
	for _, p := range byPeriod {
		periods = append(periods, *p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Period > periods[j].Period })
	if len(periods) > maxPeriods {
		periods = periods[:maxPeriods]
	}
	return billingdashboard.PeriodSummaryResponse{Periods: periods}, nil
}
