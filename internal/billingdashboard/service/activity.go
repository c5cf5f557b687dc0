package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	billingdashboard "github.com/smallbiznis/snelcrm/internal/billingdashboard/domain"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
)

const defaultActivityLimit = 15

// ListBillingActivity lists the latest billing facts, newest first, grouped
// by day relative to now.
func (s *Service) ListBillingActivity(_ context.Context, limit int) (billingdashboard.BillingActivityResponse, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	var activity []billingdashboard.BillingActivity
	s.store.View(func(state *billingstore.State) {
		for _, r := range state.Readings {
			activity = append(activity, billingdashboard.BillingActivity{
				Action:     events.ReadingEntered,
				Message:    fmt.Sprintf("Reading %s entered for %s", r.Number, r.MeterNumber),
				OccurredAt: r.EntryDate,
			})
		}
		for _, inv := range state.Invoices {
			activity = append(activity, billingdashboard.BillingActivity{
				Action:     events.InvoiceGenerated,
				Message:    fmt.Sprintf("Invoice %s issued for %s", inv.Number, format.Money(inv.TotalAmount, inv.Currency)),
				OccurredAt: inv.IssueDate,
			})
			if inv.CancelledAt != nil {
				activity = append(activity, billingdashboard.BillingActivity{
					Action:     events.InvoiceCancelled,
					Message:    fmt.Sprintf("Invoice %s cancelled", inv.Number),
					OccurredAt: *inv.CancelledAt,
				})
			}
		}
		for _, p := range state.Payments {
			message := fmt.Sprintf("Payment %s received", p.Number)
			if client, ok := state.Clients[p.ClientID]; ok {
				message = fmt.Sprintf("Payment %s received from %s", p.Number, client.Name)
			}
			activity = append(activity, billingdashboard.BillingActivity{
				Action:     events.PaymentApplied,
				Message:    message,
				OccurredAt: p.PaidAt,
			})
		}
		for _, c := range state.Complaints {
			activity = append(activity, billingdashboard.BillingActivity{
				Action:     events.ComplaintCreated,
				Message:    fmt.Sprintf("Complaint %s opened: %s", c.Number, c.Subject),
				OccurredAt: c.CreatedAt,
			})
		}
	})

	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].OccurredAt.After(activity[j].OccurredAt)
	})
	if len(activity) > limit {
		activity = activity[:limit]
	}
	return billingdashboard.BillingActivityResponse{Activity: groupByDay(activity, s.clock.Now())}, nil
}

func groupByDay(activity []billingdashboard.BillingActivity, now time.Time) []billingdashboard.ActivityGroup {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	groups := make([]billingdashboard.ActivityGroup, 0, 3)
	index := make(map[string]int, 3)
	for _, a := range activity {
		title := "Earlier"
		switch {
		case !a.OccurredAt.Before(today):
			title = "Today"
		case !a.OccurredAt.Before(yesterday):
			title = "Yesterday"
		}
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, billingdashboard.ActivityGroup{Title: title})
		}
		groups[i].Activities = append(groups[i].Activities, a)
	}
	return groups
}
