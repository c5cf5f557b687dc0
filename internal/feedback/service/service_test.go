package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/snelcrm/internal/billingstore/billingstoretest"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(f *billingstoretest.Fixture) domain.Service {
	return New(Params{
		Store:   f.Store,
		Log:     f.Log,
		GenID:   f.GenID,
		Clock:   f.Clock,
		Metrics: f.Metrics,
	})
}

func TestComplaintLifecycle(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	complaint, err := svc.CreateComplaint(ctx, domain.CreateComplaintRequest{
		ClientID:    "1002",
		InvoiceID:   "4002",
		Type:        "billing",
		Subject:     "Double facturation",
		Description: "Deux factures pour le même mois.",
	})
	require.NoError(t, err)
	assert.Equal(t, "PLA-2024-00003", complaint.Number)
	assert.Equal(t, domain.ComplaintNew, complaint.Status)
	assert.Equal(t, "MTR-100002", complaint.MeterNumber)
	require.NotNil(t, complaint.InvoiceID)

	started, err := svc.StartComplaint(ctx, domain.StartComplaintRequest{ComplaintID: complaint.ID.String(), Assignee: "BIL-002"})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintInProgress, started.Status)

	_, err = svc.StartComplaint(ctx, domain.StartComplaintRequest{ComplaintID: complaint.ID.String(), Assignee: "BIL-003"})
	assert.ErrorIs(t, err, domain.ErrComplaintNotNew)

	_, err = svc.CloseComplaint(ctx, complaint.ID.String())
	assert.ErrorIs(t, err, domain.ErrComplaintNotResolved)

	resolved, err := svc.ResolveComplaint(ctx, domain.ResolveComplaintRequest{
		ComplaintID: complaint.ID.String(),
		Response:    "Facture annulée et remplacée.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintResolved, resolved.Status)
	assert.Equal(t, "BIL-002", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolutionDate)

	_, err = svc.ResolveComplaint(ctx, domain.ResolveComplaintRequest{ComplaintID: complaint.ID.String(), Response: "again"})
	assert.ErrorIs(t, err, domain.ErrComplaintAlreadyResolved)

	closed, err := svc.CloseComplaint(ctx, complaint.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintClosed, closed.Status)

	_, err = svc.ResolveComplaint(ctx, domain.ResolveComplaintRequest{ComplaintID: complaint.ID.String(), Response: "again"})
	assert.ErrorIs(t, err, domain.ErrComplaintAlreadyResolved)

	assert.Equal(t, []string{
		events.ComplaintCreated,
		events.ComplaintUpdated,
		events.ComplaintUpdated,
		events.ComplaintUpdated,
	}, f.Events.Types())
}

func TestCreateComplaintValidation(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateComplaintRequest
		want error
	}{
		{"unknown client", domain.CreateComplaintRequest{ClientID: "1999", Type: "OUTAGE", Subject: "x"}, customerdomain.ErrClientNotFound},
		{"unknown invoice", domain.CreateComplaintRequest{ClientID: "1001", InvoiceID: "4999", Type: "BILLING", Subject: "x"}, invoicedomain.ErrInvoiceNotFound},
		{"invoice of another client", domain.CreateComplaintRequest{ClientID: "1001", InvoiceID: "4002", Type: "BILLING", Subject: "x"}, invoicedomain.ErrInvoiceNotFound},
		{"bad type", domain.CreateComplaintRequest{ClientID: "1001", Type: "NOISE", Subject: "x"}, domain.ErrInvalidComplaintType},
		{"blank subject", domain.CreateComplaintRequest{ClientID: "1001", Type: "OUTAGE", Subject: "  "}, domain.ErrInvalidSubject},
		{"bad client id", domain.CreateComplaintRequest{ClientID: "abc", Type: "OUTAGE", Subject: "x"}, domain.ErrInvalidID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateComplaint(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.Events.Types())
}

func TestResolveSeededComplaint(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.ResolveComplaint(ctx, domain.ResolveComplaintRequest{ComplaintID: "6001", Response: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)

	resolved, err := svc.ResolveComplaint(ctx, domain.ResolveComplaintRequest{ComplaintID: "6001", Response: "Câble remplacé.", ResolvedBy: "TEC-004"})
	require.NoError(t, err)
	assert.Equal(t, "TEC-004", resolved.ResolvedBy)

	_, err = svc.ResolveComplaint(ctx, domain.ResolveComplaintRequest{ComplaintID: "6002", Response: "again"})
	assert.ErrorIs(t, err, domain.ErrComplaintAlreadyResolved)

	_, err = svc.ResolveComplaint(ctx, domain.ResolveComplaintRequest{ComplaintID: "6999", Response: "x"})
	assert.ErrorIs(t, err, domain.ErrComplaintNotFound)
}

func TestListComplaints(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	all, err := svc.ListComplaints(ctx, domain.ListComplaintRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	resolved, err := svc.ListComplaints(ctx, domain.ListComplaintRequest{Status: "resolved"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "6002", resolved[0].ID.String())

	mine, err := svc.ListComplaints(ctx, domain.ListComplaintRequest{ClientID: "1003"})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = svc.ListComplaints(ctx, domain.ListComplaintRequest{Status: "PENDING"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestReviewsAndAverageRating(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	summary, err := svc.AverageRating(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 3.67, summary.Average)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(ctx, domain.CreateReviewRequest{ClientID: "1002", Rating: rating})
		assert.ErrorIs(t, err, domain.ErrRatingOutOfRange)
		assert.EqualError(t, err, "rating out of range")
	}

	_, err = svc.CreateReview(ctx, domain.CreateReviewRequest{ClientID: "1002", Rating: 3, Category: "PRICE"})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	review, err := svc.CreateReview(ctx, domain.CreateReviewRequest{ClientID: "1002", Rating: 5, Comment: "Bon accueil."})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewGeneral, review.Category)
	assert.Equal(t, "MTR-100002", review.MeterNumber)

	summary, err = svc.AverageRating(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, 4.0, summary.Average)

	mine, err := svc.ListReviews(ctx, "1002")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := svc.ListReviews(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestAverageRatingWithoutReviews(t *testing.T) {
	f := billingstoretest.New(t)
	summary, err := newTestService(f).AverageRating(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{}, summary)
}

// countingLimiter allows burst submissions per client, then refuses.
type countingLimiter struct {
	mu    sync.Mutex
	burst int
	spent map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, kind, clientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := kind + ":" + clientID
	if l.spent[key] >= l.burst {
		return &ratelimit.LimitedError{RetryAfter: time.Minute}
	}
	l.spent[key]++
	return nil
}

func (l *countingLimiter) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, v := range l.spent {
		n += v
	}
	return n
}

func TestRejectedSubmissionsSpendNoToken(t *testing.T) {
	f := billingstoretest.Seeded(t)
	limiter := &countingLimiter{burst: 1, spent: make(map[string]int)}
	svc := New(Params{Store: f.Store, Log: f.Log, GenID: f.GenID, Clock: f.Clock}).(*Service)
	svc.limiter = limiter
	ctx := context.Background()

	_, err := svc.CreateComplaint(ctx, domain.CreateComplaintRequest{ClientID: "999999", Type: "OUTAGE", Subject: "Coupure"})
	assert.ErrorIs(t, err, customerdomain.ErrClientNotFound)
	_, err = svc.CreateComplaint(ctx, domain.CreateComplaintRequest{ClientID: "1002", InvoiceID: "4001", Type: "BILLING", Subject: "Facture"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
	_, err = svc.CreateReview(ctx, domain.CreateReviewRequest{ClientID: "999999", Rating: 4})
	assert.ErrorIs(t, err, customerdomain.ErrClientNotFound)
	assert.Zero(t, limiter.total())

	_, err = svc.CreateComplaint(ctx, domain.CreateComplaintRequest{ClientID: "1002", Type: "OUTAGE", Subject: "Coupure"})
	require.NoError(t, err)
	_, err = svc.CreateComplaint(ctx, domain.CreateComplaintRequest{ClientID: "1002", Type: "OUTAGE", Subject: "Encore"})
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
}
