package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *billingstore.Store
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Limiter *ratelimit.SubmissionLimiter `optional:"true"`
	Metrics *metrics.Metrics             `optional:"true"`
}

// submissionLimiter is satisfied by *ratelimit.SubmissionLimiter, nil included.
type submissionLimiter interface {
	Allow(ctx context.Context, kind, clientID string) error
}

type Service struct {
	store   *billingstore.Store
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	limiter submissionLimiter
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("feedback.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		limiter: p.Limiter,
		metrics: p.Metrics,
	}
}

// checkSubmitter rejects unknown clients and foreign invoices before a
// submission token is spent. Update repeats the check under the write lock.
func (s *Service) checkSubmitter(clientID snowflake.ID, invoiceID *snowflake.ID) error {
	var err error
	s.store.View(func(state *billingstore.State) {
		client, ok := state.Clients[clientID]
		if !ok {
			err = customerdomain.ErrClientNotFound
			return
		}
		if invoiceID != nil {
			invoice, ok := state.Invoices[*invoiceID]
			if !ok || invoice.ClientID != client.ID {
				err = invoicedomain.ErrInvoiceNotFound
			}
		}
	})
	return err
}

func (s *Service) CreateComplaint(ctx context.Context, req domain.CreateComplaintRequest) (domain.Complaint, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return domain.Complaint{}, err
	}
	var invoiceID *snowflake.ID
	if strings.TrimSpace(req.InvoiceID) != "" {
		id, err := parseID(req.InvoiceID)
		if err != nil {
			return domain.Complaint{}, err
		}
		invoiceID = &id
	}
	complaintType := domain.ComplaintType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !complaintType.Valid() {
		return domain.Complaint{}, domain.ErrInvalidComplaintType
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return domain.Complaint{}, domain.ErrInvalidSubject
	}
	if err := s.checkSubmitter(clientID, invoiceID); err != nil {
		return domain.Complaint{}, err
	}
	if err := s.limiter.Allow(ctx, "complaint", clientID.String()); err != nil {
		return domain.Complaint{}, err
	}

	var out domain.Complaint
	err = s.store.Update(ctx, "complaint.create", func(tx *billingstore.Tx) error {
		state := tx.State()
		client, ok := state.Clients[clientID]
		if !ok {
			return customerdomain.ErrClientNotFound
		}
		if invoiceID != nil {
			invoice, ok := state.Invoices[*invoiceID]
			if !ok || invoice.ClientID != client.ID {
				return invoicedomain.ErrInvoiceNotFound
			}
		}
		meterNumber := strings.TrimSpace(req.MeterNumber)
		if meterNumber == "" {
			meterNumber = client.MeterNumber
		}

		now := s.clock.Now().UTC()
		number, err := format.FormatNumber(format.ComplaintNumberTemplate, now,
			state.NextSequence(format.SequenceKey(format.ComplaintNumberTemplate, now)))
		if err != nil {
			return err
		}

		complaint := &domain.Complaint{
			ID:          s.genID.Generate(),
			Number:      number,
			ClientID:    client.ID,
			MeterNumber: meterNumber,
			InvoiceID:   invoiceID,
			Type:        complaintType,
			Subject:     subject,
			Description: strings.TrimSpace(req.Description),
			Status:      domain.ComplaintNew,
			CreatedAt:   now,
		}
		state.Complaints[complaint.ID] = complaint
		tx.Touch(billingstore.KeyComplaints, billingstore.KeySequences)
		tx.Emit(events.New(events.ComplaintCreated, complaint.ID.String(), now, map[string]string{
			"number": complaint.Number,
			"type":   string(complaint.Type),
		}))
		out = *complaint
		return nil
	})
	if err != nil {
		return domain.Complaint{}, err
	}

	s.metrics.RecordComplaint(strings.ToLower(string(out.Status)))
	s.log.Info("complaint created",
		zap.String("complaint_id", out.ID.String()),
		zap.String("number", out.Number),
		zap.String("type", string(out.Type)),
	)
	return out, nil
}

func (s *Service) StartComplaint(ctx context.Context, req domain.StartComplaintRequest) (domain.Complaint, error) {
	assignee := strings.TrimSpace(req.Assignee)
	if assignee == "" {
		return domain.Complaint{}, domain.ErrInvalidAssignee
	}
	return s.transition(ctx, req.ComplaintID, "complaint.start", func(c *domain.Complaint) error {
		if c.Status != domain.ComplaintNew {
			return domain.ErrComplaintNotNew
		}
		c.Status = domain.ComplaintInProgress
		c.AssignedTo = assignee
		return nil
	})
}

// ResolveComplaint answers an open complaint. It succeeds at most once.
func (s *Service) ResolveComplaint(ctx context.Context, req domain.ResolveComplaintRequest) (domain.Complaint, error) {
	response := strings.TrimSpace(req.Response)
	if response == "" {
		return domain.Complaint{}, domain.ErrInvalidResponse
	}
	resolvedBy := strings.TrimSpace(req.ResolvedBy)
	return s.transition(ctx, req.ComplaintID, "complaint.resolve", func(c *domain.Complaint) error {
		if !c.Status.Open() {
			return domain.ErrComplaintAlreadyResolved
		}
		now := s.clock.Now().UTC()
		c.Status = domain.ComplaintResolved
		c.Response = response
		c.ResolvedBy = resolvedBy
		if c.ResolvedBy == "" {
			c.ResolvedBy = c.AssignedTo
		}
		c.ResolutionDate = &now
		return nil
	})
}

func (s *Service) CloseComplaint(ctx context.Context, complaintID string) (domain.Complaint, error) {
	return s.transition(ctx, complaintID, "complaint.close", func(c *domain.Complaint) error {
		if c.Status != domain.ComplaintResolved {
			return domain.ErrComplaintNotResolved
		}
		now := s.clock.Now().UTC()
		c.Status = domain.ComplaintClosed
		c.ClosedAt = &now
		return nil
	})
}

// transition applies apply to a stored complaint. apply must check before
// it writes.
func (s *Service) transition(ctx context.Context, complaintID, op string, apply func(*domain.Complaint) error) (domain.Complaint, error) {
	id, err := parseID(complaintID)
	if err != nil {
		return domain.Complaint{}, err
	}

	var out domain.Complaint
	err = s.store.Update(ctx, op, func(tx *billingstore.Tx) error {
		complaint, ok := tx.State().Complaints[id]
		if !ok {
			return domain.ErrComplaintNotFound
		}
		if err := apply(complaint); err != nil {
			return err
		}
		tx.Touch(billingstore.KeyComplaints)
		tx.Emit(events.New(events.ComplaintUpdated, complaint.ID.String(), s.clock.Now().UTC(), map[string]string{
			"number": complaint.Number,
			"status": string(complaint.Status),
		}))
		out = *complaint
		return nil
	})
	if err != nil {
		return domain.Complaint{}, err
	}

	s.metrics.RecordComplaint(strings.ToLower(string(out.Status)))
	s.log.Info("complaint updated",
		zap.String("complaint_id", out.ID.String()),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

func (s *Service) GetComplaint(_ context.Context, complaintID string) (domain.Complaint, error) {
	id, err := parseID(complaintID)
	if err != nil {
		return domain.Complaint{}, err
	}

	var (
		out domain.Complaint
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var complaint *domain.Complaint
		if complaint, ok = state.Complaints[id]; ok {
			out = *complaint
		}
	})
	if !ok {
		return domain.Complaint{}, domain.ErrComplaintNotFound
	}
	return out, nil
}

func (s *Service) ListComplaints(_ context.Context, req domain.ListComplaintRequest) ([]domain.Complaint, error) {
	status := domain.ComplaintStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	clientID, err := optionalID(req.ClientID)
	if err != nil {
		return nil, err
	}

	var out []domain.Complaint
	s.store.View(func(state *billingstore.State) {
		out = billingstore.Sorted(state.Complaints, func(c *domain.Complaint) bool {
			if clientID != 0 && c.ClientID != clientID {
				return false
			}
			return status == "" || c.Status == status
		})
	})
	return out, nil
}

func optionalID(value string) (snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return parseID(value)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
