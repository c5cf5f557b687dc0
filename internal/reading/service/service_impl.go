package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *billingstore.Store
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *billingstore.Store
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("reading.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) CreateReading(ctx context.Context, req domain.CreateReadingRequest) (domain.Reading, error) {
	meterID, err := parseID(req.MeterID)
	if err != nil {
		return domain.Reading{}, err
	}
	if req.PreviousIndex.IsNegative() || req.NewIndex.IsNegative() {
		return domain.Reading{}, domain.ErrInvalidIndex
	}
	if req.NewIndex.LessThan(req.PreviousIndex) {
		return domain.Reading{}, domain.ErrIndexBelowPrevious
	}
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return domain.Reading{}, domain.ErrInvalidAgent
	}
	if req.ReadingDate.IsZero() {
		return domain.Reading{}, domain.ErrInvalidReadingDate
	}

	var out domain.Reading
	err = s.store.Update(ctx, "reading.create", func(tx *billingstore.Tx) error {
		state := tx.State()
		meter, ok := state.Meters[meterID]
		if !ok {
			return customerdomain.ErrMeterNotFound
		}
		if !strings.EqualFold(meter.Number, strings.TrimSpace(req.MeterNumber)) {
			return domain.ErrMeterMismatch
		}
		if !meter.Active {
			return customerdomain.ErrMeterInactive
		}

		now := s.clock.Now().UTC()
		number, err := format.FormatNumber(format.ReadingNumberTemplate, now,
			state.NextSequence(format.SequenceKey(format.ReadingNumberTemplate, now)))
		if err != nil {
			return err
		}

		reading := &domain.Reading{
			ID:            s.genID.Generate(),
			Number:        number,
			MeterID:       meter.ID,
			MeterNumber:   meter.Number,
			ClientID:      meter.ClientID,
			AgentID:       agentID,
			AgentName:     strings.TrimSpace(req.AgentName),
			PreviousIndex: req.PreviousIndex,
			NewIndex:      req.NewIndex,
			Consumption:   req.NewIndex.Sub(req.PreviousIndex),
			ReadingDate:   req.ReadingDate.UTC(),
			EntryDate:     now,
			Notes:         strings.TrimSpace(req.Notes),
			Status:        domain.StatusEntered,
		}
		state.Readings[reading.ID] = reading
		tx.Touch(billingstore.KeyReadings, billingstore.KeySequences)
		tx.Emit(events.New(events.ReadingEntered, reading.ID.String(), now, map[string]string{
			"number":       reading.Number,
			"meter_number": reading.MeterNumber,
			"consumption":  reading.Consumption.String(),
		}))
		out = *reading
		return nil
	})
	if err != nil {
		return domain.Reading{}, err
	}

	s.metrics.RecordReading("entered")
	s.log.Info("reading entered",
		zap.String("reading_id", out.ID.String()),
		zap.String("meter_number", out.MeterNumber),
		zap.String("agent_id", out.AgentID),
		zap.String("consumption", out.Consumption.String()),
	)
	return out, nil
}

func (s *Service) ValidateReading(ctx context.Context, readingID string) (domain.Reading, error) {
	return s.decide(ctx, readingID, domain.StatusValidated, events.ReadingValidated)
}

func (s *Service) RejectReading(ctx context.Context, readingID string) (domain.Reading, error) {
	return s.decide(ctx, readingID, domain.StatusRejected, events.ReadingRejected)
}

func (s *Service) decide(ctx context.Context, readingID string, status domain.Status, eventType string) (domain.Reading, error) {
	id, err := parseID(readingID)
	if err != nil {
		return domain.Reading{}, err
	}

	var out domain.Reading
	err = s.store.Update(ctx, "reading.decide", func(tx *billingstore.Tx) error {
		reading, ok := tx.State().Readings[id]
		if !ok {
			return domain.ErrReadingNotFound
		}
		if reading.Status != domain.StatusEntered {
			return domain.ErrReadingAlreadyDecided
		}

		now := s.clock.Now().UTC()
		reading.Status = status
		reading.DecidedAt = &now
		tx.Touch(billingstore.KeyReadings)
		tx.Emit(events.New(eventType, reading.ID.String(), now, map[string]string{
			"number": reading.Number,
		}))
		out = *reading
		return nil
	})
	if err != nil {
		return domain.Reading{}, err
	}

	s.metrics.RecordReading(strings.ToLower(string(status)))
	s.log.Info("reading decided",
		zap.String("reading_id", out.ID.String()),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

func (s *Service) GetReading(_ context.Context, readingID string) (domain.Reading, error) {
	id, err := parseID(readingID)
	if err != nil {
		return domain.Reading{}, err
	}

	var (
		out domain.Reading
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var reading *domain.Reading
		if reading, ok = state.Readings[id]; ok {
			out = *reading
		}
	})
	if !ok {
		return domain.Reading{}, domain.ErrReadingNotFound
	}
	return out, nil
}

func (s *Service) ListReadings(_ context.Context, req domain.ListReadingRequest) ([]domain.Reading, error) {
	status := domain.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	meterNumber := strings.TrimSpace(req.MeterNumber)
	agentID := strings.TrimSpace(req.AgentID)

	var out []domain.Reading
	s.store.View(func(state *billingstore.State) {
		out = billingstore.Sorted(state.Readings, func(r *domain.Reading) bool {
			if meterNumber != "" && !strings.EqualFold(r.MeterNumber, meterNumber) {
				return false
			}
			if agentID != "" && r.AgentID != agentID {
				return false
			}
			return status == "" || r.Status == status
		})
	})
	return out, nil
}

func (s *Service) LastIndex(_ context.Context, meterNumber string) (decimal.Decimal, error) {
	meterNumber = strings.TrimSpace(meterNumber)

	var (
		last  *domain.Reading
		known bool
	)
	s.store.View(func(state *billingstore.State) {
		_, known = state.MeterByNumber(meterNumber)
		for _, r := range state.Readings {
			if r.Status != domain.StatusValidated || !strings.EqualFold(r.MeterNumber, meterNumber) {
				continue
			}
			if last == nil || r.ReadingDate.After(last.ReadingDate) ||
				(r.ReadingDate.Equal(last.ReadingDate) && r.ID > last.ID) {
				copied := *r
				last = &copied
			}
		}
	})
	if !known {
		return decimal.Zero, customerdomain.ErrMeterNotFound
	}
	if last == nil {
		return decimal.Zero, nil
	}
	return last.NewIndex, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
