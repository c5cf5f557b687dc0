package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/statestore"
	"github.com/smallbiznis/snelcrm/internal/ticketing/domain"
	"github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *store.Store
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("ticketing.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) CreateOperator(ctx context.Context, req domain.CreateOperatorRequest) (domain.Operator, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Operator{}, domain.ErrInvalidName
	}
	prefix := strings.ToUpper(strings.TrimSpace(req.Prefix))
	if !validPrefix(prefix) {
		return domain.Operator{}, domain.ErrInvalidPrefix
	}
	transport := domain.TransportType(strings.ToUpper(strings.TrimSpace(req.TransportType)))
	if !transport.Valid() {
		return domain.Operator{}, domain.ErrInvalidTransportType
	}

	var out domain.Operator
	err := s.store.Update(ctx, "operator.create", func(tx *store.Tx) error {
		state := tx.State()
		if _, taken := state.OperatorByPrefix(prefix); taken {
			return domain.ErrDuplicatePrefix
		}
		operator := &domain.Operator{
			ID:            s.genID.Generate(),
			Name:          name,
			Prefix:        prefix,
			TransportType: transport,
			Active:        true,
			CreatedAt:     s.clock.Now().UTC(),
		}
		state.Operators[operator.ID] = operator
		tx.Touch(store.KeyOperators)
		out = *operator
		return nil
	})
	if err != nil {
		return domain.Operator{}, err
	}
	s.log.Info("operator created", zap.String("operator_id", out.ID.String()), zap.String("prefix", out.Prefix))
	return out, nil
}

func (s *Service) ListOperators(context.Context) ([]domain.Operator, error) {
	var out []domain.Operator
	s.store.View(func(state *store.State) {
		out = statestore.Sorted(state.Operators, nil)
	})
	return out, nil
}

func (s *Service) CreateLine(ctx context.Context, req domain.CreateLineRequest) (domain.Line, error) {
	operatorID, err := parseID(req.OperatorID)
	if err != nil {
		return domain.Line{}, err
	}
	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" || strings.EqualFold(origin, destination) {
		return domain.Line{}, domain.ErrInvalidRoute
	}
	if !req.Price.IsPositive() {
		return domain.Line{}, domain.ErrInvalidPrice
	}
	if req.AverageDurationMinutes <= 0 {
		return domain.Line{}, domain.ErrInvalidDuration
	}

	var out domain.Line
	err = s.store.Update(ctx, "line.create", func(tx *store.Tx) error {
		state := tx.State()
		operator, ok := state.Operators[operatorID]
		if !ok {
			return domain.ErrOperatorNotFound
		}
		if !operator.Active {
			return domain.ErrOperatorInactive
		}
		line := &domain.Line{
			ID:                     s.genID.Generate(),
			OperatorID:             operator.ID,
			Origin:                 origin,
			Destination:            destination,
			Price:                  req.Price,
			AverageDurationMinutes: req.AverageDurationMinutes,
			Active:                 true,
		}
		state.Lines[line.ID] = line
		tx.Touch(store.KeyLines)
		out = *line
		return nil
	})
	if err != nil {
		return domain.Line{}, err
	}
	s.log.Info("line created",
		zap.String("line_id", out.ID.String()),
		zap.String("origin", out.Origin),
		zap.String("destination", out.Destination),
	)
	return out, nil
}

func (s *Service) ListLines(_ context.Context, operatorID string) ([]domain.Line, error) {
	id, err := optionalID(operatorID)
	if err != nil {
		return nil, err
	}
	var out []domain.Line
	s.store.View(func(state *store.State) {
		out = statestore.Sorted(state.Lines, func(l *domain.Line) bool {
			return id == 0 || l.OperatorID == id
		})
	})
	return out, nil
}

func (s *Service) CreateDeparture(ctx context.Context, req domain.CreateDepartureRequest) (domain.Departure, error) {
	lineID, err := parseID(req.LineID)
	if err != nil {
		return domain.Departure{}, err
	}
	if req.DepartureTime.IsZero() {
		return domain.Departure{}, domain.ErrInvalidDepartureTime
	}
	if req.TotalSeats <= 0 {
		return domain.Departure{}, domain.ErrInvalidSeats
	}

	var out domain.Departure
	err = s.store.Update(ctx, "departure.create", func(tx *store.Tx) error {
		state := tx.State()
		line, ok := state.Lines[lineID]
		if !ok {
			return domain.ErrLineNotFound
		}
		if !line.Active {
			return domain.ErrLineInactive
		}
		at := req.DepartureTime.UTC()
		departure := &domain.Departure{
			ID:            s.genID.Generate(),
			LineID:        line.ID,
			OperatorID:    line.OperatorID,
			DepartureTime: at,
			ArrivalTime:   at.Add(minutes(line.AverageDurationMinutes)),
			TotalSeats:    req.TotalSeats,
			Status:        domain.DepartureScheduled,
		}
		state.Departures[departure.ID] = departure
		tx.Touch(store.KeyDepartures)
		tx.Emit(events.New(events.DepartureCreated, departure.ID.String(), s.clock.Now(), map[string]any{
			"line_id":     line.ID.String(),
			"total_seats": departure.TotalSeats,
		}))
		out = *departure
		return nil
	})
	if err != nil {
		return domain.Departure{}, err
	}
	s.log.Info("departure created",
		zap.String("departure_id", out.ID.String()),
		zap.Time("departure_time", out.DepartureTime),
		zap.Int("total_seats", out.TotalSeats),
	)
	return out, nil
}

// CancelDeparture cancels the trip and every ticket still valid on it.
func (s *Service) CancelDeparture(ctx context.Context, departureID string) (domain.Departure, error) {
	id, err := parseID(departureID)
	if err != nil {
		return domain.Departure{}, err
	}

	var (
		out      domain.Departure
		released int
	)
	err = s.store.Update(ctx, "departure.cancel", func(tx *store.Tx) error {
		state := tx.State()
		departure, ok := state.Departures[id]
		if !ok {
			return domain.ErrDepartureNotFound
		}
		if departure.Status == domain.DepartureCancelled {
			return domain.ErrDepartureCancelled
		}
		now := s.clock.Now().UTC()
		for _, t := range state.Tickets {
			if t.DepartureID != id || t.Status != domain.TicketValid {
				continue
			}
			t.Status = domain.TicketCancelled
			t.CancelledAt = &now
			departure.SoldSeats = max(departure.SoldSeats-1, 0)
			released++
			tx.Emit(events.New(events.TicketCancelled, t.ID.String(), now, map[string]string{"code": t.Code}))
		}
		departure.Status = domain.DepartureCancelled
		tx.Touch(store.KeyDepartures, store.KeyTickets)
		out = *departure
		return nil
	})
	if err != nil {
		return domain.Departure{}, err
	}
	s.metrics.RecordTickets("cancelled", released)
	s.log.Info("departure cancelled",
		zap.String("departure_id", out.ID.String()),
		zap.Int("tickets_cancelled", released),
	)
	return out, nil
}

func (s *Service) GetDeparture(_ context.Context, departureID string) (domain.Departure, error) {
	id, err := parseID(departureID)
	if err != nil {
		return domain.Departure{}, err
	}
	var (
		out domain.Departure
		ok  bool
	)
	s.store.View(func(state *store.State) {
		var departure *domain.Departure
		if departure, ok = state.Departures[id]; ok {
			out = *departure
		}
	})
	if !ok {
		return domain.Departure{}, domain.ErrDepartureNotFound
	}
	return out, nil
}

func (s *Service) ListDepartures(_ context.Context, lineID string) ([]domain.Departure, error) {
	id, err := optionalID(lineID)
	if err != nil {
		return nil, err
	}
	var out []domain.Departure
	s.store.View(func(state *store.State) {
		out = statestore.Sorted(state.Departures, func(d *domain.Departure) bool {
			return id == 0 || d.LineID == id
		})
	})
	return out, nil
}

func validPrefix(prefix string) bool {
	if len(prefix) < 2 || len(prefix) > 6 {
		return false
	}
	for _, r := range prefix {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
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
