package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/invoice/format"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store *billingstore.Store
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	store *billingstore.Store
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		store: p.Store,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) RegisterClient(ctx context.Context, req domain.RegisterClientRequest) (domain.Registration, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Registration{}, domain.ErrInvalidName
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return domain.Registration{}, domain.ErrInvalidPhone
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.Registration{}, domain.ErrInvalidEmail
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return domain.Registration{}, domain.ErrInvalidAddress
	}
	subscription := domain.SubscriptionType(strings.ToUpper(strings.TrimSpace(req.SubscriptionType)))
	if !subscription.Valid() {
		return domain.Registration{}, domain.ErrInvalidSubscriptionType
	}
	meterNumber := strings.ToUpper(strings.TrimSpace(req.MeterNumber))
	if meterNumber == "" {
		return domain.Registration{}, domain.ErrInvalidMeterNumber
	}
	meterType := domain.MeterType(strings.ToUpper(strings.TrimSpace(req.MeterType)))
	if !meterType.Valid() {
		return domain.Registration{}, domain.ErrInvalidMeterType
	}
	if req.Power.LessThanOrEqual(decimal.Zero) {
		return domain.Registration{}, domain.ErrInvalidPower
	}

	var out domain.Registration
	err := s.store.Update(ctx, "customer.register", func(tx *billingstore.Tx) error {
		state := tx.State()
		zone, ok := state.Zone(strings.TrimSpace(req.Zone))
		if !ok {
			return domain.ErrZoneNotFound
		}
		if _, taken := state.MeterByNumber(meterNumber); taken {
			return domain.ErrDuplicateMeterNumber
		}

		now := s.clock.Now().UTC()
		number, err := format.FormatNumber(format.ClientNumberTemplate, now,
			state.NextSequence(format.SequenceKey(format.ClientNumberTemplate, now)))
		if err != nil {
			return err
		}

		client := &domain.Client{
			ID:               s.genID.Generate(),
			Number:           number,
			Name:             name,
			Phone:            phone,
			Email:            email,
			Address:          address,
			Zone:             zone.Code,
			MeterNumber:      meterNumber,
			SubscriptionType: subscription,
			Active:           true,
			CreatedAt:        now,
		}
		meter := &domain.Meter{
			ID:          s.genID.Generate(),
			Number:      meterNumber,
			ClientID:    client.ID,
			MeterType:   meterType,
			Power:       req.Power,
			Active:      true,
			InstalledAt: now,
		}
		state.Clients[client.ID] = client
		state.Meters[meter.ID] = meter
		tx.Touch(billingstore.KeyClients, billingstore.KeyMeters, billingstore.KeySequences)
		tx.Emit(events.New(events.ClientRegistered, client.ID.String(), now, map[string]string{
			"number":       client.Number,
			"meter_number": meter.Number,
			"zone":         client.Zone,
		}))

		out = domain.Registration{Client: *client, Meter: *meter}
		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}

	s.log.Info("client registered",
		zap.String("client_id", out.Client.ID.String()),
		zap.String("number", out.Client.Number),
		zap.String("meter_number", out.Meter.Number),
	)
	return out, nil
}

func (s *Service) DeactivateClient(ctx context.Context, clientID string) (domain.Client, error) {
	id, err := parseID(clientID)
	if err != nil {
		return domain.Client{}, err
	}

	var out domain.Client
	err = s.store.Update(ctx, "customer.deactivate", func(tx *billingstore.Tx) error {
		state := tx.State()
		client, ok := state.Clients[id]
		if !ok {
			return domain.ErrClientNotFound
		}
		if !client.Active {
			return domain.ErrClientInactive
		}

		now := s.clock.Now().UTC()
		client.Active = false
		client.DeactivatedAt = &now
		if meter, ok := state.MeterByNumber(client.MeterNumber); ok {
			meter.Active = false
		}
		tx.Touch(billingstore.KeyClients, billingstore.KeyMeters)
		tx.Emit(events.New(events.ClientDeactivated, client.ID.String(), now, map[string]string{
			"number": client.Number,
		}))
		out = *client
		return nil
	})
	return out, err
}

func (s *Service) GetClient(_ context.Context, clientID string) (domain.Client, error) {
	id, err := parseID(clientID)
	if err != nil {
		return domain.Client{}, err
	}

	var (
		out domain.Client
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var client *domain.Client
		if client, ok = state.Clients[id]; ok {
			out = *client
		}
	})
	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return out, nil
}

func (s *Service) GetClientByMeterNumber(_ context.Context, meterNumber string) (domain.Client, error) {
	var (
		out domain.Client
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var client *domain.Client
		if client, ok = state.ClientByMeterNumber(meterNumber); ok {
			out = *client
		}
	})
	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return out, nil
}

func (s *Service) ListClients(_ context.Context, req domain.ListClientRequest) ([]domain.Client, error) {
	subscription := domain.SubscriptionType(strings.ToUpper(strings.TrimSpace(req.SubscriptionType)))
	if subscription != "" && !subscription.Valid() {
		return nil, domain.ErrInvalidSubscriptionType
	}
	zone := strings.TrimSpace(req.Zone)

	var out []domain.Client
	s.store.View(func(state *billingstore.State) {
		out = billingstore.Sorted(state.Clients, func(c *domain.Client) bool {
			if zone != "" && !strings.EqualFold(c.Zone, zone) {
				return false
			}
			if subscription != "" && c.SubscriptionType != subscription {
				return false
			}
			if req.Active != nil && c.Active != *req.Active {
				return false
			}
			return true
		})
	})
	return out, nil
}

func (s *Service) GetMeter(_ context.Context, meterID string) (domain.Meter, error) {
	id, err := parseID(meterID)
	if err != nil {
		return domain.Meter{}, err
	}

	var (
		out domain.Meter
		ok  bool
	)
	s.store.View(func(state *billingstore.State) {
		var meter *domain.Meter
		if meter, ok = state.Meters[id]; ok {
			out = *meter
		}
	})
	if !ok {
		return domain.Meter{}, domain.ErrMeterNotFound
	}
	return out, nil
}

func (s *Service) ListMeters(_ context.Context, req domain.ListMeterRequest) ([]domain.Meter, error) {
	var out []domain.Meter
	s.store.View(func(state *billingstore.State) {
		out = billingstore.Sorted(state.Meters, func(m *domain.Meter) bool {
			return req.Active == nil || m.Active == *req.Active
		})
	})
	return out, nil
}

func (s *Service) ListZones(context.Context) ([]domain.Zone, error) {
	var out []domain.Zone
	s.store.View(func(state *billingstore.State) {
		out = append([]domain.Zone(nil), state.Zones...)
	})
	return out, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
