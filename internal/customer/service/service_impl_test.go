package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/snelcrm/internal/billingstore/billingstoretest"
	"github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(f *billingstoretest.Fixture) domain.Service {
	return New(Params{Store: f.Store, Log: f.Log, GenID: f.GenID, Clock: f.Clock})
}

func validRegistration() domain.RegisterClientRequest {
	return domain.RegisterClientRequest{
		Name:             "Hôtel du Fleuve",
		Phone:            "+243990000010",
		Email:            "reception@hdf.example.cd",
		Address:          "1 Bd. du 30 Juin",
		Zone:             seed.ZoneCode("Gombe Centre"),
		SubscriptionType: "commercial",
		MeterNumber:      "mtr-300001",
		MeterType:        "three_phase",
		Power:            decimal.NewFromInt(40),
	}
}

func TestRegisterClient(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)

	reg, err := svc.RegisterClient(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "CLI-000007", reg.Client.Number)
	assert.Equal(t, domain.SubscriptionCommercial, reg.Client.SubscriptionType)
	assert.Equal(t, "MTR-300001", reg.Client.MeterNumber)
	assert.Equal(t, "KIN-GOMBE-CENTRE", reg.Client.Zone)
	assert.True(t, reg.Client.Active)
	assert.Equal(t, reg.Client.ID, reg.Meter.ClientID)
	assert.Equal(t, domain.MeterThreePhase, reg.Meter.MeterType)
	assert.Equal(t, []string{events.ClientRegistered}, f.Events.Types())

	byMeter, err := svc.GetClientByMeterNumber(context.Background(), "MTR-300001")
	require.NoError(t, err)
	assert.Equal(t, reg.Client.ID, byMeter.ID)
	assert.Contains(t, f.Snapshots.Keys(), "snel.clients")
}

func TestRegisterClientValidation(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)

	cases := []struct {
		name   string
		mutate func(*domain.RegisterClientRequest)
		want   error
	}{
		{"blank name", func(r *domain.RegisterClientRequest) { r.Name = " " }, domain.ErrInvalidName},
		{"no phone", func(r *domain.RegisterClientRequest) { r.Phone = "" }, domain.ErrInvalidPhone},
		{"bad email", func(r *domain.RegisterClientRequest) { r.Email = "nobody" }, domain.ErrInvalidEmail},
		{"no address", func(r *domain.RegisterClientRequest) { r.Address = "" }, domain.ErrInvalidAddress},
		{"bad subscription", func(r *domain.RegisterClientRequest) { r.SubscriptionType = "AGRICULTURAL" }, domain.ErrInvalidSubscriptionType},
		{"no meter", func(r *domain.RegisterClientRequest) { r.MeterNumber = "" }, domain.ErrInvalidMeterNumber},
		{"bad meter type", func(r *domain.RegisterClientRequest) { r.MeterType = "SMART" }, domain.ErrInvalidMeterType},
		{"zero power", func(r *domain.RegisterClientRequest) { r.Power = decimal.Zero }, domain.ErrInvalidPower},
		{"unknown zone", func(r *domain.RegisterClientRequest) { r.Zone = "KIN-NOWHERE" }, domain.ErrZoneNotFound},
		{"meter taken", func(r *domain.RegisterClientRequest) { r.MeterNumber = "MTR-100001" }, domain.ErrDuplicateMeterNumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.mutate(&req)
			_, err := svc.RegisterClient(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.Events.Types())
}

func TestDeactivateClientDeactivatesMeter(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	client, err := svc.DeactivateClient(ctx, "1004")
	require.NoError(t, err)
	assert.False(t, client.Active)
	require.NotNil(t, client.DeactivatedAt)

	meter, err := svc.GetMeter(ctx, "2004")
	require.NoError(t, err)
	assert.False(t, meter.Active)

	_, err = svc.DeactivateClient(ctx, "1004")
	assert.ErrorIs(t, err, domain.ErrClientInactive)

	active := true
	clients, err := svc.ListClients(ctx, domain.ListClientRequest{Active: &active})
	require.NoError(t, err)
	assert.Len(t, clients, 5)

	meters, err := svc.ListMeters(ctx, domain.ListMeterRequest{Active: &active})
	require.NoError(t, err)
	assert.Len(t, meters, 5)
}

func TestListClientsFilters(t *testing.T) {
	f := billingstoretest.Seeded(t)
	svc := newTestService(f)
	ctx := context.Background()

	limete, err := svc.ListClients(ctx, domain.ListClientRequest{Zone: seed.ZoneCode("Limete Industriel")})
	require.NoError(t, err)
	require.Len(t, limete, 2)
	assert.Equal(t, "Grace Kabila Traders", limete[0].Name)

	domestic, err := svc.ListClients(ctx, domain.ListClientRequest{SubscriptionType: "domestic"})
	require.NoError(t, err)
	assert.Len(t, domestic, 3)

	_, err = svc.ListClients(ctx, domain.ListClientRequest{SubscriptionType: "GOV"})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriptionType)

	zones, err := svc.ListZones(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 8)

	_, err = svc.GetClient(ctx, "1999")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
	_, err = svc.GetClient(ctx, "zero")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
