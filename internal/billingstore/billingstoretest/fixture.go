// Package billingstoretest builds billing stores over in-memory snapshots
// for service tests.
package billingstoretest

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	"github.com/smallbiznis/snelcrm/internal/config"
	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/seed"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	"github.com/smallbiznis/snelcrm/internal/snapshot/repository"
	"github.com/smallbiznis/snelcrm/internal/statestore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Now is the instant every fixture clock starts at.
var Now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

type Fixture struct {
	Store     *billingstore.Store
	Snapshots *repository.MemoryStore
	Events    *events.Recorder
	Clock     *clock.FakeClock
	GenID     *snowflake.Node
	Tariff    *config.TariffHolder
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Log       *zap.Logger
}

// New loads an empty store.
func New(t testing.TB) *Fixture {
	return build(t, nil)
}

// Seeded loads the demo fixtures anchored on Now.
func Seeded(t testing.TB) *Fixture {
	return build(t, func() *billingstore.State {
		return seed.Billing(Now, config.DefaultTariffConfig())
	})
}

func build(t testing.TB, s billingstore.Seed) *Fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	tariff, err := config.NewStaticTariffHolder(config.DefaultTariffConfig())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	f := &Fixture{
		Snapshots: repository.NewMemoryStore(),
		Events:    &events.Recorder{},
		Clock:     clock.NewFakeClock(Now),
		GenID:     node,
		Tariff:    tariff,
		Metrics:   metrics.New(reg),
		Registry:  reg,
		Log:       zaptest.NewLogger(t),
	}
	f.Store = billingstore.New(f.Snapshots, snapshot.NewCodec("none"), f.Log,
		statestore.WithPublisher[billingstore.State](f.Events),
		statestore.WithMetrics[billingstore.State](f.Metrics),
	)
	require.NoError(t, f.Store.Load(context.Background(), s))
	return f
}
