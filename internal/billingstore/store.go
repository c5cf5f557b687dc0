package billingstore

import (
	"context"

	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	snapshotdomain "github.com/smallbiznis/snelcrm/internal/snapshot/domain"
	"github.com/smallbiznis/snelcrm/internal/statestore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const Name = "billing"

type Store = statestore.Store[State]

type Tx = statestore.Tx[State]

// Seed builds the fixture state used for collections that have no snapshot.
type Seed func() *State

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Snapshots snapshotdomain.Store
	Codec     snapshot.Codec
	Log       *zap.Logger
	Publisher events.Publisher `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
	Seed      Seed             `optional:"true"`
}

func New(snapshots snapshotdomain.Store, codec snapshot.Codec, log *zap.Logger, opts ...statestore.Option[State]) *Store {
	opts = append([]statestore.Option[State]{statestore.WithAfterLoad(func(s *State) { s.normalize() })}, opts...)
	return statestore.New(Name, snapshots, codec, Collections, log, opts...)
}

// Provide builds the store, loads it on start and flushes it on stop.
func Provide(p Params) *Store {
	store := New(p.Snapshots, p.Codec, p.Log,
		statestore.WithPublisher[State](p.Publisher),
		statestore.WithMetrics[State](p.Metrics),
	)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.Load(ctx, p.Seed)
		},
		OnStop: func(ctx context.Context) error {
			if err := store.Flush(ctx); err != nil {
				p.Log.Warn("billing store flush incomplete", zap.Error(err))
			}
			return nil
		},
	})
	return store
}

var Module = fx.Module("billing.store",
	fx.Provide(Provide),
)
