// Package statestore holds domain collections in memory behind a single
// writer and snapshots every touched collection after a mutation commits.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/observability/metrics"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	snapshotdomain "github.com/smallbiznis/snelcrm/internal/snapshot/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// ErrLoadFailed reports a snapshot that exists but could not be read.
var ErrLoadFailed = errors.New("snapshot load failed")

// Collections maps each snapshot key to a pointer into the state.
type Collections[S any] func(state *S) map[string]any

type Option[S any] func(*Store[S])

// WithAfterLoad runs fn on the state once every collection is loaded.
func WithAfterLoad[S any](fn func(*S)) Option[S] {
	return func(s *Store[S]) { s.afterLoad = fn }
}

func WithPublisher[S any](pub events.Publisher) Option[S] {
	return func(s *Store[S]) { s.publisher = pub }
}

func WithMetrics[S any](m *metrics.Metrics) Option[S] {
	return func(s *Store[S]) { s.metrics = m }
}

type Store[S any] struct {
	name        string
	snapshots   snapshotdomain.Store
	codec       snapshot.Codec
	collections Collections[S]
	log         *zap.Logger
	tracer      trace.Tracer
	publisher   events.Publisher
	metrics     *metrics.Metrics
	afterLoad   func(*S)

	mu    sync.RWMutex
	state *S

	failMu   sync.Mutex
	failures map[string]error
}

func New[S any](name string, snapshots snapshotdomain.Store, codec snapshot.Codec, collections Collections[S], log *zap.Logger, opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		name:        name,
		snapshots:   snapshots,
		codec:       codec,
		collections: collections,
		log:         log.Named(name + ".store"),
		tracer:      otel.Tracer("snelcrm/statestore"),
		state:       new(S),
		failures:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store[S]) Name() string { return s.name }

// Load reads every collection once. A missing key falls back to the
// matching collection of seed and is written back. Any other read or decode
// failure aborts the load so stored data is never replaced by the seed.
func (s *Store[S]) Load(ctx context.Context, seed func() *S) error {
	ctx, span := s.tracer.Start(ctx, "statestore.load", trace.WithAttributes(attribute.String("store", s.name)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	state := new(S)
	var seeded *S
	fallback := make([]string, 0)

	for key, target := range s.collections(state) {
		data, err := s.snapshots.Get(ctx, key)
		if err == nil {
			if err = s.codec.Decode(data, target); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "snapshot unreadable")
				return fmt.Errorf("%w: decode %s: %w", ErrLoadFailed, key, err)
			}
			continue
		}
		if !errors.Is(err, snapshotdomain.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "snapshot read failed")
			return fmt.Errorf("%w: read %s: %w", ErrLoadFailed, key, err)
		}

		if seed == nil {
			continue
		}
		if seeded == nil {
			seeded = seed()
		}
		if err := copyCollection(s.collections(seeded)[key], target); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "seed copy failed")
			return fmt.Errorf("seed %s: %w", key, err)
		}
		fallback = append(fallback, key)
	}

	if s.afterLoad != nil {
		s.afterLoad(state)
	}
	s.state = state

	sort.Strings(fallback)
	if len(fallback) > 0 {
		s.log.Info("collections seeded", zap.Strings("keys", fallback))
		s.persistLocked(ctx, fallback)
	}
	return nil
}

// View runs fn under the read lock. fn must not retain pointers into the
// state after it returns.
func (s *Store[S]) View(fn func(state *S)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Update runs fn under the write lock. fn must validate before it mutates:
// an error return leaves nothing persisted and publishes nothing. Snapshot
// failures are absorbed, the in-memory state stays authoritative.
func (s *Store[S]) Update(ctx context.Context, op string, fn func(tx *Tx[S]) error) error {
	ctx, span := s.tracer.Start(ctx, "statestore.update", trace.WithAttributes(
		attribute.String("store", s.name),
		attribute.String("operation", op),
	))
	defer span.End()

	s.mu.Lock()
	tx := &Tx[S]{state: s.state, touched: make(map[string]struct{})}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		span.SetAttributes(attribute.String("outcome", "rejected"))
		return err
	}
	s.persistLocked(ctx, tx.touchedKeys())
	s.mu.Unlock()

	s.publish(ctx, tx.events)
	return nil
}

// Flush rewrites every collection, clearing earlier failures when the
// backend recovered.
func (s *Store[S]) Flush(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for key := range s.collections(s.state) {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s.persistLocked(ctx, keys)
	return s.PersistError()
}

// PersistError reports the collections whose latest write failed.
func (s *Store[S]) PersistError() error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if len(s.failures) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.failures))
	for key := range s.failures {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, key := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", key, s.failures[key]))
	}
	return errors.Join(errs...)
}

func (s *Store[S]) persistLocked(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	cols := s.collections(s.state)
	for _, key := range keys {
		err := s.writeKey(ctx, key, cols[key])
		s.metrics.RecordSnapshotWrite(s.name, key, err)

		s.failMu.Lock()
		if err != nil {
			s.failures[key] = err
		} else {
			delete(s.failures, key)
		}
		s.failMu.Unlock()

		if err != nil {
			s.log.Warn("snapshot write failed, store degraded",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}

func (s *Store[S]) writeKey(ctx context.Context, key string, value any) error {
	if value == nil {
		return fmt.Errorf("unknown collection %q", key)
	}
	data, err := s.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := s.snapshots.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

func (s *Store[S]) publish(ctx context.Context, evts []events.Event) {
	if s.publisher == nil {
		return
	}
	for _, evt := range evts {
		err := s.publisher.Publish(ctx, evt)
		s.metrics.RecordEvent(evt.Type, err)
		if err != nil {
			s.log.Warn("publish event failed",
				zap.String("event_type", evt.Type),
				zap.String("event_id", evt.ID),
				zap.Error(err),
			)
		}
	}
}

func copyCollection(src, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
