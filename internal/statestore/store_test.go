package statestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/snelcrm/internal/events"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	"github.com/smallbiznis/snelcrm/internal/snapshot/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type counterState struct {
	Counters map[string]int `json:"counters"`
	Log      []string       `json:"log"`
}

func counterCollections(s *counterState) map[string]any {
	return map[string]any{
		"test.counters": &s.Counters,
		"test.log":      &s.Log,
	}
}

func seedCounters() *counterState {
	return &counterState{
		Counters: map[string]int{"a": 1},
		Log:      []string{"seeded"},
	}
}

func newTestStore(t *testing.T, backend *repository.MemoryStore, opts ...Option[counterState]) *Store[counterState] {
	t.Helper()
	opts = append(opts, WithAfterLoad(func(s *counterState) {
		if s.Counters == nil {
			s.Counters = make(map[string]int)
		}
	}))
	store := New("test", backend, snapshot.NewCodec("none"), counterCollections, zap.NewNop(), opts...)
	require.NoError(t, store.Load(context.Background(), seedCounters))
	return store
}

func increment(store *Store[counterState], key string) error {
	return store.Update(context.Background(), "increment", func(tx *Tx[counterState]) error {
		if key == "" {
			return errors.New("empty key")
		}
		tx.State().Counters[key]++
		tx.Touch("test.counters")
		tx.Emit(events.New("counter.incremented", key, time.Now(), nil))
		return nil
	})
}

func TestLoadSeedsMissingKeysAndPersistsThem(t *testing.T) {
	backend := repository.NewMemoryStore()
	store := newTestStore(t, backend)

	store.View(func(s *counterState) {
		assert.Equal(t, 1, s.Counters["a"])
		assert.Equal(t, []string{"seeded"}, s.Log)
	})
	assert.ElementsMatch(t, []string{"test.counters", "test.log"}, backend.Keys())
}

func TestSnapshotsSurviveReload(t *testing.T) {
	backend := repository.NewMemoryStore()
	store := newTestStore(t, backend)
	require.NoError(t, increment(store, "a"))
	require.NoError(t, increment(store, "b"))

	reloaded := newTestStore(t, backend)
	reloaded.View(func(s *counterState) {
		assert.Equal(t, 2, s.Counters["a"])
		assert.Equal(t, 1, s.Counters["b"])
	})
}

func TestSeedFallbackIsPerKey(t *testing.T) {
	backend := repository.NewMemoryStore()
	codec := snapshot.NewCodec("none")
	data, err := codec.Encode(map[string]int{"z": 9})
	require.NoError(t, err)
	require.NoError(t, backend.Put(context.Background(), "test.counters", data))

	store := newTestStore(t, backend)
	store.View(func(s *counterState) {
		assert.Equal(t, map[string]int{"z": 9}, s.Counters)
		assert.Equal(t, []string{"seeded"}, s.Log)
	})
}

func TestLoadRefusesUnreadableSnapshot(t *testing.T) {
	backend := repository.NewMemoryStore()
	require.NoError(t, backend.Put(context.Background(), "test.log", []byte("not json")))
	before := backend.Puts()

	store := New("test", backend, snapshot.NewCodec("none"), counterCollections, zap.NewNop())
	err := store.Load(context.Background(), seedCounters)
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorContains(t, err, "test.log")
	assert.Equal(t, before, backend.Puts())

	raw, err := backend.Get(context.Background(), "test.log")
	require.NoError(t, err)
	assert.Equal(t, []byte("not json"), raw)
}

func TestTransientReadFailureKeepsStoredData(t *testing.T) {
	backend := repository.NewMemoryStore()
	store := newTestStore(t, backend)
	for i := 0; i < 5; i++ {
		require.NoError(t, increment(store, "b"))
	}

	timeout := errors.New("redis: i/o timeout")
	backend.FailGets(timeout)
	failed := New("test", backend, snapshot.NewCodec("none"), counterCollections, zap.NewNop())
	err := failed.Load(context.Background(), seedCounters)
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, timeout)

	backend.FailGets(nil)
	reloaded := newTestStore(t, backend)
	reloaded.View(func(s *counterState) {
		assert.Equal(t, map[string]int{"a": 1, "b": 5}, s.Counters)
	})
}

func TestRejectedUpdatePersistsAndPublishesNothing(t *testing.T) {
	backend := repository.NewMemoryStore()
	recorder := &events.Recorder{}
	store := newTestStore(t, backend, WithPublisher[counterState](recorder))
	before := backend.Puts()

	assert.Error(t, increment(store, ""))
	assert.Equal(t, before, backend.Puts())
	assert.Empty(t, recorder.Events())

	require.NoError(t, increment(store, "a"))
	assert.Equal(t, before+1, backend.Puts())
	assert.Equal(t, []string{"counter.incremented"}, recorder.Types())
}

func TestPersistFailureKeepsStateAndReportsDegraded(t *testing.T) {
	backend := repository.NewMemoryStore()
	store := newTestStore(t, backend)

	backend.FailPuts(errors.New("disk full"))
	require.NoError(t, increment(store, "a"))
	store.View(func(s *counterState) {
		assert.Equal(t, 2, s.Counters["a"])
	})
	assert.ErrorContains(t, store.PersistError(), "test.counters")

	backend.FailPuts(nil)
	require.NoError(t, store.Flush(context.Background()))
	assert.NoError(t, store.PersistError())
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evt events.Event) error {
	return m.Called(ctx, evt).Error(0)
}

func TestPublishFailureDoesNotFailTheUpdate(t *testing.T) {
	backend := repository.NewMemoryStore()
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(evt events.Event) bool {
		return evt.Type == "counter.incremented" && evt.Subject == "b"
	})).Return(errors.New("broker down")).Once()
	store := newTestStore(t, backend, WithPublisher[counterState](pub))

	require.NoError(t, increment(store, "b"))
	store.View(func(s *counterState) {
		assert.Equal(t, 1, s.Counters["b"])
	})
	assert.NoError(t, store.PersistError())
	pub.AssertExpectations(t)
}
