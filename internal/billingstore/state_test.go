package billingstore

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	"github.com/smallbiznis/snelcrm/internal/snapshot/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNextSequenceIsMonotonicPerName(t *testing.T) {
	s := NewState()
	assert.Equal(t, int64(1), s.NextSequence("FAC-2024"))
	assert.Equal(t, int64(2), s.NextSequence("FAC-2024"))
	assert.Equal(t, int64(1), s.NextSequence("PAY-2024"))
}

func TestSortedOrdersByID(t *testing.T) {
	m := map[snowflake.ID]*customerdomain.Zone{
		3: {Code: "c"},
		1: {Code: "a"},
		2: {Code: "b"},
	}
	got := Sorted(m, func(z *customerdomain.Zone) bool { return z.Code != "b" })
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Code)
	assert.Equal(t, "c", got[1].Code)
}

func TestStateRoundTripsThroughSnapshots(t *testing.T) {
	backend := repository.NewMemoryStore()
	codec := snapshot.NewCodec(snapshot.EncodingSnappy)

	store := New(backend, codec, zap.NewNop())
	require.NoError(t, store.Load(context.Background(), nil))
	require.NoError(t, store.Update(context.Background(), "seed.client", func(tx *Tx) error {
		s := tx.State()
		s.Clients[10] = &customerdomain.Client{ID: 10, Number: "CLI-000001", MeterNumber: "MTR-1", Active: true}
		s.NextSequence("CLI")
		tx.Touch(KeyClients, KeySequences)
		return nil
	}))

	reloaded := New(backend, codec, zap.NewNop())
	require.NoError(t, reloaded.Load(context.Background(), nil))
	reloaded.View(func(s *State) {
		client, ok := s.ClientByMeterNumber("mtr-1")
		require.True(t, ok)
		assert.Equal(t, snowflake.ID(10), client.ID)
		assert.Equal(t, int64(1), s.Sequences["CLI"])
		assert.NotNil(t, s.Invoices)
	})
}
