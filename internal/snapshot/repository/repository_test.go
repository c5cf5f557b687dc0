package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/snelcrm/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return conn
}

func exerciseStore(t *testing.T, store domain.Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "snel.meters")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Put(ctx, "snel.meters", []byte(`{"version":1,"data":[]}`)))
	require.NoError(t, store.Put(ctx, "snel.meters", []byte(`{"version":1,"data":[1]}`)))

	got, err := store.Get(ctx, "snel.meters")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"data":[1]}`, string(got))

	assert.ErrorIs(t, store.Put(ctx, "", nil), domain.ErrInvalidKey)
}

func TestGormStoreUpserts(t *testing.T) {
	store, err := NewGormStore(setupTestDB(t))
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)
	assert.Equal(t, 2, store.Puts())

	store.FailPuts(errors.New("disk full"))
	assert.Error(t, store.Put(context.Background(), "snel.meters", []byte(`{}`)))
	store.FailPuts(nil)
	assert.NoError(t, store.Put(context.Background(), "snel.meters", []byte(`{}`)))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SNELCRM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SNELCRM_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	store, err := NewRedisStore(client, fmt.Sprintf("test:%d:", time.Now().UnixNano()))
	require.NoError(t, err)
	exerciseStore(t, store)
}
