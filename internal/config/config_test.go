package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "REDIS")
	t.Setenv("KAFKA_ENABLED", "yes")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("SNOWFLAKE_NODE", "7")
	t.Setenv("SCHEDULER_RUN_INTERVAL", "5s")
	t.Setenv("SCHEDULER_FLUSH_INTERVAL", "soon")
	t.Setenv("SCHEDULER_ENABLED_JOBS", "snapshot_retry")

	cfg := Load()

	assert.Equal(t, SnapshotBackendRedis, cfg.Snapshot.Backend)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, int64(7), cfg.SnowflakeNode)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.RunInterval)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.FlushInterval)
	assert.Equal(t, []string{"snapshot_retry"}, cfg.Scheduler.EnabledJobs)
}

func TestNormalizeBackendFallsBackToDatabase(t *testing.T) {
	assert.Equal(t, SnapshotBackendDatabase, normalizeBackend("db"))
	assert.Equal(t, SnapshotBackendDatabase, normalizeBackend("etcd"))
	assert.Equal(t, SnapshotBackendMemory, normalizeBackend(" memory "))
}
