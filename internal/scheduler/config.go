package scheduler

import (
	"strings"
	"time"

	"github.com/smallbiznis/snelcrm/internal/config"
)

const (
	JobSnapshotRetry = "snapshot_retry"
	JobSnapshotFlush = "snapshot_flush"
)

// Config controls scheduler intervals and which jobs run.
type Config struct {
	RunInterval   time.Duration
	FlushInterval time.Duration
	JobTimeout    time.Duration
	EnabledJobs   []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:   30 * time.Second,
		FlushInterval: 15 * time.Minute,
		JobTimeout:    30 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:   cfg.Scheduler.RunInterval,
		FlushInterval: cfg.Scheduler.FlushInterval,
		EnabledJobs:   cfg.Scheduler.EnabledJobs,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaults.FlushInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func (c Config) isJobEnabled(job string) bool {
	// no list means every job
	if len(c.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range c.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), job) {
			return true
		}
	}
	return false
}
