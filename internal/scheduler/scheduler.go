package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/clock"
	obsmetrics "github.com/smallbiznis/snelcrm/internal/observability/metrics"
	ticketingstore "github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrNoStores = errors.New("scheduler: no store to maintain")

// Flusher is a store whose snapshots can be rewritten in full.
type Flusher interface {
	Name() string
	Flush(ctx context.Context) error
	PersistError() error
}

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  Config              `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`

	BillingStore   *billingstore.Store   `optional:"true"`
	TicketingStore *ticketingstore.Store `optional:"true"`
}

// Scheduler keeps store snapshots converging on the in-memory state. Writes
// that failed during a request are retried on every tick, and every store is
// rewritten in full once per flush interval.
type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
	stores  []Flusher

	lastFlush time.Time
}

func New(p Params) (*Scheduler, error) {
	stores := make([]Flusher, 0, 2)
	if p.BillingStore != nil {
		stores = append(stores, p.BillingStore)
	}
	if p.TicketingStore != nil {
		stores = append(stores, p.TicketingStore)
	}
	return NewWithStores(p.Log, p.GenID, p.Clock, p.Config, p.Metrics, stores...)
}

func NewWithStores(log *zap.Logger, genID *snowflake.Node, clk clock.Clock, cfg Config, metrics *obsmetrics.Metrics, stores ...Flusher) (*Scheduler, error) {
	if log == nil || genID == nil || clk == nil {
		return nil, errors.New("scheduler: missing dependency")
	}
	if len(stores) == 0 {
		return nil, ErrNoStores
	}
	return &Scheduler{
		log:     log.Named("scheduler"),
		cfg:     cfg.withDefaults(),
		genID:   genID,
		clock:   clk,
		metrics: metrics,
		stores:  stores,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	s.logJobStart(ctx, run)

	err := fn(ctx)
	s.metrics.RecordJob(name, s.clock.Now().Sub(start), err)
	if err != nil && run.errorCount == 0 {
		run.IncError()
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	// deadline is a soft timeout, the next tick picks up the rest
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobSnapshotRetry, s.SnapshotRetryJob},
		{JobSnapshotFlush, s.SnapshotFlushJob},
	}
	for _, job := range jobs {
		if !s.cfg.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SnapshotRetryJob rewrites the stores that hold failed writes.
func (s *Scheduler) SnapshotRetryJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	var errs error
	for _, store := range s.stores {
		if store.PersistError() == nil {
			continue
		}
		if err := store.Flush(ctx); err != nil {
			run.IncError()
			s.logger(ctx).Warn("store still degraded",
				zap.String("store", store.Name()),
				zap.Error(err),
			)
			errs = errors.Join(errs, err)
			continue
		}
		run.AddProcessed(1)
		s.logger(ctx).Info("store recovered", zap.String("store", store.Name()))
	}
	return errs
}

// SnapshotFlushJob rewrites every store once per flush interval.
func (s *Scheduler) SnapshotFlushJob(ctx context.Context) error {
	now := s.clock.Now()
	if !s.lastFlush.IsZero() && now.Sub(s.lastFlush) < s.cfg.FlushInterval {
		return nil
	}
	if err := s.flush(ctx, jobRunFromContext(ctx)); err != nil {
		return err
	}
	s.lastFlush = now
	return nil
}

func (s *Scheduler) flush(ctx context.Context, run *jobRun) error {
	var errs error
	for _, store := range s.stores {
		if err := store.Flush(ctx); err != nil {
			run.IncError()
			errs = errors.Join(errs, fmt.Errorf("%s: %w", store.Name(), err))
			continue
		}
		run.AddProcessed(1)
	}
	return errs
}
