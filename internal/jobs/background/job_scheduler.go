package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/jobs"
	"storefront/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Config holds the schedule of the background jobs.
type Config struct {
	LowStockThreshold  int
	LowStockInterval   time.Duration
	CacheSweepInterval time.Duration
}

// JobScheduler runs the periodic maintenance jobs
type JobScheduler struct {
	scheduler   gocron.Scheduler
	alerts      *jobs.InventoryAlertService
	invalidator services.CacheInvalidationService
	cfg         Config
	ctx         context.Context
	cancel      context.CancelFunc
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

// NewJobScheduler creates a scheduler with the low stock and cache sweep jobs registered.
func NewJobScheduler(cfg Config, alerts *jobs.InventoryAlertService, invalidator services.CacheInvalidationService) (*JobScheduler, error) {
	if cfg.LowStockInterval <= 0 {
		cfg.LowStockInterval = 30 * time.Minute
	}
	if cfg.CacheSweepInterval <= 0 {
		cfg.CacheSweepInterval = time.Hour
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler:   scheduler,
		alerts:      alerts,
		invalidator: invalidator,
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		jobs:        make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Info().Strs("jobs", js.JobNames()).Msg("starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return
func (js *JobScheduler) Stop() error {
	log.Info().Msg("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	if err := js.AddJob("low-stock-alerts", js.cfg.LowStockInterval, js.checkLowStock); err != nil {
		return err
	}
	return js.AddJob("cache-registry-sweep", js.cfg.CacheSweepInterval, js.sweepCache)
}

func (js *JobScheduler) checkLowStock() error {
	return js.alerts.ScheduledLowStockCheck(js.ctx, js.cfg.LowStockThreshold)
}

func (js *JobScheduler) sweepCache() error {
	removed, err := js.invalidator.Sweep(js.ctx)
	if err != nil {
		log.Error().Err(err).Msg("cache registry sweep failed")
		return err
	}
	log.Info().Int("removed", removed).Msg("cache registry sweep completed")
	return nil
}

// AddJob schedules taskFn every interval, starting immediately. Runs never overlap.
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn func() error) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	js.jobs[name] = job
	log.Debug().Str("job", name).Dur("interval", interval).Msg("registered background job")
	return nil
}

// JobNames lists the registered jobs.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}
