package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TenantProvider lists the tenants a sweep covers
type TenantProvider interface {
	Tenants() []string
}

// CronTriggerConfig holds configuration for the daily trigger
type CronTriggerConfig struct {
	// Hour and Minute of the daily sweep, in Location
	Hour     int
	Minute   int
	Location *time.Location

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// CronTrigger submits a low-stock sweep for every tenant once a day
type CronTrigger struct {
	config         CronTriggerConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger
	now            func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new daily trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, tenantProvider TenantProvider, logger *zap.Logger) *CronTrigger {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
		now:            time.Now,
	}
}

// Start starts the check loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Low-stock sweep trigger started",
		zap.Int("hour", c.config.Hour),
		zap.Int("minute", c.config.Minute),
		zap.String("location", c.config.Location.String()),
	)
	return nil
}

// Stop stops the check loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the sweep once the configured time of day has passed,
// at most once per local date
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now().In(c.config.Location)
	currentDate := now.Format("2006-01-02")

	due := time.Date(now.Year(), now.Month(), now.Day(), c.config.Hour, c.config.Minute, 0, 0, c.config.Location)
	if now.Before(due) {
		return false
	}

	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.TriggerNow()
	return true
}

// TriggerNow submits a sweep for every tenant immediately
func (c *CronTrigger) TriggerNow() {
	tenants := c.tenantProvider.Tenants()
	c.logger.Info("Submitting low-stock sweep", zap.Int("tenant_count", len(tenants)))
	if err := c.scheduler.SubmitSweep(tenants); err != nil {
		c.logger.Error("Failed to submit low-stock sweep", zap.Error(err))
	}
}
