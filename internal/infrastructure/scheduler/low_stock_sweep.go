package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LowStockSweeper publishes alerts for every low balance of one tenant
type LowStockSweeper interface {
	SweepLowStock(ctx context.Context) (int, error)
}

// SweeperSource resolves the sweeper of a tenant
type SweeperSource func(ctx context.Context, tenant string) (LowStockSweeper, error)

// LowStockSweepExecutor runs JobKindLowStockSweep jobs
type LowStockSweepExecutor struct {
	sweepers SweeperSource
	logger   *zap.Logger
}

// NewLowStockSweepExecutor creates the executor
func NewLowStockSweepExecutor(sweepers SweeperSource, logger *zap.Logger) *LowStockSweepExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockSweepExecutor{sweepers: sweepers, logger: logger}
}

// Execute implements JobExecutor
func (e *LowStockSweepExecutor) Execute(ctx context.Context, job *Job) error {
	if job.Kind != JobKindLowStockSweep {
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}
	sweeper, err := e.sweepers(ctx, job.Tenant)
	if err != nil {
		return fmt.Errorf("open tenant %s: %w", job.Tenant, err)
	}
	low, err := sweeper.SweepLowStock(ctx)
	if err != nil {
		return err
	}
	e.logger.Info("Low-stock sweep finished",
		zap.String("tenant", job.Tenant),
		zap.Int("low_balances", low),
	)
	return nil
}
