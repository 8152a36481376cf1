package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSweeper struct {
	mu     sync.Mutex
	calls  int
	failN  int
	result int
}

func (f *fakeSweeper) SweepLowStock(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failN {
		return 0, errors.New("database is locked")
	}
	return f.result, nil
}

func (f *fakeSweeper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticTenants []string

func (s staticTenants) Tenants() []string { return s }

func sweepersOf(m map[string]*fakeSweeper) SweeperSource {
	return func(_ context.Context, tenant string) (LowStockSweeper, error) {
		s, ok := m[tenant]
		if !ok {
			return nil, errors.New("unknown tenant")
		}
		return s, nil
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob("downtown", JobKindLowStockSweep, 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Second)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.NextRetryAt)

	job.Start()
	job.Fail("boom again")
	assert.False(t, job.ShouldRetry(), "retries are exhausted")

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestScheduler_RunsSweepsPerTenant(t *testing.T) {
	downtown := &fakeSweeper{result: 2}
	uptown := &fakeSweeper{}
	executor := NewLowStockSweepExecutor(sweepersOf(map[string]*fakeSweeper{"downtown": downtown, "uptown": uptown}), zaptest.NewLogger(t))

	s := NewScheduler(Config{MaxConcurrentJobs: 2, JobTimeout: time.Second}, executor, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.SubmitSweep([]string{"downtown", "uptown"}))

	assert.Eventually(t, func() bool {
		return downtown.Calls() == 1 && uptown.Calls() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	flaky := &fakeSweeper{failN: 2}
	executor := NewLowStockSweepExecutor(sweepersOf(map[string]*fakeSweeper{"downtown": flaky}), nil)

	s := NewScheduler(Config{MaxConcurrentJobs: 1, RetryAttempts: 3, RetryDelay: time.Millisecond}, executor, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.SubmitJob(NewJob("downtown", JobKindLowStockSweep, 3)))

	assert.Eventually(t, func() bool { return flaky.Calls() == 3 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, flaky.Calls(), "a successful run is not retried")
}

func TestScheduler_SubmitWhenStopped(t *testing.T) {
	s := NewScheduler(DefaultConfig(), NewLowStockSweepExecutor(sweepersOf(nil), nil), nil)
	assert.ErrorIs(t, s.SubmitJob(NewJob("downtown", JobKindLowStockSweep, 0)), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, s.SubmitSweep([]string{"downtown"}), ErrSchedulerNotRunning)
}

func TestLowStockSweepExecutor_Errors(t *testing.T) {
	executor := NewLowStockSweepExecutor(sweepersOf(map[string]*fakeSweeper{}), nil)

	err := executor.Execute(context.Background(), NewJob("downtown", JobKind("REPORT"), 0))
	assert.ErrorIs(t, err, ErrUnknownJobKind)

	err = executor.Execute(context.Background(), NewJob("ghost", JobKindLowStockSweep, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open tenant ghost")
}

func TestCronTrigger_CheckAndTrigger(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)

	sweeper := &fakeSweeper{}
	s := NewScheduler(Config{MaxConcurrentJobs: 1}, NewLowStockSweepExecutor(sweepersOf(map[string]*fakeSweeper{"downtown": sweeper}), nil), nil)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	trigger := NewCronTrigger(CronTriggerConfig{Hour: 7, Minute: 30, Location: tehran}, s, staticTenants{"downtown"}, zaptest.NewLogger(t))

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before the sweep time", time.Date(2025, 1, 15, 7, 29, 0, 0, tehran), false},
		{"at the sweep time", time.Date(2025, 1, 15, 7, 30, 0, 0, tehran), true},
		{"later the same day", time.Date(2025, 1, 15, 18, 0, 0, 0, tehran), false},
		// 04:00 UTC is 07:30 in Tehran
		{"next day given in UTC", time.Date(2025, 1, 16, 4, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger.now = func() time.Time { return tt.now }
			assert.Equal(t, tt.want, trigger.checkAndTrigger())
		})
	}

	assert.Eventually(t, func() bool { return sweeper.Calls() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestCronTrigger_StartStop(t *testing.T) {
	s := NewScheduler(DefaultConfig(), NewLowStockSweepExecutor(sweepersOf(nil), nil), nil)
	trigger := NewCronTrigger(CronTriggerConfig{CheckInterval: 10 * time.Millisecond}, s, staticTenants{}, nil)

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()), "second start is a no-op")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, trigger.Stop(ctx))
	assert.NoError(t, trigger.Stop(ctx))
}
