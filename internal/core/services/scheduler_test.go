package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

type stubFulfillment struct {
	n     int
	err   error
	calls int
}

func (s *stubFulfillment) ProcessPendingOrders(context.Context) (int, error) {
	s.calls++
	return s.n, s.err
}

type stubCampaigns struct {
	n     int
	err   error
	calls int
}

func (s *stubCampaigns) SendCampaigns(context.Context) (int, error) {
	s.calls++
	return s.n, s.err
}

type stubReport struct {
	err   error
	calls int
}

func (s *stubReport) GenerateDailyReport(context.Context) (string, error) {
	s.calls++
	return "reports/report.txt", s.err
}

// schedulerFixture holds a scheduler over stub passes and an in-memory
// task store.
type schedulerFixture struct {
	store       *fakeSchedulerStore
	fulfillment *stubFulfillment
	campaigns   *stubCampaigns
	report      *stubReport
	scheduler   *Scheduler
	now         time.Time
}

func setupScheduler(t *testing.T, config domain.SchedulerConfig) *schedulerFixture {
	t.Helper()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeSchedulerStore()
	fulfillment := &stubFulfillment{n: 3}
	campaigns := &stubCampaigns{n: 2}
	report := &stubReport{}
	knowledge := NewKnowledge(newFakeSymptomStore(), nil, nil, &fakeObservationSource{
		queue: []domain.Observation{{SymptomText: "Hard cold start", Cause: "Worn glow plugs"}},
	}, nil)

	scheduler := NewScheduler(config, store, fulfillment, campaigns, knowledge, report, fixedClock(now))
	return &schedulerFixture{
		store:       store,
		fulfillment: fulfillment,
		campaigns:   campaigns,
		report:      report,
		scheduler:   scheduler,
		now:         now,
	}
}

func TestRunOnce_RunsEveryEnabledTask(t *testing.T) {
	f := setupScheduler(t, domain.DefaultSchedulerConfig())
	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	assert.Equal(t, 1, f.fulfillment.calls)
	assert.Equal(t, 1, f.campaigns.calls)
	assert.Equal(t, 1, f.report.calls)

	tasks, err := f.store.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for _, task := range tasks {
		assert.Equal(t, f.now, task.LastRun, "task %s", task.ID)
		assert.Equal(t, f.now, task.LastSuccess, "task %s", task.ID)
		assert.Equal(t, f.now.Add(task.Interval), task.NextRun, "task %s", task.ID)
		assert.Empty(t, task.LastError)
	}

	orders := f.store.resultsFor(domain.TaskIDProcessOrders)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Success)
	assert.Equal(t, 3, orders[0].ItemsProcessed)

	refresh := f.store.resultsFor(domain.TaskIDSymptomRefresh)
	require.Len(t, refresh, 1)
	assert.Equal(t, 1, refresh[0].ItemsProcessed, "refresh reports ingested observations")
}

func TestRunOnce_SkipsDisabledTasks(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	cfg := config.TaskConfigs[domain.TaskIDDailyReport]
	cfg.Enabled = false
	config.TaskConfigs[domain.TaskIDDailyReport] = cfg

	f := setupScheduler(t, config)
	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	assert.Zero(t, f.report.calls)
	assert.Empty(t, f.store.resultsFor(domain.TaskIDDailyReport))

	task, err := f.store.GetTask(context.Background(), domain.TaskIDDailyReport)
	require.NoError(t, err)
	require.NotNil(t, task, "disabled tasks still exist in the store")
	assert.False(t, task.Enabled)
}

func TestRunOnce_FailureRecordedAndOthersStillRun(t *testing.T) {
	f := setupScheduler(t, domain.DefaultSchedulerConfig())
	f.fulfillment.err = errors.New("smtp down")

	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	results := f.store.resultsFor(domain.TaskIDProcessOrders)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "smtp down", results[0].Error)

	task, err := f.store.GetTask(context.Background(), domain.TaskIDProcessOrders)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "smtp down", task.LastError)
	assert.True(t, task.LastSuccess.IsZero())

	assert.Equal(t, 1, f.campaigns.calls, "one failing task does not block the rest")
	assert.Equal(t, 1, f.report.calls)
}

func TestRunOnce_ClearsLastErrorOnSuccess(t *testing.T) {
	f := setupScheduler(t, domain.DefaultSchedulerConfig())
	f.fulfillment.err = errors.New("transient")
	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	f.fulfillment.err = nil
	require.NoError(t, f.scheduler.RunOnce(context.Background()))

	task, err := f.store.GetTask(context.Background(), domain.TaskIDProcessOrders)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Empty(t, task.LastError)
	assert.Equal(t, f.now, task.LastSuccess)
}

func TestStart_RunsDueTasksAndStops(t *testing.T) {
	f := setupScheduler(t, domain.DefaultSchedulerConfig())

	// A task persisted with an overdue NextRun runs on the first tick.
	require.NoError(t, f.store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDProcessOrders,
		Name:     "Order Fulfillment",
		Interval: 15 * time.Minute,
		NextRun:  f.now.Add(-time.Minute),
		Enabled:  true,
	}))

	done := make(chan error, 1)
	go func() { done <- f.scheduler.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return len(f.store.resultsFor(domain.TaskIDProcessOrders)) > 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.scheduler.Stop())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	// Tasks freshly created at startup are scheduled out one interval
	// and must not have run.
	assert.Empty(t, f.store.resultsFor(domain.TaskIDDailyReport))
	assert.Zero(t, f.report.calls)

	assert.NoError(t, f.scheduler.Stop(), "stopping twice is harmless")
}

func TestStart_ContextCancellation(t *testing.T) {
	f := setupScheduler(t, domain.DefaultSchedulerConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.scheduler.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not honor cancellation")
	}
}
