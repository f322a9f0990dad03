package services

import (
	"context"
	"sync"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
	"github.com/mecaclair/dispatch/internal/core/ports/driving"
	"github.com/mecaclair/dispatch/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler drives the recurring background passes. Task state lives
// in the store so intervals survive restarts. Tasks run sequentially
// within a tick; fulfillment, campaigns, refresh and reporting all
// touch the same database and interleaving them buys nothing.
type Scheduler struct {
	config      domain.SchedulerConfig
	store       driven.SchedulerStore
	fulfillment driving.FulfillmentService
	campaigns   driving.CampaignService
	knowledge   driving.KnowledgeService
	report      driving.ReportService
	now         func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. The clock parameter is optional;
// when nil, time.Now is used.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	fulfillment driving.FulfillmentService,
	campaigns driving.CampaignService,
	knowledge driving.KnowledgeService,
	report driving.ReportService,
	clock func() time.Time,
) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		config:      config,
		store:       store,
		fulfillment: fulfillment,
		campaigns:   campaigns,
		knowledge:   knowledge,
		report:      report,
		now:         clock,
	}
}

// taskNames maps task IDs to their display names.
var taskNames = map[string]string{
	domain.TaskIDProcessOrders:   "Order Fulfillment",
	domain.TaskIDUpsellCampaigns: "Upsell Campaigns",
	domain.TaskIDSymptomRefresh:  "Knowledge Refresh",
	domain.TaskIDDailyReport:     "Daily Report",
}

// Start begins the scheduler loop. Blocks until the context is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("Scheduler failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler. An in-flight tick is
// allowed to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// RunOnce executes every enabled task a single time, ignoring the
// persisted schedule. Task state and history are still recorded.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.initialiseTasks(ctx); err != nil {
		return err
	}

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		s.runTask(ctx, task)
	}
	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, id := range []string{
		domain.TaskIDProcessOrders,
		domain.TaskIDUpsellCampaigns,
		domain.TaskIDSymptomRefresh,
		domain.TaskIDDailyReport,
	} {
		cfg := s.config.GetTaskConfig(id)
		if err := s.ensureTask(ctx, id, taskNames[id], cfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.tick(ctx)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs every due task, one after another.
func (s *Scheduler) tick(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("Scheduler failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task and records its outcome.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: s.now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDProcessOrders:
		result.ItemsProcessed, err = s.fulfillment.ProcessPendingOrders(ctx)
	case domain.TaskIDUpsellCampaigns:
		result.ItemsProcessed, err = s.campaigns.SendCampaigns(ctx)
	case domain.TaskIDSymptomRefresh:
		result.ItemsProcessed, err = s.knowledge.Refresh(ctx)
	case domain.TaskIDDailyReport:
		_, err = s.report.GenerateDailyReport(ctx)
	default:
		logger.Warn("Scheduler: unknown task ID %s", task.ID)
		return
	}

	result.EndedAt = s.now()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		task.LastError = err.Error()
		logger.Error("Task %s failed: %v", task.ID, err)
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
		logger.Debug("Task %s done: %d item(s) in %s",
			task.ID, result.ItemsProcessed, result.EndedAt.Sub(result.StartedAt))
	}

	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Error("Scheduler failed to save task %s: %v", task.ID, saveErr)
	}
	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		logger.Error("Scheduler failed to record result for %s: %v", task.ID, recordErr)
	}
	// Keep the last 100 results per task.
	if pruneErr := s.store.PruneHistory(ctx, 100); pruneErr != nil {
		logger.Error("Scheduler failed to prune history: %v", pruneErr)
	}
}
