package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Len(t, config.TaskConfigs, 4)

	orders := config.TaskConfigs[TaskIDProcessOrders]
	assert.True(t, orders.Enabled)
	assert.Equal(t, 15*time.Minute, orders.Interval)

	upsell := config.TaskConfigs[TaskIDUpsellCampaigns]
	assert.True(t, upsell.Enabled)
	assert.Equal(t, 1*time.Hour, upsell.Interval)

	refresh := config.TaskConfigs[TaskIDSymptomRefresh]
	assert.True(t, refresh.Enabled)
	assert.Equal(t, 24*time.Hour, refresh.Interval)

	report := config.TaskConfigs[TaskIDDailyReport]
	assert.True(t, report.Enabled)
	assert.Equal(t, 24*time.Hour, report.Interval)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	cfg := config.GetTaskConfig(TaskIDProcessOrders)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Interval)

	unknown := config.GetTaskConfig("unknown-task")
	assert.False(t, unknown.Enabled)
	assert.Equal(t, time.Duration(0), unknown.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{Enabled: true}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestTaskConstants(t *testing.T) {
	assert.Equal(t, "process-orders", TaskIDProcessOrders)
	assert.Equal(t, "upsell-campaigns", TaskIDUpsellCampaigns)
	assert.Equal(t, "symptom-refresh", TaskIDSymptomRefresh)
	assert.Equal(t, "daily-report", TaskIDDailyReport)
}
