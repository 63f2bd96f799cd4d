package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osworks/servicedesk-api/internal/models"
)

func TestSummarizeEmptyOrderSetSeedsStatusBuckets(t *testing.T) {
	reg := shopRegistry()

	summary := Summarize(nil, reg)

	assert.Zero(t, summary.ActiveCount)
	require.Len(t, summary.PerStatusActiveCount, reg.Len())
	for _, status := range reg.List() {
		assert.Zero(t, summary.PerStatusActiveCount[status.ID])
	}
	assert.Empty(t, summary.PerAnalystCreatedCount)
	assert.Empty(t, summary.PerAnalystFinalizedCount)
}

func TestSummarizeCountsActiveAndCreated(t *testing.T) {
	reg := shopRegistry()
	orders := []models.ServiceOrder{
		{ID: "os-1", StatusID: "open", Analyst: "Alice"},
		{ID: "os-2", StatusID: "repairing", Analyst: "Alice"},
		{ID: "os-3", StatusID: "open", Analyst: ""},
		{ID: "os-4", StatusID: "delivered", Analyst: "Bruno"},
	}

	summary := Summarize(orders, reg)

	assert.Equal(t, 3, summary.ActiveCount)
	assert.Equal(t, 2, summary.PerStatusActiveCount["open"])
	assert.Equal(t, 1, summary.PerStatusActiveCount["repairing"])
	assert.Zero(t, summary.PerStatusActiveCount["delivered"])

	assert.Equal(t, 2, summary.PerAnalystCreatedCount["Alice"])
	assert.Equal(t, 1, summary.PerAnalystCreatedCount["Bruno"])
	assert.Equal(t, 1, summary.PerAnalystCreatedCount[UnassignedAnalyst])
}

func TestSummarizeAttributesFinalizationToLastFinalLog(t *testing.T) {
	reg := shopRegistry()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	orders := []models.ServiceOrder{
		{
			ID:       "os-1",
			StatusID: "delivered",
			Analyst:  "Alice",
			Logs: []models.LogEntry{
				{Timestamp: base, Responsible: "Alice", FromStatusID: "open", ToStatusID: "repairing"},
				{Timestamp: base.Add(time.Hour), Responsible: "Bruno", FromStatusID: "repairing", ToStatusID: "delivered"},
			},
		},
		{
			// Reopened and finalized again: only the latest final entry counts.
			ID:       "os-2",
			StatusID: "cancelled",
			Analyst:  "Bruno",
			Logs: []models.LogEntry{
				{Timestamp: base, Responsible: "Alice", FromStatusID: "open", ToStatusID: "cancelled"},
				{Timestamp: base.Add(time.Hour), Responsible: "Alice", FromStatusID: "cancelled", ToStatusID: "open"},
				{Timestamp: base.Add(2 * time.Hour), Responsible: "Carla", FromStatusID: "open", ToStatusID: "cancelled"},
			},
		},
	}

	summary := Summarize(orders, reg)

	assert.Equal(t, 1, summary.PerAnalystFinalizedCount["Bruno"])
	assert.Equal(t, 1, summary.PerAnalystFinalizedCount["Carla"])
	assert.NotContains(t, summary.PerAnalystFinalizedCount, "Alice")
}

func TestSummarizeFinalOrderWithoutFinalLogIsSkipped(t *testing.T) {
	reg := shopRegistry()
	orders := []models.ServiceOrder{
		{ID: "os-1", StatusID: "delivered", Analyst: "Alice"},
	}

	summary := Summarize(orders, reg)

	assert.Zero(t, summary.ActiveCount)
	assert.Empty(t, summary.PerAnalystFinalizedCount)
	assert.Equal(t, 1, summary.PerAnalystCreatedCount["Alice"])
}
