package workflow

import (
	"github.com/osworks/servicedesk-api/internal/models"
)

// UnassignedAnalyst is the bucket label used when an order has no
// analyst recorded.
const UnassignedAnalyst = "unassigned"

// Summary is the dashboard aggregate derived from the full order set.
type Summary struct {
	ActiveCount              int            `json:"activeCount"`
	PerStatusActiveCount     map[string]int `json:"perStatusActiveCount"`
	PerAnalystCreatedCount   map[string]int `json:"perAnalystCreatedCount"`
	PerAnalystFinalizedCount map[string]int `json:"perAnalystFinalizedCount"`
}

// Summarize recomputes the dashboard aggregate by replaying every order
// against the registry. Status buckets are pre-seeded with zeros so
// empty statuses stay visible. Finalized orders are attributed to the
// responsible of the most recent log entry whose target is a final
// status, scanning the ledger in reverse.
func Summarize(orders []models.ServiceOrder, reg *Registry) Summary {
	finalIDs := reg.FinalStatusIDs()

	summary := Summary{
		PerStatusActiveCount:     make(map[string]int, reg.Len()),
		PerAnalystCreatedCount:   make(map[string]int),
		PerAnalystFinalizedCount: make(map[string]int),
	}
	for _, status := range reg.List() {
		summary.PerStatusActiveCount[status.ID] = 0
	}

	for i := range orders {
		order := &orders[i]
		_, isFinal := finalIDs[order.StatusID]

		if !isFinal {
			summary.ActiveCount++
			summary.PerStatusActiveCount[order.StatusID]++
		}

		analyst := order.Analyst
		if analyst == "" {
			analyst = UnassignedAnalyst
		}
		summary.PerAnalystCreatedCount[analyst]++

		if isFinal {
			if responsible, ok := finalizingResponsible(order.Logs, finalIDs); ok {
				summary.PerAnalystFinalizedCount[responsible]++
			}
		}
	}

	return summary
}

func finalizingResponsible(logs []models.LogEntry, finalIDs map[string]struct{}) (string, bool) {
	for i := len(logs) - 1; i >= 0; i-- {
		if _, ok := finalIDs[logs[i].ToStatusID]; ok {
			responsible := logs[i].Responsible
			if responsible == "" {
				responsible = UnassignedAnalyst
			}
			return responsible, true
		}
	}
	return "", false
}
