package workflow

import (
	"sort"
	"strings"
	"time"

	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

// AvailableTargets computes the statuses reachable from current for an
// actor. Final statuses have no outgoing transitions for anyone. An
// actor holding the override capability may reach every other status;
// everyone else follows the configured allowed-next set, with dangling
// ids silently dropped. The result is deduplicated and sorted by order.
func AvailableTargets(current models.Status, override bool, reg *Registry) []models.Status {
	if current.IsFinal {
		return nil
	}

	candidates := make(map[string]models.Status)
	if override {
		for _, status := range reg.List() {
			if status.ID != current.ID {
				candidates[status.ID] = status
			}
		}
	} else {
		for _, id := range current.AllowedNextStatuses {
			if status, ok := reg.ByID(id); ok && status.ID != current.ID {
				candidates[status.ID] = status
			}
		}
	}

	targets := make([]models.Status, 0, len(candidates))
	for _, status := range candidates {
		targets = append(targets, status)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Order < targets[j].Order
	})
	return targets
}

// Request carries one transition attempt against an order.
type Request struct {
	TargetStatusID      string
	Note                string
	ConfirmedServiceIDs []string
	Actor               string
	Capabilities        models.CapabilitySet
	Now                 time.Time
}

// Plan is the validated outcome of a transition request. DetailOnly
// marks a same-status submit: the caller updates the order's details
// without appending a log entry. Otherwise Log holds the single entry
// to append and Target the status to persist.
type Plan struct {
	DetailOnly          bool
	Target              models.Status
	TechnicalSolution   string
	ConfirmedServiceIDs []string
	Log                 *models.LogEntry
	NotifyEmail         bool
}

// PlanTransition validates a transition request against the registry
// and returns the plan the caller must persist. It is the single
// gatekeeper: every caller (HTTP handler, batch job, test) goes through
// it, and UI-side checks are never the only enforcement.
func PlanTransition(order *models.ServiceOrder, req Request, reg *Registry) (*Plan, error) {
	if !req.Capabilities.Has(models.ResourceOrders, models.ActionUpdate) {
		return nil, appErrors.ErrPermissionDenied
	}

	current, ok := reg.ByID(order.StatusID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "order status is not configured in the registry")
	}
	if current.IsFinal {
		return nil, appErrors.ErrOrderFinalized
	}

	note := strings.TrimSpace(req.Note)
	confirmed := intersectConfirmed(order.ContractedServices, req.ConfirmedServiceIDs)

	if req.TargetStatusID == order.StatusID {
		return &Plan{
			DetailOnly:          true,
			Target:              current,
			TechnicalSolution:   note,
			ConfirmedServiceIDs: confirmed,
		}, nil
	}

	target, ok := reg.ByID(req.TargetStatusID)
	if !ok || !isAvailable(current, req.Capabilities.CanOverrideTransitions(), reg, target.ID) {
		return nil, appErrors.ErrInvalidTarget
	}

	if target.IsPickupStatus && note == "" {
		return nil, appErrors.ErrMissingNote
	}

	if target.TriggersEmail && !allContractedConfirmed(order.ContractedServices, req.ConfirmedServiceIDs) {
		return nil, appErrors.ErrIncompleteServices
	}

	var observation *string
	if note != "" {
		value := note
		observation = &value
	}

	return &Plan{
		Target:              target,
		TechnicalSolution:   note,
		ConfirmedServiceIDs: confirmed,
		Log: &models.LogEntry{
			OrderID:      order.ID,
			Timestamp:    req.Now,
			Responsible:  req.Actor,
			FromStatusID: order.StatusID,
			ToStatusID:   target.ID,
			Observation:  observation,
		},
		NotifyEmail: target.TriggersEmail,
	}, nil
}

func isAvailable(current models.Status, override bool, reg *Registry, targetID string) bool {
	for _, status := range AvailableTargets(current, override, reg) {
		if status.ID == targetID {
			return true
		}
	}
	return false
}

func allContractedConfirmed(contracted models.ContractedServices, confirmed []string) bool {
	set := make(map[string]struct{}, len(confirmed))
	for _, id := range confirmed {
		set[id] = struct{}{}
	}
	for _, svc := range contracted {
		if _, ok := set[svc.ID]; !ok {
			return false
		}
	}
	return true
}

// intersectConfirmed keeps the invariant confirmed ⊆ contracted by
// dropping submitted ids that are not part of the order's snapshot.
func intersectConfirmed(contracted models.ContractedServices, confirmed []string) []string {
	allowed := make(map[string]struct{}, len(contracted))
	for _, svc := range contracted {
		allowed[svc.ID] = struct{}{}
	}
	result := make([]string, 0, len(confirmed))
	seen := make(map[string]struct{}, len(confirmed))
	for _, id := range confirmed {
		if _, ok := allowed[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
