// Package workflow implements the status-workflow engine for service
// orders: the configured status registry, the transition authorizer and
// the transition validation the order service applies before persisting
// anything. Everything here is pure computation over data already
// fetched; callers own all I/O.
package workflow

import (
	"sort"

	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

// Registry is an immutable snapshot of the configured statuses. Build a
// fresh one after any status create/update/delete; there is no partial
// refresh.
type Registry struct {
	ordered []models.Status
	byID    map[string]models.Status
}

// NewRegistry builds a registry snapshot from the configured statuses,
// sorted ascending by their order key.
func NewRegistry(statuses []models.Status) *Registry {
	ordered := make([]models.Status, len(statuses))
	copy(ordered, statuses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	byID := make(map[string]models.Status, len(ordered))
	for _, status := range ordered {
		byID[status.ID] = status
	}
	return &Registry{ordered: ordered, byID: byID}
}

// List returns all statuses sorted ascending by order.
func (r *Registry) List() []models.Status {
	out := make([]models.Status, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ByID looks up a status by identifier.
func (r *Registry) ByID(id string) (models.Status, bool) {
	status, ok := r.byID[id]
	return status, ok
}

// FinalStatusIDs returns the identifiers of every terminal status.
func (r *Registry) FinalStatusIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, status := range r.ordered {
		if status.IsFinal {
			ids[status.ID] = struct{}{}
		}
	}
	return ids
}

// InitialStatus returns the single status flagged isInitial. A registry
// with zero or multiple initial statuses is misconfigured and fails
// fast rather than guessing.
func (r *Registry) InitialStatus() (models.Status, error) {
	var found *models.Status
	for i := range r.ordered {
		if !r.ordered[i].IsInitial {
			continue
		}
		if found != nil {
			return models.Status{}, appErrors.Clone(appErrors.ErrConfiguration, "more than one status is flagged as initial")
		}
		found = &r.ordered[i]
	}
	if found == nil {
		return models.Status{}, appErrors.Clone(appErrors.ErrConfiguration, "no status is flagged as initial")
	}
	return *found, nil
}

// Len returns the number of configured statuses.
func (r *Registry) Len() int {
	return len(r.ordered)
}
