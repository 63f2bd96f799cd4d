package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Resource enumerates the protected resources of the console.
type Resource string

const (
	ResourceOrders        Resource = "os"
	ResourceClients       Resource = "clients"
	ResourceServices      Resource = "services"
	ResourceStatuses      Resource = "statuses"
	ResourceRoles         Resource = "roles"
	ResourceUsers         Resource = "users"
	ResourceDashboard     Resource = "dashboard"
	ResourceAdminSettings Resource = "adminSettings"
)

// Action enumerates the operations a role may hold on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAll    Action = "all"
)

var knownResources = map[Resource]struct{}{
	ResourceOrders:        {},
	ResourceClients:       {},
	ResourceServices:      {},
	ResourceStatuses:      {},
	ResourceRoles:         {},
	ResourceUsers:         {},
	ResourceDashboard:     {},
	ResourceAdminSettings: {},
}

var knownActions = map[Action]struct{}{
	ActionCreate: {},
	ActionRead:   {},
	ActionUpdate: {},
	ActionDelete: {},
	ActionAll:    {},
}

// Permissions maps a resource to the actions a role grants on it.
// Stored as JSONB in the roles table.
type Permissions map[Resource][]Action

// Value implements driver.Valuer for JSONB storage.
func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage.
func (p *Permissions) Scan(src interface{}) error {
	if src == nil {
		*p = Permissions{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("permissions: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, p)
}

// Capability is one {resource, action} pair.
type Capability struct {
	Resource Resource
	Action   Action
}

// CapabilitySet is the closed set of capabilities derived from a role.
// Entries outside the known resource/action enumerations are dropped at
// derivation time, so membership checks never compare raw strings.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet derives a capability set from a role's permission map.
func NewCapabilitySet(perms Permissions) CapabilitySet {
	set := make(CapabilitySet)
	for resource, actions := range perms {
		if _, ok := knownResources[resource]; !ok {
			continue
		}
		for _, action := range actions {
			if _, ok := knownActions[action]; !ok {
				continue
			}
			set[Capability{Resource: resource, Action: action}] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set grants action on resource, honoring the
// "all" wildcard action.
func (s CapabilitySet) Has(resource Resource, action Action) bool {
	if s == nil {
		return false
	}
	if _, ok := s[Capability{Resource: resource, Action: ActionAll}]; ok {
		return true
	}
	_, ok := s[Capability{Resource: resource, Action: action}]
	return ok
}

// CanOverrideTransitions reports the elevated capability that lets an
// actor bypass the configured allowed-next graph.
func (s CapabilitySet) CanOverrideTransitions() bool {
	return s.Has(ResourceAdminSettings, ActionUpdate)
}
