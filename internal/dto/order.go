package dto

import "github.com/osworks/servicedesk-api/internal/models"

// CollaboratorInput is the on-site contact submitted with an order.
type CollaboratorInput struct {
	Name  string  `json:"name" validate:"required"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
}

// EquipmentInput describes the device being brought in.
type EquipmentInput struct {
	Type         string `json:"type" validate:"required"`
	Brand        string `json:"brand" validate:"required"`
	Model        string `json:"model" validate:"required"`
	SerialNumber string `json:"serialNumber" validate:"required"`
}

// CreateOrderRequest opens a new service order. The client snapshot and
// the contracted-service snapshot are resolved server-side from
// ClientID and ContractedServiceIDs.
type CreateOrderRequest struct {
	ClientID             string            `json:"clientId" validate:"required"`
	Collaborator         CollaboratorInput `json:"collaborator" validate:"required"`
	Equipment            EquipmentInput    `json:"equipment" validate:"required"`
	ReportedProblem      string            `json:"reportedProblem" validate:"required"`
	Analyst              string            `json:"analyst"`
	ContractedServiceIDs []string          `json:"contractedServiceIds"`
	Attachments          []string          `json:"attachments"`
}

// UpdateOrderRequest edits the mutable details of an order. Status is
// deliberately absent; transitions have their own endpoint.
type UpdateOrderRequest struct {
	ClientID        string            `json:"clientId" validate:"required"`
	Collaborator    CollaboratorInput `json:"collaborator" validate:"required"`
	Equipment       EquipmentInput    `json:"equipment" validate:"required"`
	ReportedProblem string            `json:"reportedProblem" validate:"required"`
	Attachments     []string          `json:"attachments"`
	Observation     string            `json:"observation"`
}

// TransitionRequest moves an order to a new status (or, with the
// current status id, updates the technical details only).
type TransitionRequest struct {
	NewStatusID         string   `json:"newStatusId" validate:"required"`
	Observation         string   `json:"observation"`
	ConfirmedServiceIDs []string `json:"confirmedServiceIds"`
}

// OrderQuery mirrors the supported listing filters.
type OrderQuery struct {
	StatusID string
	ClientID string
	Analyst  string
	Search   string
	Page     int
	Limit    int
}

// OrderDetail is an order together with its reachable next statuses for
// the requesting actor.
type OrderDetail struct {
	Order            models.ServiceOrder `json:"order"`
	AvailableTargets []models.Status     `json:"availableTargets"`
}
