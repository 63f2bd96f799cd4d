package dto

// CreateStatusRequest defines a new workflow status.
type CreateStatusRequest struct {
	Name                string   `json:"name" validate:"required,min=2,max=80"`
	Order               int      `json:"order" validate:"gte=0"`
	Color               string   `json:"color" validate:"required"`
	Icon                *string  `json:"icon,omitempty"`
	IsInitial           bool     `json:"isInitial"`
	IsFinal             bool     `json:"isFinal"`
	IsPickupStatus      bool     `json:"isPickupStatus"`
	TriggersEmail       bool     `json:"triggersEmail"`
	EmailBody           *string  `json:"emailBody,omitempty"`
	AllowedNextStatuses []string `json:"allowedNextStatuses"`
}

// UpdateStatusRequest replaces a status definition. Partial updates are
// not supported; the admin screen always submits the full record.
type UpdateStatusRequest struct {
	Name                string   `json:"name" validate:"required,min=2,max=80"`
	Order               int      `json:"order" validate:"gte=0"`
	Color               string   `json:"color" validate:"required"`
	Icon                *string  `json:"icon,omitempty"`
	IsInitial           bool     `json:"isInitial"`
	IsFinal             bool     `json:"isFinal"`
	IsPickupStatus      bool     `json:"isPickupStatus"`
	TriggersEmail       bool     `json:"triggersEmail"`
	EmailBody           *string  `json:"emailBody,omitempty"`
	AllowedNextStatuses []string `json:"allowedNextStatuses"`
}
