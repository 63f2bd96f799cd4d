package models

import (
	"time"

	"github.com/lib/pq"
)

// Status is a named node in the order workflow. Order defines the
// display/selection sort key; AllowedNextStatuses is consulted only for
// actors without the transition-override capability.
type Status struct {
	ID                  string         `db:"id" json:"id"`
	Name                string         `db:"name" json:"name"`
	Order               int            `db:"sort_order" json:"order"`
	Color               string         `db:"color" json:"color"`
	Icon                *string        `db:"icon" json:"icon,omitempty"`
	IsInitial           bool           `db:"is_initial" json:"isInitial"`
	IsFinal             bool           `db:"is_final" json:"isFinal"`
	IsPickupStatus      bool           `db:"is_pickup_status" json:"isPickupStatus"`
	TriggersEmail       bool           `db:"triggers_email" json:"triggersEmail"`
	EmailBody           *string        `db:"email_body" json:"emailBody,omitempty"`
	AllowedNextStatuses pq.StringArray `db:"allowed_next_statuses" json:"allowedNextStatuses"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updatedAt"`
}
