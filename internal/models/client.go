package models

import (
	"time"

	"github.com/lib/pq"
)

// Client is a customer of the shop. Orders capture a snapshot of the
// client at creation time, so later edits here never rewrite history.
type Client struct {
	ID                    string         `db:"id" json:"id"`
	Name                  string         `db:"name" json:"name"`
	Email                 *string        `db:"email" json:"email,omitempty"`
	CNPJ                  *string        `db:"cnpj" json:"cnpj,omitempty"`
	Address               *string        `db:"address" json:"address,omitempty"`
	Phone                 *string        `db:"phone" json:"phone,omitempty"`
	ContractedServiceIDs  pq.StringArray `db:"contracted_service_ids" json:"contractedServiceIds"`
	WebProtection         bool           `db:"web_protection" json:"webProtection"`
	Backup                bool           `db:"backup" json:"backup"`
	EDR                   bool           `db:"edr" json:"edr"`
	CreatedAt             time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updatedAt"`
}

// ProvidedService is a catalog entry for a service the shop offers.
type ProvidedService struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
