package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ClientSnapshot is the client data captured when an order is opened.
// It is intentionally not live-joined: the order keeps the historical
// record even if the client is edited later.
type ClientSnapshot struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	CNPJ    *string `json:"cnpj,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Collaborator is the on-site contact for an order.
type Collaborator struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Equipment describes the device the order covers.
type Equipment struct {
	Type         string `json:"type"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
}

// ContractedService is a catalog snapshot of a service agreed at order
// creation time.
type ContractedService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ContractedServices is the JSONB-stored list of agreed services.
type ContractedServices []ContractedService

// IDs returns the identifiers of the contracted services.
func (s ContractedServices) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, svc := range s {
		ids = append(ids, svc.ID)
	}
	return ids
}

// ServiceOrder is one repair ticket. Status changes go exclusively
// through the workflow engine; logs and edit logs are append-only and
// owned by the order.
type ServiceOrder struct {
	ID                  string             `db:"id" json:"id"`
	OrderNumber         string             `db:"order_number" json:"orderNumber"`
	ClientID            string             `db:"client_id" json:"clientId"`
	ClientSnapshot      ClientSnapshot     `db:"client_snapshot" json:"clientSnapshot"`
	Collaborator        Collaborator       `db:"collaborator" json:"collaborator"`
	Equipment           Equipment          `db:"equipment" json:"equipment"`
	ReportedProblem     string             `db:"reported_problem" json:"reportedProblem"`
	Analyst             string             `db:"analyst" json:"analyst"`
	StatusID            string             `db:"status_id" json:"statusId"`
	TechnicalSolution   *string            `db:"technical_solution" json:"technicalSolution,omitempty"`
	ContractedServices  ContractedServices `db:"contracted_services" json:"contractedServices"`
	ConfirmedServiceIDs pq.StringArray     `db:"confirmed_service_ids" json:"confirmedServiceIds"`
	Attachments         pq.StringArray     `db:"attachments" json:"attachments"`
	CreatedAt           time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updatedAt"`

	Logs     []LogEntry     `db:"-" json:"logs,omitempty"`
	EditLogs []EditLogEntry `db:"-" json:"editLogs,omitempty"`
}

// LogEntry records one status transition. Entries are immutable once
// written and kept in chronological order.
type LogEntry struct {
	ID           string    `db:"id" json:"-"`
	OrderID      string    `db:"order_id" json:"-"`
	Timestamp    time.Time `db:"ts" json:"timestamp"`
	Responsible  string    `db:"responsible" json:"responsible"`
	FromStatusID string    `db:"from_status_id" json:"fromStatusId"`
	ToStatusID   string    `db:"to_status_id" json:"toStatusId"`
	Observation  *string   `db:"observation" json:"observation,omitempty"`
}

// EditLogChange is one field diff inside an edit-log entry.
type EditLogChange struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"oldValue"`
	NewValue interface{} `json:"newValue"`
}

// EditLogChanges is the JSONB-stored ordered diff list.
type EditLogChanges []EditLogChange

// EditLogEntry records one non-status edit with per-field diffs. Same
// append-only contract as LogEntry.
type EditLogEntry struct {
	ID          string         `db:"id" json:"-"`
	OrderID     string         `db:"order_id" json:"-"`
	Timestamp   time.Time      `db:"ts" json:"timestamp"`
	Responsible string         `db:"responsible" json:"responsible"`
	Changes     EditLogChanges `db:"changes" json:"changes"`
	Observation *string        `db:"observation" json:"observation,omitempty"`
}

func jsonValue(v interface{}) (driver.Value, error) {
	return json.Marshal(v)
}

func jsonScan(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("jsonb scan: unsupported type %T", src)
	}
	return json.Unmarshal(raw, dest)
}

func (s ClientSnapshot) Value() (driver.Value, error) { return jsonValue(s) }
func (s *ClientSnapshot) Scan(src interface{}) error  { return jsonScan(src, s) }

func (c Collaborator) Value() (driver.Value, error) { return jsonValue(c) }
func (c *Collaborator) Scan(src interface{}) error  { return jsonScan(src, c) }

func (e Equipment) Value() (driver.Value, error) { return jsonValue(e) }
func (e *Equipment) Scan(src interface{}) error  { return jsonScan(src, e) }

func (s ContractedServices) Value() (driver.Value, error) { return jsonValue(s) }
func (s *ContractedServices) Scan(src interface{}) error  { return jsonScan(src, s) }

func (c EditLogChanges) Value() (driver.Value, error) { return jsonValue(c) }
func (c *EditLogChanges) Scan(src interface{}) error  { return jsonScan(src, c) }
