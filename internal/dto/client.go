package dto

// CreateClientRequest registers a client.
type CreateClientRequest struct {
	Name                 string   `json:"name" validate:"required,min=2,max=160"`
	Email                *string  `json:"email,omitempty" validate:"omitempty,email"`
	CNPJ                 *string  `json:"cnpj,omitempty"`
	Address              *string  `json:"address,omitempty"`
	Phone                *string  `json:"phone,omitempty"`
	ContractedServiceIDs []string `json:"contractedServiceIds"`
	WebProtection        bool     `json:"webProtection"`
	Backup               bool     `json:"backup"`
	EDR                  bool     `json:"edr"`
}

// UpdateClientRequest replaces a client record.
type UpdateClientRequest struct {
	Name                 string   `json:"name" validate:"required,min=2,max=160"`
	Email                *string  `json:"email,omitempty" validate:"omitempty,email"`
	CNPJ                 *string  `json:"cnpj,omitempty"`
	Address              *string  `json:"address,omitempty"`
	Phone                *string  `json:"phone,omitempty"`
	ContractedServiceIDs []string `json:"contractedServiceIds"`
	WebProtection        bool     `json:"webProtection"`
	Backup               bool     `json:"backup"`
	EDR                  bool     `json:"edr"`
}

// CreateServiceRequest adds an entry to the provided-services catalog.
type CreateServiceRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=160"`
	Description *string `json:"description,omitempty"`
}

// UpdateServiceRequest replaces a catalog entry.
type UpdateServiceRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=160"`
	Description *string `json:"description,omitempty"`
}
