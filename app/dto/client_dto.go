// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CreateClientRequest represents the request to register a new client
type CreateClientRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=255" example:"Acme Industrial"`
	LegalName *string `json:"legal_name,omitempty" validate:"omitempty,max=255"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// UpdateClientRequest represents the request to update an existing client
type UpdateClientRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	LegalName *string `json:"legal_name,omitempty" validate:"omitempty,max=255"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// ClientDTO represents a client in API responses
type ClientDTO struct {
	ID        uint    `json:"id"`
	UUID      string  `json:"uuid"`
	Name      string  `json:"name"`
	LegalName *string `json:"legal_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// CreateContactRequest represents the request to add a contact to a client
type CreateContactRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=255" example:"Jane Smith"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Role      *string `json:"role,omitempty" validate:"omitempty,max=100"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

// UpdateContactRequest represents the request to update a contact
type UpdateContactRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Role      *string `json:"role,omitempty" validate:"omitempty,max=100"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

// ContactDTO represents a client contact in API responses
type ContactDTO struct {
	ID        uint    `json:"id"`
	UUID      string  `json:"uuid"`
	ClientID  uint    `json:"client_id"`
	Name      string  `json:"name"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Role      *string `json:"role,omitempty"`
	IsPrimary bool    `json:"is_primary"`
}

// CreateSiteRequest represents the request to add a service location
type CreateSiteRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=255" example:"Main Warehouse"`
	Address   string   `json:"address" validate:"required,min=5,max=500"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	IsDefault *bool    `json:"is_default,omitempty"`
}

// UpdateSiteRequest represents the request to update a service location
type UpdateSiteRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Address   *string  `json:"address,omitempty" validate:"omitempty,min=5,max=500"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	IsDefault *bool    `json:"is_default,omitempty"`
}

// SiteDTO represents a service location in API responses
type SiteDTO struct {
	ID        uint     `json:"id"`
	UUID      string   `json:"uuid"`
	ClientID  uint     `json:"client_id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	IsDefault bool     `json:"is_default"`
}

// CreateContractRequest represents the request to register a service contract
type CreateContractRequest struct {
	ContractNumber    *string `json:"contract_number,omitempty" validate:"omitempty,max=100"`
	StartDate         string  `json:"start_date" validate:"required" example:"2024-01-01"`
	EndDate           *string `json:"end_date,omitempty" example:"2024-12-31"`
	ResponseMinutes   int     `json:"response_minutes" validate:"required,min=1" example:"30"`
	ResolutionMinutes int     `json:"resolution_minutes" validate:"required,min=1" example:"120"`
	FileURL           *string `json:"file_url,omitempty" validate:"omitempty,url,max=500"`
}

// UpdateContractRequest represents the request to update a service contract
type UpdateContractRequest struct {
	ContractNumber    *string `json:"contract_number,omitempty" validate:"omitempty,max=100"`
	StartDate         *string `json:"start_date,omitempty"`
	EndDate           *string `json:"end_date,omitempty"`
	ResponseMinutes   *int    `json:"response_minutes,omitempty" validate:"omitempty,min=1"`
	ResolutionMinutes *int    `json:"resolution_minutes,omitempty" validate:"omitempty,min=1"`
	FileURL           *string `json:"file_url,omitempty" validate:"omitempty,url,max=500"`
	Status            *string `json:"status,omitempty" validate:"omitempty,oneof=active expired cancelled"`
}

// ContractDTO represents a service contract in API responses
type ContractDTO struct {
	ID                uint    `json:"id"`
	UUID              string  `json:"uuid"`
	ClientID          uint    `json:"client_id"`
	ContractNumber    *string `json:"contract_number,omitempty"`
	StartDate         string  `json:"start_date"`
	EndDate           *string `json:"end_date,omitempty"`
	ResponseMinutes   int     `json:"response_minutes"`
	ResolutionMinutes int     `json:"resolution_minutes"`
	FileURL           *string `json:"file_url,omitempty"`
	Status            string  `json:"status"`
}

// ClientDetailDTO bundles a client with its contacts, sites and contracts
type ClientDetailDTO struct {
	Client    ClientDTO     `json:"client"`
	Contacts  []ContactDTO  `json:"contacts"`
	Sites     []SiteDTO     `json:"sites"`
	Contracts []ContractDTO `json:"contracts"`
}
