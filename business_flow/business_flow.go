// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all request-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// Actor identifies the authenticated user performing an operation. Flows use
// it for audit records and role checks; authentication itself happens in the
// middleware.
type Actor struct {
	ID   uint
	Role models.UserRole
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsTechnician reports whether the actor works in the field
func (a Actor) IsTechnician() bool {
	return a.Role == models.RoleTechnician
}

// ToUserDTO converts a user model to UserDTO for API responses
func ToUserDTO(user models.User) dto.UserDTO {
	d := dto.UserDTO{
		ID:        user.ID,
		UUID:      user.UUID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role.String(),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.Phone != nil {
		d.Phone = *user.Phone
	}
	return d
}

// ToClientDTO converts a client model to ClientDTO for API responses
func ToClientDTO(client models.Client) dto.ClientDTO {
	return dto.ClientDTO{
		ID:        client.ID,
		UUID:      client.UUID.String(),
		Name:      client.Name,
		LegalName: client.LegalName,
		Email:     client.Email,
		Phone:     client.Phone,
		Status:    client.Status.String(),
		CreatedAt: client.CreatedAt.Format(time.RFC3339),
	}
}

// ToContactDTO converts a contact model to ContactDTO for API responses
func ToContactDTO(contact models.Contact) dto.ContactDTO {
	return dto.ContactDTO{
		ID:        contact.ID,
		UUID:      contact.UUID.String(),
		ClientID:  contact.ClientID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Role:      contact.Role,
		IsPrimary: utils.IsTrue(contact.IsPrimary),
	}
}

// ToSiteDTO converts a site model to SiteDTO for API responses
func ToSiteDTO(site models.Site) dto.SiteDTO {
	return dto.SiteDTO{
		ID:        site.ID,
		UUID:      site.UUID.String(),
		ClientID:  site.ClientID,
		Name:      site.Name,
		Address:   site.Address,
		Latitude:  site.Latitude,
		Longitude: site.Longitude,
		IsDefault: utils.IsTrue(site.IsDefault),
	}
}

// ToContractDTO converts a contract model to ContractDTO for API responses
func ToContractDTO(contract models.Contract) dto.ContractDTO {
	d := dto.ContractDTO{
		ID:                contract.ID,
		UUID:              contract.UUID.String(),
		ClientID:          contract.ClientID,
		ContractNumber:    contract.ContractNumber,
		StartDate:         contract.StartDate.Format(time.RFC3339),
		ResponseMinutes:   contract.ResponseMinutes,
		ResolutionMinutes: contract.ResolutionMinutes,
		FileURL:           contract.FileURL,
		Status:            contract.Status.String(),
	}
	if contract.EndDate != nil {
		d.EndDate = utils.ToPtr(contract.EndDate.Format(time.RFC3339))
	}
	return d
}

// ToOrderDTO converts an order model to OrderDTO for API responses
func ToOrderDTO(order models.Order) dto.OrderDTO {
	return dto.OrderDTO{
		ID:                   order.ID,
		UUID:                 order.UUID.String(),
		OrderNumber:          order.OrderNumber,
		ClientID:             order.ClientID,
		SiteID:               order.SiteID,
		ServiceTypeID:        order.ServiceTypeID,
		AssignedTechnicianID: order.AssignedTechnicianID,
		Status:               order.Status.String(),
		StatusDisplay:        order.GetStatusDisplayName(),
		Priority:             order.Priority.String(),
		ScheduledStart:       order.ScheduledStart,
		ScheduledEnd:         order.ScheduledEnd,
		ResponseDeadline:     order.ResponseDeadline,
		ResolutionDeadline:   order.ResolutionDeadline,
		ActualStart:          order.ActualStart,
		ActualEnd:            order.ActualEnd,
		Notes:                order.Notes,
		CreatedAt:            order.CreatedAt,
	}
}

// ToOrderEventDTO converts an order event model to OrderEventDTO for API responses
func ToOrderEventDTO(event models.OrderEvent) dto.OrderEventDTO {
	d := dto.OrderEventDTO{
		ID:        event.ID,
		UUID:      event.UUID.String(),
		OrderID:   event.OrderID,
		EventType: event.EventType.String(),
		ActorID:   event.ActorID,
		Latitude:  event.Latitude,
		Longitude: event.Longitude,
		Notes:     event.Notes,
		CreatedAt: event.CreatedAt,
	}
	if event.FromStatus != nil {
		d.FromStatus = utils.ToPtr(event.FromStatus.String())
	}
	if event.ToStatus != nil {
		d.ToStatus = utils.ToPtr(event.ToStatus.String())
	}
	return d
}

// ToTechnicianLocationDTO converts a position report to its API representation
func ToTechnicianLocationDTO(loc models.TechnicianLocation) dto.TechnicianLocationDTO {
	return dto.TechnicianLocationDTO{
		TechnicianID:   loc.TechnicianID,
		OrderID:        loc.OrderID,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		AccuracyMeters: loc.AccuracyMeters,
		ReportedAt:     loc.ReportedAt,
	}
}
