// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"context"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// ClientFlow handles client registry operations: the client itself, its
// contacts and its service sites
type ClientFlow interface {
	CreateClient(ctx context.Context, request *dto.CreateClientRequest, actor Actor, metadata *ClientMetadata) (*dto.ClientDTO, error)
	UpdateClient(ctx context.Context, clientID uint, request *dto.UpdateClientRequest, actor Actor, metadata *ClientMetadata) (*dto.ClientDTO, error)
	DeactivateClient(ctx context.Context, clientID uint, actor Actor, metadata *ClientMetadata) error
	GetClient(ctx context.Context, clientID uint) (*dto.ClientDetailDTO, error)
	ListClients(ctx context.Context, search *string, page, pageSize int) ([]dto.ClientDTO, int64, error)

	AddContact(ctx context.Context, clientID uint, request *dto.CreateContactRequest, actor Actor, metadata *ClientMetadata) (*dto.ContactDTO, error)
	UpdateContact(ctx context.Context, clientID, contactID uint, request *dto.UpdateContactRequest, actor Actor, metadata *ClientMetadata) (*dto.ContactDTO, error)
	RemoveContact(ctx context.Context, clientID, contactID uint, actor Actor, metadata *ClientMetadata) error

	AddSite(ctx context.Context, clientID uint, request *dto.CreateSiteRequest, actor Actor, metadata *ClientMetadata) (*dto.SiteDTO, error)
	UpdateSite(ctx context.Context, clientID, siteID uint, request *dto.UpdateSiteRequest, actor Actor, metadata *ClientMetadata) (*dto.SiteDTO, error)
	RemoveSite(ctx context.Context, clientID, siteID uint, actor Actor, metadata *ClientMetadata) error
}

// ClientFlowImpl implements the client business flow
type ClientFlowImpl struct {
	clientRepo   repository.ClientRepository
	contactRepo  repository.ContactRepository
	siteRepo     repository.SiteRepository
	contractRepo repository.ContractRepository
	db           *gorm.DB
}

// NewClientFlow creates a new client flow instance
func NewClientFlow(
	clientRepo repository.ClientRepository,
	contactRepo repository.ContactRepository,
	siteRepo repository.SiteRepository,
	contractRepo repository.ContractRepository,
	db *gorm.DB,
) ClientFlow {
	return &ClientFlowImpl{
		clientRepo:   clientRepo,
		contactRepo:  contactRepo,
		siteRepo:     siteRepo,
		contractRepo: contractRepo,
		db:           db,
	}
}

// CreateClient registers a new client
func (cf *ClientFlowImpl) CreateClient(ctx context.Context, request *dto.CreateClientRequest, actor Actor, metadata *ClientMetadata) (*dto.ClientDTO, error) {
	client := &models.Client{
		Name:      request.Name,
		LegalName: request.LegalName,
		Email:     request.Email,
		Phone:     request.Phone,
		Status:    models.ClientStatusActive,
	}

	if err := cf.clientRepo.Save(ctx, client); err != nil {
		return nil, NewBusinessError("CLIENT_CREATE_FAILED", "Failed to save client", err)
	}

	result := ToClientDTO(*client)
	return &result, nil
}

// UpdateClient updates an existing client's descriptive fields
func (cf *ClientFlowImpl) UpdateClient(ctx context.Context, clientID uint, request *dto.UpdateClientRequest, actor Actor, metadata *ClientMetadata) (*dto.ClientDTO, error) {
	client, err := cf.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if request.Name != nil {
		client.Name = *request.Name
	}
	if request.LegalName != nil {
		client.LegalName = request.LegalName
	}
	if request.Email != nil {
		client.Email = request.Email
	}
	if request.Phone != nil {
		client.Phone = request.Phone
	}

	if err := cf.clientRepo.Update(ctx, client); err != nil {
		return nil, NewBusinessError("CLIENT_UPDATE_FAILED", "Failed to update client", err)
	}

	result := ToClientDTO(*client)
	return &result, nil
}

// DeactivateClient marks a client inactive. Orders referencing it are kept;
// new orders are rejected by the order flow.
func (cf *ClientFlowImpl) DeactivateClient(ctx context.Context, clientID uint, actor Actor, metadata *ClientMetadata) error {
	if _, err := cf.loadClient(ctx, clientID); err != nil {
		return err
	}

	if err := cf.clientRepo.Deactivate(ctx, clientID); err != nil {
		return NewBusinessError("CLIENT_DEACTIVATE_FAILED", "Failed to deactivate client", err)
	}
	return nil
}

// GetClient returns a client with its contacts, sites and contracts
func (cf *ClientFlowImpl) GetClient(ctx context.Context, clientID uint) (*dto.ClientDetailDTO, error) {
	client, err := cf.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	contacts, err := cf.contactRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_GET_FAILED", "Failed to list contacts", err)
	}
	sites, err := cf.siteRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_GET_FAILED", "Failed to list sites", err)
	}
	contracts, err := cf.contractRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_GET_FAILED", "Failed to list contracts", err)
	}

	detail := &dto.ClientDetailDTO{
		Client:    ToClientDTO(*client),
		Contacts:  make([]dto.ContactDTO, 0, len(contacts)),
		Sites:     make([]dto.SiteDTO, 0, len(sites)),
		Contracts: make([]dto.ContractDTO, 0, len(contracts)),
	}
	for _, contact := range contacts {
		detail.Contacts = append(detail.Contacts, ToContactDTO(*contact))
	}
	for _, site := range sites {
		detail.Sites = append(detail.Sites, ToSiteDTO(*site))
	}
	for _, contract := range contracts {
		detail.Contracts = append(detail.Contracts, ToContractDTO(*contract))
	}
	return detail, nil
}

// ListClients returns a page of clients, optionally filtered by a search term
func (cf *ClientFlowImpl) ListClients(ctx context.Context, search *string, page, pageSize int) ([]dto.ClientDTO, int64, error) {
	if page < 1 {
		return nil, 0, NewBusinessError("CLIENT_LIST_FAILED", "Invalid page", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, 0, NewBusinessError("CLIENT_LIST_FAILED", "Invalid page size", ErrInvalidPageSize)
	}

	filter := models.ClientFilter{Search: search}
	total, err := cf.clientRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, NewBusinessError("CLIENT_LIST_FAILED", "Failed to count clients", err)
	}

	clients, err := cf.clientRepo.ByFilter(ctx, filter, "name ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, NewBusinessError("CLIENT_LIST_FAILED", "Failed to list clients", err)
	}

	result := make([]dto.ClientDTO, 0, len(clients))
	for _, client := range clients {
		result = append(result, ToClientDTO(*client))
	}
	return result, total, nil
}

// AddContact adds a contact to a client. Setting the primary flag clears it
// from every other contact inside the same transaction.
func (cf *ClientFlowImpl) AddContact(ctx context.Context, clientID uint, request *dto.CreateContactRequest, actor Actor, metadata *ClientMetadata) (*dto.ContactDTO, error) {
	if _, err := cf.loadClient(ctx, clientID); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		ClientID:  clientID,
		Name:      request.Name,
		Email:     request.Email,
		Phone:     request.Phone,
		Role:      request.Role,
		IsPrimary: request.IsPrimary,
	}

	err := repository.WithTransaction(ctx, cf.db, func(txCtx context.Context) error {
		if utils.IsTrue(request.IsPrimary) {
			// The client row lock serializes competing primary promotions.
			if _, err := cf.clientRepo.LockByID(txCtx, clientID); err != nil {
				return err
			}
			if err := cf.contactRepo.ClearPrimary(txCtx, clientID, nil); err != nil {
				return err
			}
		}
		return cf.contactRepo.Save(txCtx, contact)
	})
	if err != nil {
		return nil, NewBusinessError("CONTACT_CREATE_FAILED", "Failed to save contact", err)
	}

	result := ToContactDTO(*contact)
	return &result, nil
}

// UpdateContact updates a contact of a client
func (cf *ClientFlowImpl) UpdateContact(ctx context.Context, clientID, contactID uint, request *dto.UpdateContactRequest, actor Actor, metadata *ClientMetadata) (*dto.ContactDTO, error) {
	contact, err := cf.loadContact(ctx, clientID, contactID)
	if err != nil {
		return nil, err
	}

	if request.Name != nil {
		contact.Name = *request.Name
	}
	if request.Email != nil {
		contact.Email = request.Email
	}
	if request.Phone != nil {
		contact.Phone = request.Phone
	}
	if request.Role != nil {
		contact.Role = request.Role
	}
	if request.IsPrimary != nil {
		contact.IsPrimary = request.IsPrimary
	}

	err = repository.WithTransaction(ctx, cf.db, func(txCtx context.Context) error {
		if utils.IsTrue(request.IsPrimary) {
			if _, err := cf.clientRepo.LockByID(txCtx, clientID); err != nil {
				return err
			}
			if err := cf.contactRepo.ClearPrimary(txCtx, clientID, &contactID); err != nil {
				return err
			}
		}
		return cf.contactRepo.Update(txCtx, contact)
	})
	if err != nil {
		return nil, NewBusinessError("CONTACT_UPDATE_FAILED", "Failed to update contact", err)
	}

	result := ToContactDTO(*contact)
	return &result, nil
}

// RemoveContact deletes a contact from a client
func (cf *ClientFlowImpl) RemoveContact(ctx context.Context, clientID, contactID uint, actor Actor, metadata *ClientMetadata) error {
	if _, err := cf.loadContact(ctx, clientID, contactID); err != nil {
		return err
	}

	if err := cf.contactRepo.Delete(ctx, contactID); err != nil {
		return NewBusinessError("CONTACT_DELETE_FAILED", "Failed to delete contact", err)
	}
	return nil
}

// AddSite adds a service location to a client. The default flag follows the
// same clear-then-set rule as the primary contact.
func (cf *ClientFlowImpl) AddSite(ctx context.Context, clientID uint, request *dto.CreateSiteRequest, actor Actor, metadata *ClientMetadata) (*dto.SiteDTO, error) {
	if _, err := cf.loadClient(ctx, clientID); err != nil {
		return nil, err
	}

	if err := validateOptionalCoordinates(request.Latitude, request.Longitude); err != nil {
		return nil, NewBusinessError("SITE_VALIDATION_FAILED", "Invalid coordinates", err)
	}

	site := &models.Site{
		ClientID:  clientID,
		Name:      request.Name,
		Address:   request.Address,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		IsDefault: request.IsDefault,
	}

	err := repository.WithTransaction(ctx, cf.db, func(txCtx context.Context) error {
		if utils.IsTrue(request.IsDefault) {
			// Same serialization as the primary-contact rule.
			if _, err := cf.clientRepo.LockByID(txCtx, clientID); err != nil {
				return err
			}
			if err := cf.siteRepo.ClearDefault(txCtx, clientID, nil); err != nil {
				return err
			}
		}
		return cf.siteRepo.Save(txCtx, site)
	})
	if err != nil {
		return nil, NewBusinessError("SITE_CREATE_FAILED", "Failed to save site", err)
	}

	result := ToSiteDTO(*site)
	return &result, nil
}

// UpdateSite updates a service location of a client
func (cf *ClientFlowImpl) UpdateSite(ctx context.Context, clientID, siteID uint, request *dto.UpdateSiteRequest, actor Actor, metadata *ClientMetadata) (*dto.SiteDTO, error) {
	site, err := cf.loadSite(ctx, clientID, siteID)
	if err != nil {
		return nil, err
	}

	if err := validateOptionalCoordinates(request.Latitude, request.Longitude); err != nil {
		return nil, NewBusinessError("SITE_VALIDATION_FAILED", "Invalid coordinates", err)
	}

	if request.Name != nil {
		site.Name = *request.Name
	}
	if request.Address != nil {
		site.Address = *request.Address
	}
	if request.Latitude != nil {
		site.Latitude = request.Latitude
	}
	if request.Longitude != nil {
		site.Longitude = request.Longitude
	}
	if request.IsDefault != nil {
		site.IsDefault = request.IsDefault
	}

	err = repository.WithTransaction(ctx, cf.db, func(txCtx context.Context) error {
		if utils.IsTrue(request.IsDefault) {
			if _, err := cf.clientRepo.LockByID(txCtx, clientID); err != nil {
				return err
			}
			if err := cf.siteRepo.ClearDefault(txCtx, clientID, &siteID); err != nil {
				return err
			}
		}
		return cf.siteRepo.Update(txCtx, site)
	})
	if err != nil {
		return nil, NewBusinessError("SITE_UPDATE_FAILED", "Failed to update site", err)
	}

	result := ToSiteDTO(*site)
	return &result, nil
}

// RemoveSite deletes a service location from a client
func (cf *ClientFlowImpl) RemoveSite(ctx context.Context, clientID, siteID uint, actor Actor, metadata *ClientMetadata) error {
	if _, err := cf.loadSite(ctx, clientID, siteID); err != nil {
		return err
	}

	if err := cf.siteRepo.Delete(ctx, siteID); err != nil {
		return NewBusinessError("SITE_DELETE_FAILED", "Failed to delete site", err)
	}
	return nil
}

func (cf *ClientFlowImpl) loadClient(ctx context.Context, clientID uint) (*models.Client, error) {
	client, err := cf.clientRepo.ByID(ctx, clientID)
	if err != nil {
		return nil, NewBusinessError("CLIENT_GET_FAILED", "Failed to load client", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}
	return client, nil
}

func (cf *ClientFlowImpl) loadContact(ctx context.Context, clientID, contactID uint) (*models.Contact, error) {
	contact, err := cf.contactRepo.ByID(ctx, contactID)
	if err != nil {
		return nil, NewBusinessError("CONTACT_GET_FAILED", "Failed to load contact", err)
	}
	if contact == nil || contact.ClientID != clientID {
		return nil, NewBusinessError("CONTACT_NOT_FOUND", "Contact not found", ErrContactNotFound)
	}
	return contact, nil
}

func (cf *ClientFlowImpl) loadSite(ctx context.Context, clientID, siteID uint) (*models.Site, error) {
	site, err := cf.siteRepo.ByID(ctx, siteID)
	if err != nil {
		return nil, NewBusinessError("SITE_GET_FAILED", "Failed to load site", err)
	}
	if site == nil || site.ClientID != clientID {
		return nil, NewBusinessError("SITE_NOT_FOUND", "Site not found", ErrSiteNotFound)
	}
	return site, nil
}

// validateOptionalCoordinates checks latitude/longitude ranges when present
func validateOptionalCoordinates(lat, lng *float64) error {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return ErrLatitudeOutOfRange
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return ErrLongitudeOutOfRange
	}
	return nil
}
