// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"context"
	"time"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// ContractFlow handles service contract management and resolution
type ContractFlow interface {
	CreateContract(ctx context.Context, clientID uint, request *dto.CreateContractRequest, actor Actor, metadata *ClientMetadata) (*dto.ContractDTO, error)
	UpdateContract(ctx context.Context, contractID uint, request *dto.UpdateContractRequest, actor Actor, metadata *ClientMetadata) (*dto.ContractDTO, error)
	DeleteContract(ctx context.Context, contractID uint, actor Actor, metadata *ClientMetadata) error
	ListContracts(ctx context.Context, clientID uint) ([]dto.ContractDTO, error)
	// ResolveActiveContract returns the contract governing new orders for the
	// client at the given instant, or nil when the client falls back to the
	// system default budgets.
	ResolveActiveContract(ctx context.Context, clientID uint, at time.Time) (*models.Contract, error)
}

// ContractFlowImpl implements the contract business flow
type ContractFlowImpl struct {
	clientRepo   repository.ClientRepository
	contractRepo repository.ContractRepository
	db           *gorm.DB
}

// NewContractFlow creates a new contract flow instance
func NewContractFlow(
	clientRepo repository.ClientRepository,
	contractRepo repository.ContractRepository,
	db *gorm.DB,
) ContractFlow {
	return &ContractFlowImpl{
		clientRepo:   clientRepo,
		contractRepo: contractRepo,
		db:           db,
	}
}

// CreateContract registers a new contract for a client
func (cf *ContractFlowImpl) CreateContract(ctx context.Context, clientID uint, request *dto.CreateContractRequest, actor Actor, metadata *ClientMetadata) (*dto.ContractDTO, error) {
	client, err := cf.clientRepo.ByID(ctx, clientID)
	if err != nil {
		return nil, NewBusinessError("CONTRACT_CREATE_FAILED", "Failed to load client", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}

	startDate, err := parseDate(request.StartDate)
	if err != nil {
		return nil, NewBusinessError("CONTRACT_VALIDATION_FAILED", "Invalid start date", err)
	}

	var endDate *time.Time
	if request.EndDate != nil {
		parsed, err := parseDate(*request.EndDate)
		if err != nil {
			return nil, NewBusinessError("CONTRACT_VALIDATION_FAILED", "Invalid end date", err)
		}
		endDate = &parsed
	}

	if err := validateContractTerms(startDate, endDate, request.ResponseMinutes, request.ResolutionMinutes); err != nil {
		return nil, NewBusinessError("CONTRACT_VALIDATION_FAILED", "Contract validation failed", err)
	}

	contract := &models.Contract{
		ClientID:          clientID,
		ContractNumber:    request.ContractNumber,
		StartDate:         startDate,
		EndDate:           endDate,
		ResponseMinutes:   request.ResponseMinutes,
		ResolutionMinutes: request.ResolutionMinutes,
		FileURL:           request.FileURL,
		Status:            models.ContractStatusActive,
	}

	if err := cf.contractRepo.Save(ctx, contract); err != nil {
		return nil, NewBusinessError("CONTRACT_CREATE_FAILED", "Failed to save contract", err)
	}

	result := ToContractDTO(*contract)
	return &result, nil
}

// UpdateContract updates an existing contract. Existing orders keep the
// deadlines stamped at creation; only new orders pick up the new terms.
func (cf *ContractFlowImpl) UpdateContract(ctx context.Context, contractID uint, request *dto.UpdateContractRequest, actor Actor, metadata *ClientMetadata) (*dto.ContractDTO, error) {
	contract, err := cf.contractRepo.ByID(ctx, contractID)
	if err != nil {
		return nil, NewBusinessError("CONTRACT_UPDATE_FAILED", "Failed to load contract", err)
	}
	if contract == nil {
		return nil, NewBusinessError("CONTRACT_NOT_FOUND", "Contract not found", ErrContractNotFound)
	}

	if request.StartDate != nil {
		parsed, err := parseDate(*request.StartDate)
		if err != nil {
			return nil, NewBusinessError("CONTRACT_VALIDATION_FAILED", "Invalid start date", err)
		}
		contract.StartDate = parsed
	}
	if request.EndDate != nil {
		parsed, err := parseDate(*request.EndDate)
		if err != nil {
			return nil, NewBusinessError("CONTRACT_VALIDATION_FAILED", "Invalid end date", err)
		}
		contract.EndDate = &parsed
	}
	if request.ContractNumber != nil {
		contract.ContractNumber = request.ContractNumber
	}
	if request.ResponseMinutes != nil {
		contract.ResponseMinutes = *request.ResponseMinutes
	}
	if request.ResolutionMinutes != nil {
		contract.ResolutionMinutes = *request.ResolutionMinutes
	}
	if request.FileURL != nil {
		contract.FileURL = request.FileURL
	}
	if request.Status != nil {
		status := models.ContractStatus(*request.Status)
		if !status.Valid() {
			return nil, NewBusinessErrorf("CONTRACT_VALIDATION_FAILED", "Invalid contract status: %s", nil, *request.Status)
		}
		contract.Status = status
	}

	if err := validateContractTerms(contract.StartDate, contract.EndDate, contract.ResponseMinutes, contract.ResolutionMinutes); err != nil {
		return nil, NewBusinessError("CONTRACT_VALIDATION_FAILED", "Contract validation failed", err)
	}

	if err := cf.contractRepo.Update(ctx, contract); err != nil {
		return nil, NewBusinessError("CONTRACT_UPDATE_FAILED", "Failed to update contract", err)
	}

	result := ToContractDTO(*contract)
	return &result, nil
}

// DeleteContract removes a contract. Orders created under it are untouched.
func (cf *ContractFlowImpl) DeleteContract(ctx context.Context, contractID uint, actor Actor, metadata *ClientMetadata) error {
	contract, err := cf.contractRepo.ByID(ctx, contractID)
	if err != nil {
		return NewBusinessError("CONTRACT_DELETE_FAILED", "Failed to load contract", err)
	}
	if contract == nil {
		return NewBusinessError("CONTRACT_NOT_FOUND", "Contract not found", ErrContractNotFound)
	}

	if err := cf.contractRepo.Delete(ctx, contractID); err != nil {
		return NewBusinessError("CONTRACT_DELETE_FAILED", "Failed to delete contract", err)
	}
	return nil
}

// ListContracts returns all contracts of a client
func (cf *ContractFlowImpl) ListContracts(ctx context.Context, clientID uint) ([]dto.ContractDTO, error) {
	contracts, err := cf.contractRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, NewBusinessError("CONTRACT_LIST_FAILED", "Failed to list contracts", err)
	}

	result := make([]dto.ContractDTO, 0, len(contracts))
	for _, contract := range contracts {
		result = append(result, ToContractDTO(*contract))
	}
	return result, nil
}

// ResolveActiveContract picks the contract in effect for the client at the
// given instant. Nil means no contract covers the instant and the system
// defaults apply.
func (cf *ContractFlowImpl) ResolveActiveContract(ctx context.Context, clientID uint, at time.Time) (*models.Contract, error) {
	return cf.contractRepo.ActiveForClient(ctx, clientID, utils.TimeToUTC(at))
}

// validateContractTerms checks date ordering and positive budgets
func validateContractTerms(startDate time.Time, endDate *time.Time, responseMinutes, resolutionMinutes int) error {
	if endDate != nil && endDate.Before(startDate) {
		return ErrContractDatesInverted
	}
	if responseMinutes <= 0 || resolutionMinutes <= 0 {
		return ErrContractBudgetsInvalid
	}
	return nil
}

// parseDate accepts either a bare date or a full RFC3339 timestamp
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
