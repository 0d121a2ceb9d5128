// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"context"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// TechnicianFlow handles dispatch-side technician queries
type TechnicianFlow interface {
	// ListTechnicians returns active technicians with their live location and
	// derived active-order count. With availableOnly set, technicians holding
	// any active order are filtered out.
	ListTechnicians(ctx context.Context, availableOnly bool) ([]dto.TechnicianDTO, error)
	GetTechnician(ctx context.Context, technicianID uint) (*dto.TechnicianDTO, error)
}

// TechnicianFlowImpl implements the technician business flow
type TechnicianFlowImpl struct {
	userRepo     repository.UserRepository
	orderRepo    repository.OrderRepository
	locationRepo repository.TechnicianLocationRepository
	db           *gorm.DB
}

// NewTechnicianFlow creates a new technician flow instance
func NewTechnicianFlow(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	locationRepo repository.TechnicianLocationRepository,
	db *gorm.DB,
) TechnicianFlow {
	return &TechnicianFlowImpl{
		userRepo:     userRepo,
		orderRepo:    orderRepo,
		locationRepo: locationRepo,
		db:           db,
	}
}

// ListTechnicians returns all active technicians with dispatch context
func (tf *TechnicianFlowImpl) ListTechnicians(ctx context.Context, availableOnly bool) ([]dto.TechnicianDTO, error) {
	technicians, err := tf.userRepo.ListActiveTechnicians(ctx)
	if err != nil {
		return nil, NewBusinessError("TECHNICIAN_LIST_FAILED", "Failed to list technicians", err)
	}

	// One freshness-window location query covers everyone.
	cutoff := utils.UTCNow().Add(-utils.LocationFreshnessWindow)
	locations, err := tf.locationRepo.CurrentSince(ctx, cutoff)
	if err != nil {
		return nil, NewBusinessError("TECHNICIAN_LIST_FAILED", "Failed to query locations", err)
	}
	locationByTechnician := make(map[uint]dto.TechnicianLocationDTO, len(locations))
	for _, location := range locations {
		locationByTechnician[location.TechnicianID] = ToTechnicianLocationDTO(*location)
	}

	result := make([]dto.TechnicianDTO, 0, len(technicians))
	for _, technician := range technicians {
		activeOrders, err := tf.orderRepo.CountActiveByTechnician(ctx, technician.ID)
		if err != nil {
			return nil, NewBusinessError("TECHNICIAN_LIST_FAILED", "Failed to count active orders", err)
		}
		if availableOnly && activeOrders > 0 {
			continue
		}

		entry := dto.TechnicianDTO{
			ID:           technician.ID,
			UUID:         technician.UUID.String(),
			Name:         technician.Name,
			Email:        technician.Email,
			Phone:        technician.Phone,
			ActiveOrders: activeOrders,
		}
		if location, ok := locationByTechnician[technician.ID]; ok {
			entry.CurrentLocation = &location
		}
		result = append(result, entry)
	}
	return result, nil
}

// GetTechnician returns one technician with dispatch context
func (tf *TechnicianFlowImpl) GetTechnician(ctx context.Context, technicianID uint) (*dto.TechnicianDTO, error) {
	technician, err := tf.userRepo.ByID(ctx, technicianID)
	if err != nil {
		return nil, NewBusinessError("TECHNICIAN_GET_FAILED", "Failed to load technician", err)
	}
	if technician == nil || !technician.IsTechnician() {
		return nil, NewBusinessError("TECHNICIAN_NOT_FOUND", "Technician not found", ErrTechnicianNotFound)
	}

	activeOrders, err := tf.orderRepo.CountActiveByTechnician(ctx, technician.ID)
	if err != nil {
		return nil, NewBusinessError("TECHNICIAN_GET_FAILED", "Failed to count active orders", err)
	}

	result := &dto.TechnicianDTO{
		ID:           technician.ID,
		UUID:         technician.UUID.String(),
		Name:         technician.Name,
		Email:        technician.Email,
		Phone:        technician.Phone,
		ActiveOrders: activeOrders,
	}

	location, err := tf.locationRepo.LatestActive(ctx, technician.ID)
	if err != nil {
		return nil, NewBusinessError("TECHNICIAN_GET_FAILED", "Failed to query location", err)
	}
	if location != nil && !location.ReportedAt.Before(utils.UTCNow().Add(-utils.LocationFreshnessWindow)) {
		loc := ToTechnicianLocationDTO(*location)
		result.CurrentLocation = &loc
	}
	return result, nil
}
