// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"context"
	"time"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/app/services"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// LocationFlow handles technician position ingest and the live map queries
type LocationFlow interface {
	// IngestLocation persists a position report and then broadcasts it to
	// live subscribers. Persistence failures fail the call; broadcast
	// failures do not.
	IngestLocation(ctx context.Context, request *dto.LocationPingRequest, actor Actor, metadata *ClientMetadata) (*dto.TechnicianLocationDTO, error)
	// CurrentLocations returns the freshest report per technician within the
	// freshness window.
	CurrentLocations(ctx context.Context) ([]dto.TechnicianLocationDTO, error)
	TechnicianLocation(ctx context.Context, technicianID uint) (*dto.TechnicianLocationDTO, error)
}

// LocationFlowImpl implements the location business flow
type LocationFlowImpl struct {
	locationRepo repository.TechnicianLocationRepository
	userRepo     repository.UserRepository
	orderRepo    repository.OrderRepository
	broadcaster  services.LocationBroadcaster
	db           *gorm.DB
}

// NewLocationFlow creates a new location flow instance
func NewLocationFlow(
	locationRepo repository.TechnicianLocationRepository,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	broadcaster services.LocationBroadcaster,
	db *gorm.DB,
) LocationFlow {
	return &LocationFlowImpl{
		locationRepo: locationRepo,
		userRepo:     userRepo,
		orderRepo:    orderRepo,
		broadcaster:  broadcaster,
		db:           db,
	}
}

// IngestLocation validates, persists and broadcasts a position report
func (lf *LocationFlowImpl) IngestLocation(ctx context.Context, request *dto.LocationPingRequest, actor Actor, metadata *ClientMetadata) (*dto.TechnicianLocationDTO, error) {
	if request.Latitude < -90 || request.Latitude > 90 {
		return nil, NewBusinessError("LOCATION_VALIDATION_FAILED", "Invalid latitude", ErrLatitudeOutOfRange)
	}
	if request.Longitude < -180 || request.Longitude > 180 {
		return nil, NewBusinessError("LOCATION_VALIDATION_FAILED", "Invalid longitude", ErrLongitudeOutOfRange)
	}

	technician, err := lf.userRepo.ByID(ctx, actor.ID)
	if err != nil {
		return nil, NewBusinessError("LOCATION_INGEST_FAILED", "Failed to load technician", err)
	}
	if technician == nil {
		return nil, NewBusinessError("TECHNICIAN_NOT_FOUND", "Technician not found", ErrTechnicianNotFound)
	}
	if !technician.IsTechnician() {
		return nil, NewBusinessError("NOT_A_TECHNICIAN", "User is not a technician", ErrNotATechnician)
	}

	if request.OrderID != nil {
		order, err := lf.orderRepo.ByID(ctx, *request.OrderID)
		if err != nil {
			return nil, NewBusinessError("LOCATION_INGEST_FAILED", "Failed to load order", err)
		}
		if order == nil {
			return nil, NewBusinessError("ORDER_NOT_FOUND", "Order not found", ErrOrderNotFound)
		}
	}

	reportedAt := utils.UTCNow()
	if request.ReportedAt != nil {
		parsed, err := time.Parse(time.RFC3339, *request.ReportedAt)
		if err != nil {
			return nil, NewBusinessError("LOCATION_VALIDATION_FAILED", "Invalid reported_at", err)
		}
		reportedAt = parsed.UTC()
	}

	location := &models.TechnicianLocation{
		TechnicianID:   technician.ID,
		OrderID:        request.OrderID,
		Latitude:       request.Latitude,
		Longitude:      request.Longitude,
		AccuracyMeters: request.AccuracyMeters,
		ReportedAt:     reportedAt,
	}

	if err := lf.locationRepo.Save(ctx, location); err != nil {
		return nil, NewBusinessError("LOCATION_INGEST_FAILED", "Failed to save location", err)
	}

	// Best effort after the write is durable.
	if lf.broadcaster != nil {
		lf.broadcaster.Publish(ctx, services.LocationUpdate{
			TechnicianID:   location.TechnicianID,
			OrderID:        location.OrderID,
			Latitude:       location.Latitude,
			Longitude:      location.Longitude,
			AccuracyMeters: location.AccuracyMeters,
			ReportedAt:     location.ReportedAt,
		})
	}

	result := ToTechnicianLocationDTO(*location)
	return &result, nil
}

// CurrentLocations returns the live position of every technician that
// reported within the freshness window
func (lf *LocationFlowImpl) CurrentLocations(ctx context.Context) ([]dto.TechnicianLocationDTO, error) {
	cutoff := utils.UTCNow().Add(-utils.LocationFreshnessWindow)
	locations, err := lf.locationRepo.CurrentSince(ctx, cutoff)
	if err != nil {
		return nil, NewBusinessError("LOCATION_QUERY_FAILED", "Failed to query current locations", err)
	}

	result := make([]dto.TechnicianLocationDTO, 0, len(locations))
	for _, location := range locations {
		result = append(result, ToTechnicianLocationDTO(*location))
	}
	return result, nil
}

// TechnicianLocation returns the most recent report of one technician, nil
// when the technician has never reported or the report is stale
func (lf *LocationFlowImpl) TechnicianLocation(ctx context.Context, technicianID uint) (*dto.TechnicianLocationDTO, error) {
	location, err := lf.locationRepo.LatestActive(ctx, technicianID)
	if err != nil {
		return nil, NewBusinessError("LOCATION_QUERY_FAILED", "Failed to query technician location", err)
	}
	if location == nil {
		return nil, nil
	}
	if location.ReportedAt.Before(utils.UTCNow().Add(-utils.LocationFreshnessWindow)) {
		return nil, nil
	}

	result := ToTechnicianLocationDTO(*location)
	return &result, nil
}
