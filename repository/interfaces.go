// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/talonsoft/fieldops/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for users (admins, dispatchers, technicians)
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByUUID(ctx context.Context, uuid string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ListActiveTechnicians(ctx context.Context) ([]*models.User, error)
}

// ClientRepository defines operations for clients
type ClientRepository interface {
	Repository[models.Client, models.ClientFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Deactivate(ctx context.Context, clientID uint) error
	LockByID(ctx context.Context, clientID uint) (*models.Client, error)
}

// ContactRepository defines operations for client contacts
type ContactRepository interface {
	Repository[models.Contact, models.ContactFilter]
	ListByClient(ctx context.Context, clientID uint) ([]*models.Contact, error)
	ClearPrimary(ctx context.Context, clientID uint, exceptID *uint) error
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, contactID uint) error
}

// SiteRepository defines operations for client sites
type SiteRepository interface {
	Repository[models.Site, models.SiteFilter]
	ListByClient(ctx context.Context, clientID uint) ([]*models.Site, error)
	ClearDefault(ctx context.Context, clientID uint, exceptID *uint) error
	Update(ctx context.Context, site *models.Site) error
	Delete(ctx context.Context, siteID uint) error
}

// ContractRepository defines operations for service contracts
type ContractRepository interface {
	Repository[models.Contract, models.ContractFilter]
	ListByClient(ctx context.Context, clientID uint) ([]*models.Contract, error)
	// ActiveForClient returns the contract in effect for the client at the
	// given instant: active status, date range containing the instant, latest
	// start date wins. Nil when no contract qualifies.
	ActiveForClient(ctx context.Context, clientID uint, at time.Time) (*models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	Delete(ctx context.Context, contractID uint) error
}

// ServiceTypeRepository defines operations for service types
type ServiceTypeRepository interface {
	Repository[models.ServiceType, models.ServiceTypeFilter]
	ByName(ctx context.Context, name string) (*models.ServiceType, error)
}

// OrderRepository defines operations for work orders
type OrderRepository interface {
	Repository[models.Order, models.OrderFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Order, error)
	ByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// TransitionStatus applies a conditional status update: the row is only
	// touched when its current status still equals expected. Returns the
	// number of rows affected so callers can detect concurrent modification.
	TransitionStatus(ctx context.Context, orderID uint, expected, next models.OrderStatus, updates map[string]any) (int64, error)
	UpdateDeadlines(ctx context.Context, orderID uint, response, resolution time.Time) error
	ListOpen(ctx context.Context, limit, offset int) ([]*models.Order, error)
	CountActiveByTechnician(ctx context.Context, technicianID uint) (int64, error)
}

// OrderEventRepository defines operations for the order audit log
type OrderEventRepository interface {
	Repository[models.OrderEvent, models.OrderEventFilter]
	ListByOrder(ctx context.Context, orderID uint) ([]*models.OrderEvent, error)
}

// TechnicianLocationRepository defines operations for position reports
type TechnicianLocationRepository interface {
	Repository[models.TechnicianLocation, models.TechnicianLocationFilter]
	// LatestActive returns the technician's most recent active report, nil
	// when none exists.
	LatestActive(ctx context.Context, technicianID uint) (*models.TechnicianLocation, error)
	// CurrentSince returns, per technician, the most recent active report
	// with reported_at after the cutoff.
	CurrentSince(ctx context.Context, cutoff time.Time) ([]*models.TechnicianLocation, error)
}

// SLAAlertRepository defines operations for monitor alert records
type SLAAlertRepository interface {
	Repository[models.SLAAlert, models.SLAAlertFilter]
	LatestByOrderAndKind(ctx context.Context, orderID uint, kind models.SLAKind) (*models.SLAAlert, error)
}
