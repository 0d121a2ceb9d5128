// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"errors"
	"fmt"

	"github.com/talonsoft/fieldops/models"
)

// Business flow error constants
var (
	// Auth errors
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Client-related errors
	ErrClientNotFound     = errors.New("client not found")
	ErrClientInactive     = errors.New("client is inactive")
	ErrContactNotFound    = errors.New("contact not found")
	ErrSiteNotFound       = errors.New("site not found")
	ErrSiteClientMismatch = errors.New("site does not belong to the client")

	// Contract-related errors
	ErrContractNotFound       = errors.New("contract not found")
	ErrNoActiveContract       = errors.New("no active contract covers this client")
	ErrContractDatesInverted  = errors.New("contract end date is before its start date")
	ErrContractBudgetsInvalid = errors.New("contract time budgets must be positive")

	// Order-related errors
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderTerminal            = errors.New("order is in a terminal status")
	ErrServiceTypeNotFound      = errors.New("service type not found")
	ErrTechnicianNotFound       = errors.New("technician not found")
	ErrNotATechnician           = errors.New("user is not a technician")
	ErrTechnicianInactive       = errors.New("technician is inactive")
	ErrOrderNotAssigned         = errors.New("order has no assigned technician")
	ErrNotAssignedTechnician    = errors.New("order is assigned to a different technician")
	ErrConcurrentModification   = errors.New("order was modified concurrently")
	ErrScheduledStartRequired   = errors.New("scheduled start is required")
	ErrRescheduleBeyondDeadline = errors.New("rescheduled start is past the stamped sla deadlines")

	// Location-related errors
	ErrLatitudeOutOfRange  = errors.New("latitude must be between -90 and 90")
	ErrLongitudeOutOfRange = errors.New("longitude must be between -180 and 180")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

// InvalidTransitionError reports a lifecycle move the transition table does
// not allow. It carries both endpoints so handlers can echo them back.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Is makes errors.Is(err, &InvalidTransitionError{}) match any invalid
// transition regardless of endpoints.
func (e *InvalidTransitionError) Is(target error) bool {
	_, ok := target.(*InvalidTransitionError)
	return ok
}

// NewInvalidTransitionError creates an invalid transition error
func NewInvalidTransitionError(from, to models.OrderStatus) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsClientNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

func IsClientInactive(err error) bool {
	return errors.Is(err, ErrClientInactive)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsSiteNotFound(err error) bool {
	return errors.Is(err, ErrSiteNotFound)
}

func IsContractNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound)
}

func IsNoActiveContract(err error) bool {
	return errors.Is(err, ErrNoActiveContract)
}

func IsOrderNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

func IsOrderTerminal(err error) bool {
	return errors.Is(err, ErrOrderTerminal)
}

func IsTechnicianNotFound(err error) bool {
	return errors.Is(err, ErrTechnicianNotFound)
}

func IsSiteClientMismatch(err error) bool {
	return errors.Is(err, ErrSiteClientMismatch)
}

func IsServiceTypeNotFound(err error) bool {
	return errors.Is(err, ErrServiceTypeNotFound)
}

func IsNotATechnician(err error) bool {
	return errors.Is(err, ErrNotATechnician)
}

func IsTechnicianInactive(err error) bool {
	return errors.Is(err, ErrTechnicianInactive)
}

func IsOrderNotAssigned(err error) bool {
	return errors.Is(err, ErrOrderNotAssigned)
}

func IsNotAssignedTechnician(err error) bool {
	return errors.Is(err, ErrNotAssignedTechnician)
}

func IsScheduledStartRequired(err error) bool {
	return errors.Is(err, ErrScheduledStartRequired)
}

func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

func IsRescheduleBeyondDeadline(err error) bool {
	return errors.Is(err, ErrRescheduleBeyondDeadline)
}

func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}

func IsCoordinateOutOfRange(err error) bool {
	return errors.Is(err, ErrLatitudeOutOfRange) || errors.Is(err, ErrLongitudeOutOfRange)
}
