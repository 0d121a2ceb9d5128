// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// OrderFlow handles the work order lifecycle: creation with SLA stamping,
// status transitions, assignment and the field check-in/check-out pair
type OrderFlow interface {
	CreateOrder(ctx context.Context, request *dto.CreateOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	GetOrder(ctx context.Context, orderID uint) (*dto.OrderDTO, error)
	ListOrders(ctx context.Context, request *dto.ListOrdersRequest) (*dto.OrderListDTO, error)
	UpdateOrder(ctx context.Context, orderID uint, request *dto.UpdateOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	// Transition moves the order to a new lifecycle status. The update is
	// conditional on the status observed here, so two racing transitions
	// cannot both win.
	Transition(ctx context.Context, orderID uint, request *dto.TransitionOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	Assign(ctx context.Context, orderID uint, request *dto.AssignOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	Unassign(ctx context.Context, orderID uint, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	CheckIn(ctx context.Context, orderID uint, request *dto.CheckInRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	CheckOut(ctx context.Context, orderID uint, request *dto.CheckOutRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	// RecalculateSLA restamps both deadlines from the contract currently in
	// effect. The only way deadlines change after creation.
	RecalculateSLA(ctx context.Context, orderID uint, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error)
	ListOrderEvents(ctx context.Context, orderID uint) ([]dto.OrderEventDTO, error)
}

// OrderFlowImpl implements the order business flow
type OrderFlowImpl struct {
	orderRepo       repository.OrderRepository
	orderEventRepo  repository.OrderEventRepository
	clientRepo      repository.ClientRepository
	siteRepo        repository.SiteRepository
	serviceTypeRepo repository.ServiceTypeRepository
	userRepo        repository.UserRepository
	contractRepo    repository.ContractRepository
	db              *gorm.DB
}

// NewOrderFlow creates a new order flow instance
func NewOrderFlow(
	orderRepo repository.OrderRepository,
	orderEventRepo repository.OrderEventRepository,
	clientRepo repository.ClientRepository,
	siteRepo repository.SiteRepository,
	serviceTypeRepo repository.ServiceTypeRepository,
	userRepo repository.UserRepository,
	contractRepo repository.ContractRepository,
	db *gorm.DB,
) OrderFlow {
	return &OrderFlowImpl{
		orderRepo:       orderRepo,
		orderEventRepo:  orderEventRepo,
		clientRepo:      clientRepo,
		siteRepo:        siteRepo,
		serviceTypeRepo: serviceTypeRepo,
		userRepo:        userRepo,
		contractRepo:    contractRepo,
		db:              db,
	}
}

// CreateOrder creates a work order and stamps its SLA deadlines from the
// client's contract in effect at the scheduled start, falling back to the
// system defaults when no contract covers it.
func (of *OrderFlowImpl) CreateOrder(ctx context.Context, request *dto.CreateOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	client, err := of.clientRepo.ByID(ctx, request.ClientID)
	if err != nil {
		return nil, NewBusinessError("ORDER_CREATE_FAILED", "Failed to load client", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}
	if !client.IsActive() {
		return nil, NewBusinessError("CLIENT_INACTIVE", "Client is inactive", ErrClientInactive)
	}

	site, err := of.siteRepo.ByID(ctx, request.SiteID)
	if err != nil {
		return nil, NewBusinessError("ORDER_CREATE_FAILED", "Failed to load site", err)
	}
	if site == nil {
		return nil, NewBusinessError("SITE_NOT_FOUND", "Site not found", ErrSiteNotFound)
	}
	if site.ClientID != client.ID {
		return nil, NewBusinessError("SITE_CLIENT_MISMATCH", "Site does not belong to the client", ErrSiteClientMismatch)
	}

	serviceType, err := of.serviceTypeRepo.ByID(ctx, request.ServiceTypeID)
	if err != nil {
		return nil, NewBusinessError("ORDER_CREATE_FAILED", "Failed to load service type", err)
	}
	if serviceType == nil {
		return nil, NewBusinessError("SERVICE_TYPE_NOT_FOUND", "Service type not found", ErrServiceTypeNotFound)
	}

	scheduledStart, err := time.Parse(time.RFC3339, request.ScheduledStart)
	if err != nil {
		return nil, NewBusinessError("ORDER_VALIDATION_FAILED", "Invalid scheduled start", err)
	}
	scheduledStart = scheduledStart.UTC()

	var scheduledEnd *time.Time
	if request.ScheduledEnd != nil {
		parsed, err := time.Parse(time.RFC3339, *request.ScheduledEnd)
		if err != nil {
			return nil, NewBusinessError("ORDER_VALIDATION_FAILED", "Invalid scheduled end", err)
		}
		scheduledEnd = utils.ToPtr(parsed.UTC())
	}

	responseMinutes, resolutionMinutes, err := of.resolveBudgets(ctx, client.ID, scheduledStart)
	if err != nil {
		return nil, NewBusinessError("ORDER_CREATE_FAILED", "Failed to resolve contract", err)
	}
	responseDeadline, resolutionDeadline := ComputeDeadlines(scheduledStart, responseMinutes, resolutionMinutes)

	priority := models.OrderPriorityMedium
	if request.Priority != nil {
		priority = models.OrderPriority(*request.Priority)
	}

	order := &models.Order{
		OrderNumber:        generateOrderNumber(scheduledStart),
		ClientID:           client.ID,
		SiteID:             site.ID,
		ServiceTypeID:      serviceType.ID,
		Status:             models.OrderStatusPending,
		Priority:           priority,
		ScheduledStart:     scheduledStart,
		ScheduledEnd:       scheduledEnd,
		ResponseDeadline:   responseDeadline,
		ResolutionDeadline: resolutionDeadline,
		Notes:              request.Notes,
		CreatedByID:        actor.ID,
	}

	if err := of.orderRepo.Save(ctx, order); err != nil {
		return nil, NewBusinessError("ORDER_CREATE_FAILED", "Failed to save order", err)
	}

	result := of.toOrderDTOWithSLA(order)
	return &result, nil
}

// GetOrder returns an order with its derived SLA state
func (of *OrderFlowImpl) GetOrder(ctx context.Context, orderID uint) (*dto.OrderDTO, error) {
	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := of.toOrderDTOWithSLA(order)
	return &result, nil
}

// ListOrders returns a filtered page of orders
func (of *OrderFlowImpl) ListOrders(ctx context.Context, request *dto.ListOrdersRequest) (*dto.OrderListDTO, error) {
	page := request.Page
	if page == 0 {
		page = 1
	}
	pageSize := request.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	if page < 1 {
		return nil, NewBusinessError("ORDER_LIST_FAILED", "Invalid page", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("ORDER_LIST_FAILED", "Invalid page size", ErrInvalidPageSize)
	}

	filter := models.OrderFilter{
		ClientID:             request.ClientID,
		AssignedTechnicianID: request.TechnicianID,
		Open:                 request.Open,
	}
	if request.Status != nil {
		status := models.OrderStatus(*request.Status)
		filter.Status = &status
	}
	if request.Priority != nil {
		priority := models.OrderPriority(*request.Priority)
		filter.Priority = &priority
	}

	total, err := of.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("ORDER_LIST_FAILED", "Failed to count orders", err)
	}

	orders, err := of.orderRepo.ByFilter(ctx, filter, "scheduled_start DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("ORDER_LIST_FAILED", "Failed to list orders", err)
	}

	result := &dto.OrderListDTO{
		Items:    make([]dto.OrderDTO, 0, len(orders)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, order := range orders {
		result.Items = append(result.Items, of.toOrderDTOWithSLA(order))
	}
	return result, nil
}

// UpdateOrder updates descriptive order fields outside the lifecycle.
// Rescheduling does not restamp the deadlines; that takes an explicit
// RecalculateSLA call.
func (of *OrderFlowImpl) UpdateOrder(ctx context.Context, orderID uint, request *dto.UpdateOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, NewBusinessError("ORDER_TERMINAL", "Order is in a terminal status", ErrOrderTerminal)
	}

	updates := map[string]any{"updated_at": utils.UTCNow()}
	if request.Priority != nil {
		priority := models.OrderPriority(*request.Priority)
		if !priority.Valid() {
			return nil, NewBusinessErrorf("ORDER_VALIDATION_FAILED", "Invalid priority: %s", nil, *request.Priority)
		}
		updates["priority"] = priority
	}
	if request.ScheduledStart != nil {
		parsed, err := time.Parse(time.RFC3339, *request.ScheduledStart)
		if err != nil {
			return nil, NewBusinessError("ORDER_VALIDATION_FAILED", "Invalid scheduled start", err)
		}
		start := parsed.UTC()
		// The stamped deadlines must stay at or after the scheduled start.
		// A reschedule past them needs an explicit RecalculateSLA first.
		if start.After(order.ResponseDeadline) || start.After(order.ResolutionDeadline) {
			return nil, NewBusinessError("ORDER_RESCHEDULE_BEYOND_SLA",
				"Rescheduled start is past the stamped SLA deadlines; recalculate the SLA first", ErrRescheduleBeyondDeadline)
		}
		updates["scheduled_start"] = start
	}
	if request.ScheduledEnd != nil {
		parsed, err := time.Parse(time.RFC3339, *request.ScheduledEnd)
		if err != nil {
			return nil, NewBusinessError("ORDER_VALIDATION_FAILED", "Invalid scheduled end", err)
		}
		updates["scheduled_end"] = parsed.UTC()
	}
	if request.Notes != nil {
		updates["notes"] = *request.Notes
	}

	affected, err := of.orderRepo.TransitionStatus(ctx, order.ID, order.Status, order.Status, updates)
	if err != nil {
		return nil, NewBusinessError("ORDER_UPDATE_FAILED", "Failed to update order", err)
	}
	if affected == 0 {
		return nil, NewBusinessError("CONCURRENT_MODIFICATION", "Order was modified concurrently", ErrConcurrentModification)
	}

	return of.GetOrder(ctx, orderID)
}

// Transition moves an order along the lifecycle state machine
func (of *OrderFlowImpl) Transition(ctx context.Context, orderID uint, request *dto.TransitionOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	next := models.OrderStatus(request.Status)
	if !next.Valid() {
		return nil, NewBusinessErrorf("ORDER_VALIDATION_FAILED", "Invalid status: %s", nil, request.Status)
	}

	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Assignment carries a technician and goes through Assign.
	if next == models.OrderStatusAssigned && order.AssignedTechnicianID == nil {
		return nil, NewBusinessError("ORDER_NOT_ASSIGNED", "Order has no assigned technician", ErrOrderNotAssigned)
	}

	updates := transitionStamps(order, next)
	if next == models.OrderStatusPending {
		// Back to the dispatch pool.
		updates["assigned_technician_id"] = nil
	}

	if err := of.applyTransition(ctx, order, next, updates, actor, request.Notes, nil, nil); err != nil {
		return nil, err
	}

	return of.GetOrder(ctx, orderID)
}

// Assign puts an order in a technician's queue. A pending order moves to
// assigned; an already assigned order is handed over without leaving the
// assigned status.
func (of *OrderFlowImpl) Assign(ctx context.Context, orderID uint, request *dto.AssignOrderRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	technician, err := of.userRepo.ByID(ctx, request.TechnicianID)
	if err != nil {
		return nil, NewBusinessError("ORDER_ASSIGN_FAILED", "Failed to load technician", err)
	}
	if technician == nil {
		return nil, NewBusinessError("TECHNICIAN_NOT_FOUND", "Technician not found", ErrTechnicianNotFound)
	}
	if !technician.IsTechnician() {
		return nil, NewBusinessError("NOT_A_TECHNICIAN", "User is not a technician", ErrNotATechnician)
	}
	if !utils.IsTrue(technician.IsActive) {
		return nil, NewBusinessError("TECHNICIAN_INACTIVE", "Technician is inactive", ErrTechnicianInactive)
	}

	next := models.OrderStatusAssigned
	if order.Status == models.OrderStatusAssigned {
		// Reassignment keeps the status.
		next = order.Status
	}

	updates := map[string]any{"assigned_technician_id": technician.ID}
	event := &models.OrderEvent{
		OrderID:   order.ID,
		EventType: models.OrderEventAssigned,
		ActorID:   actor.ID,
		Notes:     request.Notes,
	}
	if err := of.applyTransitionWithEvent(ctx, order, next, updates, event, true); err != nil {
		return nil, err
	}

	return of.GetOrder(ctx, orderID)
}

// Unassign removes the technician and sends the order back to pending
func (of *OrderFlowImpl) Unassign(ctx context.Context, orderID uint, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AssignedTechnicianID == nil {
		return nil, NewBusinessError("ORDER_NOT_ASSIGNED", "Order has no assigned technician", ErrOrderNotAssigned)
	}

	updates := map[string]any{"assigned_technician_id": nil}
	event := &models.OrderEvent{
		OrderID:   order.ID,
		EventType: models.OrderEventUnassigned,
		ActorID:   actor.ID,
	}
	if err := of.applyTransitionWithEvent(ctx, order, models.OrderStatusPending, updates, event, true); err != nil {
		return nil, err
	}

	return of.GetOrder(ctx, orderID)
}

// CheckIn records the assigned technician arriving on site, moving the order
// to in_progress and stamping actual_start
func (of *OrderFlowImpl) CheckIn(ctx context.Context, orderID uint, request *dto.CheckInRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := of.requireAssignedTechnician(order, actor); err != nil {
		return nil, err
	}
	if err := validateOptionalCoordinates(request.Latitude, request.Longitude); err != nil {
		return nil, NewBusinessError("ORDER_VALIDATION_FAILED", "Invalid coordinates", err)
	}

	next := models.OrderStatusInProgress
	updates := transitionStamps(order, next)
	event := &models.OrderEvent{
		OrderID:   order.ID,
		EventType: models.OrderEventCheckIn,
		ActorID:   actor.ID,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		Notes:     request.Notes,
	}
	if err := of.applyTransitionWithEvent(ctx, order, next, updates, event, false); err != nil {
		return nil, err
	}

	return of.GetOrder(ctx, orderID)
}

// CheckOut records the assigned technician finishing on site, completing the
// order and stamping actual_end
func (of *OrderFlowImpl) CheckOut(ctx context.Context, orderID uint, request *dto.CheckOutRequest, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := of.requireAssignedTechnician(order, actor); err != nil {
		return nil, err
	}
	if err := validateOptionalCoordinates(request.Latitude, request.Longitude); err != nil {
		return nil, NewBusinessError("ORDER_VALIDATION_FAILED", "Invalid coordinates", err)
	}

	next := models.OrderStatusCompleted
	updates := transitionStamps(order, next)
	event := &models.OrderEvent{
		OrderID:   order.ID,
		EventType: models.OrderEventCheckOut,
		ActorID:   actor.ID,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		Notes:     request.Notes,
	}
	if err := of.applyTransitionWithEvent(ctx, order, next, updates, event, false); err != nil {
		return nil, err
	}

	return of.GetOrder(ctx, orderID)
}

// RecalculateSLA restamps both deadlines from the contract in effect at the
// order's scheduled start. Terminal orders are left alone.
func (of *OrderFlowImpl) RecalculateSLA(ctx context.Context, orderID uint, actor Actor, metadata *ClientMetadata) (*dto.OrderDTO, error) {
	order, err := of.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, NewBusinessError("ORDER_TERMINAL", "Order is in a terminal status", ErrOrderTerminal)
	}

	responseMinutes, resolutionMinutes, err := of.resolveBudgets(ctx, order.ClientID, order.ScheduledStart)
	if err != nil {
		return nil, NewBusinessError("ORDER_SLA_RECALC_FAILED", "Failed to resolve contract", err)
	}
	responseDeadline, resolutionDeadline := ComputeDeadlines(order.ScheduledStart, responseMinutes, resolutionMinutes)

	err = repository.WithTransaction(ctx, of.db, func(txCtx context.Context) error {
		if err := of.orderRepo.UpdateDeadlines(txCtx, order.ID, responseDeadline, resolutionDeadline); err != nil {
			return err
		}
		note := fmt.Sprintf("response %s, resolution %s",
			responseDeadline.Format(time.RFC3339), resolutionDeadline.Format(time.RFC3339))
		event := &models.OrderEvent{
			OrderID:   order.ID,
			EventType: models.OrderEventSLARestamped,
			ActorID:   actor.ID,
			Notes:     &note,
		}
		return of.orderEventRepo.Save(txCtx, event)
	})
	if err != nil {
		return nil, NewBusinessError("ORDER_SLA_RECALC_FAILED", "Failed to restamp deadlines", err)
	}

	return of.GetOrder(ctx, orderID)
}

// ListOrderEvents returns the audit trail of an order
func (of *OrderFlowImpl) ListOrderEvents(ctx context.Context, orderID uint) ([]dto.OrderEventDTO, error) {
	if _, err := of.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}

	events, err := of.orderEventRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, NewBusinessError("ORDER_EVENTS_FAILED", "Failed to list order events", err)
	}

	result := make([]dto.OrderEventDTO, 0, len(events))
	for _, event := range events {
		result = append(result, ToOrderEventDTO(*event))
	}
	return result, nil
}

// applyTransition validates and executes a lifecycle move with the default
// audit event for the target status
func (of *OrderFlowImpl) applyTransition(ctx context.Context, order *models.Order, next models.OrderStatus, updates map[string]any, actor Actor, notes *string, lat, lng *float64) error {
	event := &models.OrderEvent{
		OrderID:   order.ID,
		EventType: eventTypeFor(next),
		ActorID:   actor.ID,
		Latitude:  lat,
		Longitude: lng,
		Notes:     notes,
	}
	return of.applyTransitionWithEvent(ctx, order, next, updates, event, false)
}

// applyTransitionWithEvent validates the move against the transition table,
// performs the conditional update and appends exactly one audit event, all
// in one transaction. A lost conditional update surfaces as
// ErrConcurrentModification. Self-transitions are invalid; sameStatusOK
// admits the two moves that legitimately keep the status (reassignment of
// an assigned order, unassignment of a pending one).
func (of *OrderFlowImpl) applyTransitionWithEvent(ctx context.Context, order *models.Order, next models.OrderStatus, updates map[string]any, event *models.OrderEvent, sameStatusOK bool) error {
	sameStatus := next == order.Status
	if (sameStatus && !sameStatusOK) || (!sameStatus && !order.CanTransitionTo(next)) {
		if order.Status.IsTerminal() {
			return NewBusinessError("ORDER_TERMINAL", "Order is in a terminal status", ErrOrderTerminal)
		}
		return NewBusinessErrorf("INVALID_TRANSITION", "Invalid transition from %s to %s",
			NewInvalidTransitionError(order.Status, next), order.Status, next)
	}

	from := order.Status
	event.FromStatus = &from
	event.ToStatus = &next

	err := repository.WithTransaction(ctx, of.db, func(txCtx context.Context) error {
		affected, err := of.orderRepo.TransitionStatus(txCtx, order.ID, order.Status, next, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrConcurrentModification
		}
		return of.orderEventRepo.Save(txCtx, event)
	})
	if err != nil {
		if IsConcurrentModification(err) {
			return NewBusinessError("CONCURRENT_MODIFICATION", "Order was modified concurrently", ErrConcurrentModification)
		}
		return NewBusinessError("ORDER_TRANSITION_FAILED", "Failed to apply transition", err)
	}
	return nil
}

// requireAssignedTechnician checks the actor is the order's technician.
// Admins and dispatchers may act on the technician's behalf.
func (of *OrderFlowImpl) requireAssignedTechnician(order *models.Order, actor Actor) error {
	if order.AssignedTechnicianID == nil {
		return NewBusinessError("ORDER_NOT_ASSIGNED", "Order has no assigned technician", ErrOrderNotAssigned)
	}
	if actor.IsTechnician() && *order.AssignedTechnicianID != actor.ID {
		return NewBusinessError("NOT_ASSIGNED_TECHNICIAN", "Order is assigned to a different technician", ErrNotAssignedTechnician)
	}
	return nil
}

// resolveBudgets returns the SLA time budgets for a client at an instant
func (of *OrderFlowImpl) resolveBudgets(ctx context.Context, clientID uint, at time.Time) (responseMinutes, resolutionMinutes int, err error) {
	contract, err := of.contractRepo.ActiveForClient(ctx, clientID, at)
	if err != nil {
		return 0, 0, err
	}
	if contract == nil {
		return utils.DefaultResponseMinutes, utils.DefaultResolutionMinutes, nil
	}
	return contract.ResponseMinutes, contract.ResolutionMinutes, nil
}

// toOrderDTOWithSLA attaches the derived SLA state to the order DTO
func (of *OrderFlowImpl) toOrderDTOWithSLA(order *models.Order) dto.OrderDTO {
	result := ToOrderDTO(*order)
	responseMinutes, resolutionMinutes := BudgetsFor(order)
	for _, state := range EvaluateOrder(order, responseMinutes, resolutionMinutes, utils.UTCNow()) {
		result.SLA = append(result.SLA, dto.SLAStateDTO{
			Kind:           state.Kind.String(),
			Deadline:       state.Deadline,
			Classification: state.Classification.String(),
			Met:            state.Met,
		})
	}
	return result
}

func (of *OrderFlowImpl) loadOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := of.orderRepo.ByID(ctx, orderID)
	if err != nil {
		return nil, NewBusinessError("ORDER_GET_FAILED", "Failed to load order", err)
	}
	if order == nil {
		return nil, NewBusinessError("ORDER_NOT_FOUND", "Order not found", ErrOrderNotFound)
	}
	return order, nil
}

// transitionStamps returns the timestamp updates a transition implies:
// en_route and in_progress stamp actual_start once, completed stamps
// actual_end.
func transitionStamps(order *models.Order, next models.OrderStatus) map[string]any {
	updates := map[string]any{}
	switch next {
	case models.OrderStatusEnRoute, models.OrderStatusInProgress:
		if order.ActualStart == nil {
			updates["actual_start"] = utils.UTCNow()
		}
	case models.OrderStatusCompleted:
		if order.ActualStart == nil {
			updates["actual_start"] = utils.UTCNow()
		}
		updates["actual_end"] = utils.UTCNow()
	}
	return updates
}

// eventTypeFor maps a target status to its audit event type
func eventTypeFor(next models.OrderStatus) models.OrderEventType {
	switch next {
	case models.OrderStatusCancelled:
		return models.OrderEventCancelled
	case models.OrderStatusCompleted:
		return models.OrderEventCompleted
	default:
		return models.OrderEventStatusChanged
	}
}

// generateOrderNumber builds a unique human-readable order number like
// ORD-20240115-4F7A2C
func generateOrderNumber(scheduledStart time.Time) string {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		// Fall back to a time-derived suffix; uniqueness is still enforced
		// by the database constraint.
		return fmt.Sprintf("ORD-%s-%06X", scheduledStart.Format("20060102"), utils.UTCNow().UnixNano()&0xFFFFFF)
	}
	return fmt.Sprintf("ORD-%s-%s", scheduledStart.Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}
