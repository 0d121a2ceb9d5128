// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"time"

	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
)

// SLAState is the derived classification of one order deadline at a point in
// time. Met is nil while the milestone is still outstanding.
type SLAState struct {
	Kind           models.SLAKind
	Deadline       time.Time
	Classification models.SLAClass
	Met            *bool
}

// ComputeDeadlines derives both SLA deadlines from the schedule anchor and
// the contract time budgets. Pure function; all SLA arithmetic funnels
// through here so creation and recalculation can never disagree.
func ComputeDeadlines(anchor time.Time, responseMinutes, resolutionMinutes int) (response, resolution time.Time) {
	anchor = anchor.UTC()
	response = anchor.Add(time.Duration(responseMinutes) * time.Minute)
	resolution = anchor.Add(time.Duration(resolutionMinutes) * time.Minute)
	return response, resolution
}

// ClassifyDeadline classifies an unmet deadline against the clock. The
// warning window opens when the remaining time drops to the configured
// fraction of the full budget, so short budgets warn proportionally sooner.
func ClassifyDeadline(now, deadline time.Time, budget time.Duration) models.SLAClass {
	if !now.Before(deadline) {
		return models.SLAClassBreached
	}
	warningWindow := time.Duration(float64(budget) * utils.SLAWarningFraction)
	if deadline.Sub(now) <= warningWindow {
		return models.SLAClassWarning
	}
	return models.SLAClassOnTrack
}

// classifyMet freezes the classification of a milestone that has already
// been reached: on_track when it was reached in time, breached otherwise.
func classifyMet(reachedAt, deadline time.Time) models.SLAClass {
	if reachedAt.After(deadline) {
		return models.SLAClassBreached
	}
	return models.SLAClassOnTrack
}

// EvaluateOrder derives the SLA state of both deadlines. A met milestone is
// judged by when it was actually reached and never changes afterwards; an
// outstanding one is judged against now. Cancelled orders are frozen at
// whatever they had achieved.
func EvaluateOrder(order *models.Order, responseMinutes, resolutionMinutes int, now time.Time) []SLAState {
	now = now.UTC()
	states := make([]SLAState, 0, 2)

	// Response milestone: technician en route or on site.
	response := SLAState{
		Kind:     models.SLAKindResponse,
		Deadline: order.ResponseDeadline,
	}
	switch {
	case order.Responded():
		reachedAt := now
		if order.ActualStart != nil {
			reachedAt = *order.ActualStart
		}
		response.Classification = classifyMet(reachedAt, order.ResponseDeadline)
		response.Met = utils.ToPtr(response.Classification == models.SLAClassOnTrack)
	case order.Status == models.OrderStatusCancelled:
		response.Classification = ClassifyDeadline(order.CreatedAt, order.ResponseDeadline, time.Duration(responseMinutes)*time.Minute)
		response.Met = utils.ToPtr(false)
	default:
		response.Classification = ClassifyDeadline(now, order.ResponseDeadline, time.Duration(responseMinutes)*time.Minute)
	}
	states = append(states, response)

	// Resolution milestone: work completed.
	resolution := SLAState{
		Kind:     models.SLAKindResolution,
		Deadline: order.ResolutionDeadline,
	}
	switch {
	case order.Status == models.OrderStatusCompleted:
		reachedAt := now
		if order.ActualEnd != nil {
			reachedAt = *order.ActualEnd
		}
		resolution.Classification = classifyMet(reachedAt, order.ResolutionDeadline)
		resolution.Met = utils.ToPtr(resolution.Classification == models.SLAClassOnTrack)
	case order.Status == models.OrderStatusCancelled:
		resolution.Classification = models.SLAClassOnTrack
		resolution.Met = utils.ToPtr(false)
	default:
		resolution.Classification = ClassifyDeadline(now, order.ResolutionDeadline, time.Duration(resolutionMinutes)*time.Minute)
	}
	states = append(states, resolution)

	return states
}

// BudgetsFor resolves the time budgets used to classify an existing order.
// The stored deadlines are authoritative; budgets are recovered from the
// deadline spread so that classification keeps working after a contract
// changes or expires.
func BudgetsFor(order *models.Order) (responseMinutes, resolutionMinutes int) {
	responseMinutes = int(order.ResponseDeadline.Sub(order.ScheduledStart).Minutes())
	resolutionMinutes = int(order.ResolutionDeadline.Sub(order.ScheduledStart).Minutes())
	if responseMinutes <= 0 {
		responseMinutes = utils.DefaultResponseMinutes
	}
	if resolutionMinutes <= 0 {
		resolutionMinutes = utils.DefaultResolutionMinutes
	}
	return responseMinutes, resolutionMinutes
}
