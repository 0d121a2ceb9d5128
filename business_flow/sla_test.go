package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
)

var slaAnchor = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestComputeDeadlines(t *testing.T) {
	response, resolution := ComputeDeadlines(slaAnchor, 60, 240)

	assert.Equal(t, slaAnchor.Add(60*time.Minute), response)
	assert.Equal(t, slaAnchor.Add(240*time.Minute), resolution)
}

func TestComputeDeadlinesNormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	local := slaAnchor.In(zone)

	response, resolution := ComputeDeadlines(local, 60, 240)

	assert.Equal(t, time.UTC, response.Location())
	assert.True(t, response.Equal(slaAnchor.Add(time.Hour)))
	assert.True(t, resolution.Equal(slaAnchor.Add(4*time.Hour)))
}

func TestClassifyDeadline(t *testing.T) {
	budget := 60 * time.Minute
	deadline := slaAnchor.Add(budget)

	// More than 20% of the budget left.
	assert.Equal(t, models.SLAClassOnTrack, ClassifyDeadline(slaAnchor, deadline, budget))
	assert.Equal(t, models.SLAClassOnTrack, ClassifyDeadline(slaAnchor.Add(47*time.Minute), deadline, budget))

	// Warning window opens at exactly 12 minutes remaining (20% of 60).
	assert.Equal(t, models.SLAClassWarning, ClassifyDeadline(slaAnchor.Add(48*time.Minute), deadline, budget))
	assert.Equal(t, models.SLAClassWarning, ClassifyDeadline(slaAnchor.Add(59*time.Minute), deadline, budget))

	// At or past the deadline.
	assert.Equal(t, models.SLAClassBreached, ClassifyDeadline(deadline, deadline, budget))
	assert.Equal(t, models.SLAClassBreached, ClassifyDeadline(deadline.Add(time.Minute), deadline, budget))
}

func TestClassifyDeadlineShortBudgetWarnsSooner(t *testing.T) {
	budget := 30 * time.Minute
	deadline := slaAnchor.Add(budget)

	// 20% of 30 minutes is a 6 minute window.
	assert.Equal(t, models.SLAClassOnTrack, ClassifyDeadline(slaAnchor.Add(23*time.Minute), deadline, budget))
	assert.Equal(t, models.SLAClassWarning, ClassifyDeadline(slaAnchor.Add(24*time.Minute), deadline, budget))
}

func newSLAOrder(status models.OrderStatus) *models.Order {
	response, resolution := ComputeDeadlines(slaAnchor, 60, 240)
	return &models.Order{
		Status:             status,
		ScheduledStart:     slaAnchor,
		ResponseDeadline:   response,
		ResolutionDeadline: resolution,
		CreatedAt:          slaAnchor,
	}
}

func findState(t *testing.T, states []SLAState, kind models.SLAKind) SLAState {
	t.Helper()
	for _, state := range states {
		if state.Kind == kind {
			return state
		}
	}
	t.Fatalf("no state for kind %s", kind)
	return SLAState{}
}

func TestEvaluateOrderPendingOnTrack(t *testing.T) {
	order := newSLAOrder(models.OrderStatusPending)

	states := EvaluateOrder(order, 60, 240, slaAnchor.Add(10*time.Minute))
	require.Len(t, states, 2)

	response := findState(t, states, models.SLAKindResponse)
	assert.Equal(t, models.SLAClassOnTrack, response.Classification)
	assert.Nil(t, response.Met)

	resolution := findState(t, states, models.SLAKindResolution)
	assert.Equal(t, models.SLAClassOnTrack, resolution.Classification)
	assert.Nil(t, resolution.Met)
}

func TestEvaluateOrderBreachesIndependently(t *testing.T) {
	order := newSLAOrder(models.OrderStatusAssigned)

	// 90 minutes in: response breached, resolution still on track.
	states := EvaluateOrder(order, 60, 240, slaAnchor.Add(90*time.Minute))

	assert.Equal(t, models.SLAClassBreached, findState(t, states, models.SLAKindResponse).Classification)
	assert.Equal(t, models.SLAClassOnTrack, findState(t, states, models.SLAKindResolution).Classification)
}

func TestEvaluateOrderMetMilestoneIsFrozen(t *testing.T) {
	order := newSLAOrder(models.OrderStatusInProgress)
	order.ActualStart = utils.ToPtr(slaAnchor.Add(30 * time.Minute))

	// Evaluated long after the response deadline passed, the response
	// milestone stays met because it was reached in time.
	states := EvaluateOrder(order, 60, 240, slaAnchor.Add(3*time.Hour))

	response := findState(t, states, models.SLAKindResponse)
	assert.Equal(t, models.SLAClassOnTrack, response.Classification)
	require.NotNil(t, response.Met)
	assert.True(t, *response.Met)
}

func TestEvaluateOrderLateResponseStaysBreached(t *testing.T) {
	order := newSLAOrder(models.OrderStatusInProgress)
	order.ActualStart = utils.ToPtr(slaAnchor.Add(2 * time.Hour))

	states := EvaluateOrder(order, 60, 240, slaAnchor.Add(3*time.Hour))

	response := findState(t, states, models.SLAKindResponse)
	assert.Equal(t, models.SLAClassBreached, response.Classification)
	require.NotNil(t, response.Met)
	assert.False(t, *response.Met)
}

func TestEvaluateOrderCompletedInTime(t *testing.T) {
	order := newSLAOrder(models.OrderStatusCompleted)
	order.ActualStart = utils.ToPtr(slaAnchor.Add(30 * time.Minute))
	order.ActualEnd = utils.ToPtr(slaAnchor.Add(3 * time.Hour))

	states := EvaluateOrder(order, 60, 240, slaAnchor.Add(10*time.Hour))

	resolution := findState(t, states, models.SLAKindResolution)
	assert.Equal(t, models.SLAClassOnTrack, resolution.Classification)
	require.NotNil(t, resolution.Met)
	assert.True(t, *resolution.Met)
}

func TestEvaluateOrderCancelledIsFrozen(t *testing.T) {
	order := newSLAOrder(models.OrderStatusCancelled)

	// A cancelled order never breaches later, no matter how much time passes.
	states := EvaluateOrder(order, 60, 240, slaAnchor.Add(48*time.Hour))

	response := findState(t, states, models.SLAKindResponse)
	require.NotNil(t, response.Met)
	assert.False(t, *response.Met)

	resolution := findState(t, states, models.SLAKindResolution)
	assert.Equal(t, models.SLAClassOnTrack, resolution.Classification)
	require.NotNil(t, resolution.Met)
	assert.False(t, *resolution.Met)
}

func TestBudgetsForRecoversFromDeadlines(t *testing.T) {
	order := newSLAOrder(models.OrderStatusPending)

	responseMinutes, resolutionMinutes := BudgetsFor(order)
	assert.Equal(t, 60, responseMinutes)
	assert.Equal(t, 240, resolutionMinutes)
}

func TestBudgetsForFallsBackOnCorruptDeadlines(t *testing.T) {
	order := newSLAOrder(models.OrderStatusPending)
	order.ResponseDeadline = order.ScheduledStart.Add(-time.Hour)
	order.ResolutionDeadline = order.ScheduledStart

	responseMinutes, resolutionMinutes := BudgetsFor(order)
	assert.Equal(t, utils.DefaultResponseMinutes, responseMinutes)
	assert.Equal(t, utils.DefaultResolutionMinutes, resolutionMinutes)
}
