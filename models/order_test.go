package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/talonsoft/fieldops/utils"
)

func TestOrderStatusValid(t *testing.T) {
	valid := []OrderStatus{
		OrderStatusPending, OrderStatusAssigned, OrderStatusEnRoute,
		OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusOnHold,
	}
	for _, status := range valid {
		assert.True(t, status.Valid(), "expected %s to be valid", status)
	}

	assert.False(t, OrderStatus("archived").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())

	for _, status := range []OrderStatus{
		OrderStatusPending, OrderStatusAssigned, OrderStatusEnRoute,
		OrderStatusInProgress, OrderStatusOnHold,
	} {
		assert.False(t, status.IsTerminal(), "expected %s to be non-terminal", status)
	}
}

func TestOrderCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusAssigned, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusEnRoute, false},
		{OrderStatusPending, OrderStatusCompleted, false},

		{OrderStatusAssigned, OrderStatusEnRoute, true},
		{OrderStatusAssigned, OrderStatusCancelled, true},
		{OrderStatusAssigned, OrderStatusPending, true},
		{OrderStatusAssigned, OrderStatusCompleted, false},
		{OrderStatusAssigned, OrderStatusInProgress, false},

		{OrderStatusEnRoute, OrderStatusInProgress, true},
		{OrderStatusEnRoute, OrderStatusOnHold, true},
		{OrderStatusEnRoute, OrderStatusCancelled, true},
		{OrderStatusEnRoute, OrderStatusCompleted, false},
		{OrderStatusEnRoute, OrderStatusPending, false},

		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusInProgress, OrderStatusOnHold, true},
		{OrderStatusInProgress, OrderStatusCancelled, true},
		{OrderStatusInProgress, OrderStatusPending, false},
		{OrderStatusInProgress, OrderStatusEnRoute, false},

		{OrderStatusOnHold, OrderStatusInProgress, true},
		{OrderStatusOnHold, OrderStatusCancelled, true},
		{OrderStatusOnHold, OrderStatusEnRoute, false},
		{OrderStatusOnHold, OrderStatusCompleted, false},

		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusInProgress, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusAssigned, false},
	}

	for _, tc := range cases {
		order := &Order{Status: tc.from}
		assert.Equal(t, tc.allowed, order.CanTransitionTo(tc.to),
			"transition %s -> %s", tc.from, tc.to)
	}
}

func TestOrderIsOpen(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusPending}).IsOpen())
	assert.True(t, (&Order{Status: OrderStatusOnHold}).IsOpen())
	assert.False(t, (&Order{Status: OrderStatusCompleted}).IsOpen())
	assert.False(t, (&Order{Status: OrderStatusCancelled}).IsOpen())
}

func TestOrderResponded(t *testing.T) {
	assert.False(t, (&Order{Status: OrderStatusPending}).Responded())
	assert.False(t, (&Order{Status: OrderStatusAssigned}).Responded())
	assert.False(t, (&Order{Status: OrderStatusOnHold}).Responded())

	assert.True(t, (&Order{Status: OrderStatusEnRoute}).Responded())
	assert.True(t, (&Order{Status: OrderStatusInProgress}).Responded())
	assert.True(t, (&Order{Status: OrderStatusCompleted}).Responded())

	// An on-hold order that had already started still counts as responded.
	started := utils.UTCNow().Add(-time.Hour)
	order := &Order{Status: OrderStatusOnHold, ActualStart: &started}
	assert.True(t, order.Responded())
}

func TestOrderPriorityValid(t *testing.T) {
	for _, priority := range []OrderPriority{
		OrderPriorityLow, OrderPriorityMedium, OrderPriorityHigh, OrderPriorityUrgent,
	} {
		assert.True(t, priority.Valid(), "expected %s to be valid", priority)
	}
	assert.False(t, OrderPriority("critical").Valid())
}

func TestSLAClassSeverity(t *testing.T) {
	assert.Equal(t, 0, SLAClassOnTrack.Severity())
	assert.Equal(t, 1, SLAClassWarning.Severity())
	assert.Equal(t, 2, SLAClassBreached.Severity())

	assert.Greater(t, SLAClassBreached.Severity(), SLAClassWarning.Severity())
	assert.Greater(t, SLAClassWarning.Severity(), SLAClassOnTrack.Severity())
}
