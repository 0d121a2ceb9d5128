// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talonsoft/fieldops/app/scheduler"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	testingutil "github.com/talonsoft/fieldops/testing"
	"github.com/talonsoft/fieldops/utils"
)

func startTestMonitor(testDB *testingutil.TestDB) func() {
	monitor := scheduler.NewSLAMonitor(
		repository.NewOrderRepository(testDB.DB),
		repository.NewSLAAlertRepository(testDB.DB),
		testDB.DB,
		log.New(io.Discard, "", 0),
		50*time.Millisecond,
	)
	return monitor.Start(context.Background())
}

func alertsFor(t *testing.T, testDB *testingutil.TestDB, orderID uint, kind models.SLAKind) []*models.SLAAlert {
	t.Helper()
	repo := repository.NewSLAAlertRepository(testDB.DB)
	alerts, err := repo.ByFilter(testingutil.CreateTestContext(), models.SLAAlertFilter{
		OrderID: &orderID,
		Kind:    &kind,
	}, "id ASC", 0, 0)
	require.NoError(t, err)
	return alerts
}

func TestSLAMonitorRaisesBreachAlerts(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Scheduled five hours ago with a 60/240 budget: both deadlines are gone.
		order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(-5*time.Hour), 60, 240)
		require.NoError(t, err)

		stop := startTestMonitor(testDB)
		defer stop()

		assert.Eventually(t, func() bool {
			return len(alertsFor(t, testDB, order.ID, models.SLAKindResponse)) == 1 &&
				len(alertsFor(t, testDB, order.ID, models.SLAKindResolution)) == 1
		}, 3*time.Second, 25*time.Millisecond)

		response := alertsFor(t, testDB, order.ID, models.SLAKindResponse)
		require.Len(t, response, 1)
		assert.Equal(t, models.SLAClassBreached, response[0].Classification)

		// Several more sweeps run at this interval; an unchanged state must
		// not be re-alerted.
		time.Sleep(300 * time.Millisecond)
		assert.Len(t, alertsFor(t, testDB, order.ID, models.SLAKindResponse), 1)
		assert.Len(t, alertsFor(t, testDB, order.ID, models.SLAKindResolution), 1)

		return nil
	})
	require.NoError(t, err)
}

func TestSLAMonitorWarningWindow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// 55 minutes into a 60 minute response budget: inside the warning
		// window. The 240 minute resolution budget is still comfortably on
		// track, so only the response deadline alerts.
		order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(-55*time.Minute), 60, 240)
		require.NoError(t, err)

		stop := startTestMonitor(testDB)
		defer stop()

		assert.Eventually(t, func() bool {
			return len(alertsFor(t, testDB, order.ID, models.SLAKindResponse)) == 1
		}, 3*time.Second, 25*time.Millisecond)

		response := alertsFor(t, testDB, order.ID, models.SLAKindResponse)
		require.Len(t, response, 1)
		assert.Equal(t, models.SLAClassWarning, response[0].Classification)

		assert.Empty(t, alertsFor(t, testDB, order.ID, models.SLAKindResolution))

		return nil
	})
	require.NoError(t, err)
}

func TestSLAMonitorEscalatesWarningToBreach(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		alertRepo := repository.NewSLAAlertRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(-2*time.Hour), 60, 240)
		require.NoError(t, err)

		// A warning was already raised by an earlier sweep; the breach must
		// still come through as a new alert.
		require.NoError(t, alertRepo.Save(ctx, &models.SLAAlert{
			OrderID:        order.ID,
			Kind:           models.SLAKindResponse,
			Classification: models.SLAClassWarning,
			Deadline:       order.ResponseDeadline,
		}))

		stop := startTestMonitor(testDB)
		defer stop()

		assert.Eventually(t, func() bool {
			return len(alertsFor(t, testDB, order.ID, models.SLAKindResponse)) == 2
		}, 3*time.Second, 25*time.Millisecond)

		alerts := alertsFor(t, testDB, order.ID, models.SLAKindResponse)
		require.Len(t, alerts, 2)
		assert.Equal(t, models.SLAClassWarning, alerts[0].Classification)
		assert.Equal(t, models.SLAClassBreached, alerts[1].Classification)

		return nil
	})
	require.NoError(t, err)
}

func TestSLAMonitorIgnoresSettledMilestones(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		orderRepo := repository.NewOrderRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		// Response deadline passed, but the technician was en route well
		// before it: the milestone is settled and must never alert.
		scheduledStart := utils.UTCNow().Add(-90 * time.Minute)
		order, err := fixtures.CreateOrderScaffold(scheduledStart, 60, 240)
		require.NoError(t, err)

		affected, err := orderRepo.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusEnRoute, map[string]any{
			"actual_start": scheduledStart.Add(10 * time.Minute),
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), affected)

		stop := startTestMonitor(testDB)
		defer stop()

		// Give the monitor a few sweeps, then confirm silence.
		time.Sleep(300 * time.Millisecond)
		assert.Empty(t, alertsFor(t, testDB, order.ID, models.SLAKindResponse))
		assert.Empty(t, alertsFor(t, testDB, order.ID, models.SLAKindResolution))

		return nil
	})
	require.NoError(t, err)
}

func TestSLAMonitorSkipsTerminalOrders(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		orderRepo := repository.NewOrderRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		// Long past both deadlines, but cancelled: the SLA clock is frozen.
		order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(-24*time.Hour), 60, 240)
		require.NoError(t, err)

		affected, err := orderRepo.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, nil)
		require.NoError(t, err)
		require.Equal(t, int64(1), affected)

		stop := startTestMonitor(testDB)
		defer stop()

		time.Sleep(300 * time.Millisecond)
		assert.Empty(t, alertsFor(t, testDB, order.ID, models.SLAKindResponse))
		assert.Empty(t, alertsFor(t, testDB, order.ID, models.SLAKindResolution))

		return nil
	})
	require.NoError(t, err)
}
