// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talonsoft/fieldops/app/dto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	testingutil "github.com/talonsoft/fieldops/testing"
	"github.com/talonsoft/fieldops/utils"
)

func newOrderFlow(testDB *testingutil.TestDB) businessflow.OrderFlow {
	return businessflow.NewOrderFlow(
		repository.NewOrderRepository(testDB.DB),
		repository.NewOrderEventRepository(testDB.DB),
		repository.NewClientRepository(testDB.DB),
		repository.NewSiteRepository(testDB.DB),
		repository.NewServiceTypeRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		repository.NewContractRepository(testDB.DB),
		testDB.DB,
	)
}

func dispatcherActor(t *testing.T, fixtures *testingutil.TestFixtures) businessflow.Actor {
	t.Helper()
	dispatcher, err := fixtures.CreateTestUser(models.RoleDispatcher)
	require.NoError(t, err)
	return businessflow.Actor{ID: dispatcher.ID, Role: dispatcher.Role}
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "fieldops-tests")
}

func createOrderRequest(clientID, siteID, serviceTypeID uint, scheduledStart time.Time) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		ClientID:       clientID,
		SiteID:         siteID,
		ServiceTypeID:  serviceTypeID,
		ScheduledStart: scheduledStart.Format(time.RFC3339),
	}
}

func transitionRequest(status models.OrderStatus) *dto.TransitionOrderRequest {
	return &dto.TransitionOrderRequest{Status: status.String()}
}

func assignRequest(technicianID uint) *dto.AssignOrderRequest {
	return &dto.AssignOrderRequest{TechnicianID: technicianID}
}

func TestOrderFlowCreateOrder(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newOrderFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		actor := dispatcherActor(t, fixtures)

		client, err := fixtures.CreateTestClient()
		require.NoError(t, err)
		site, err := fixtures.CreateTestSite(client.ID, true)
		require.NoError(t, err)
		serviceType, err := fixtures.CreateTestServiceType()
		require.NoError(t, err)

		scheduledStart := utils.UTCNow().Add(24 * time.Hour).Truncate(time.Second)

		t.Run("ContractBudgetsStampDeadlines", func(t *testing.T) {
			_, err := fixtures.CreateTestContract(client.ID, 30, 120, utils.UTCNow().Add(-24*time.Hour), nil)
			require.NoError(t, err)

			order, err := flow.CreateOrder(ctx, createOrderRequest(client.ID, site.ID, serviceType.ID, scheduledStart), actor, testMetadata())
			require.NoError(t, err)

			assert.Equal(t, models.OrderStatusPending.String(), order.Status)
			assert.True(t, order.ResponseDeadline.Equal(scheduledStart.Add(30*time.Minute)))
			assert.True(t, order.ResolutionDeadline.Equal(scheduledStart.Add(120*time.Minute)))
			assert.NotEmpty(t, order.OrderNumber)
			assert.Len(t, order.SLA, 2)
		})

		t.Run("DefaultsWithoutContract", func(t *testing.T) {
			other, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			otherSite, err := fixtures.CreateTestSite(other.ID, true)
			require.NoError(t, err)

			order, err := flow.CreateOrder(ctx, createOrderRequest(other.ID, otherSite.ID, serviceType.ID, scheduledStart), actor, testMetadata())
			require.NoError(t, err)

			assert.True(t, order.ResponseDeadline.Equal(scheduledStart.Add(time.Duration(utils.DefaultResponseMinutes)*time.Minute)))
			assert.True(t, order.ResolutionDeadline.Equal(scheduledStart.Add(time.Duration(utils.DefaultResolutionMinutes)*time.Minute)))
		})

		t.Run("SiteMustBelongToClient", func(t *testing.T) {
			other, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			_, err = flow.CreateOrder(ctx, createOrderRequest(other.ID, site.ID, serviceType.ID, scheduledStart), actor, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSiteClientMismatch(err))
		})

		t.Run("InactiveClientRejected", func(t *testing.T) {
			inactive, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			inactiveSite, err := fixtures.CreateTestSite(inactive.ID, true)
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(&models.Client{}).
				Where("id = ?", inactive.ID).
				Update("status", models.ClientStatusInactive).Error)

			_, err = flow.CreateOrder(ctx, createOrderRequest(inactive.ID, inactiveSite.ID, serviceType.ID, scheduledStart), actor, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsClientInactive(err))
		})

		t.Run("UnknownServiceTypeRejected", func(t *testing.T) {
			_, err := flow.CreateOrder(ctx, createOrderRequest(client.ID, site.ID, 99999, scheduledStart), actor, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsServiceTypeNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOrderFlowLifecycle(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newOrderFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		dispatcher := dispatcherActor(t, fixtures)

		order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
		require.NoError(t, err)

		technicianUser, err := fixtures.CreateTestUser(models.RoleTechnician)
		require.NoError(t, err)
		technician := businessflow.Actor{ID: technicianUser.ID, Role: technicianUser.Role}

		t.Run("Assign", func(t *testing.T) {
			result, err := flow.Assign(ctx, order.ID, assignRequest(technicianUser.ID), dispatcher, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusAssigned.String(), result.Status)
			require.NotNil(t, result.AssignedTechnicianID)
			assert.Equal(t, technicianUser.ID, *result.AssignedTechnicianID)
		})

		t.Run("EnRouteStampsActualStart", func(t *testing.T) {
			result, err := flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusEnRoute), technician, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusEnRoute.String(), result.Status)
			assert.NotNil(t, result.ActualStart)
		})

		t.Run("CheckIn", func(t *testing.T) {
			request := &dto.CheckInRequest{
				Latitude:  utils.ToPtr(51.5007),
				Longitude: utils.ToPtr(-0.1246),
			}
			result, err := flow.CheckIn(ctx, order.ID, request, technician, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusInProgress.String(), result.Status)
		})

		t.Run("CheckOutCompletes", func(t *testing.T) {
			result, err := flow.CheckOut(ctx, order.ID, &dto.CheckOutRequest{}, technician, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusCompleted.String(), result.Status)
			assert.NotNil(t, result.ActualEnd)
		})

		t.Run("TerminalRejectsFurtherTransitions", func(t *testing.T) {
			_, err := flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusCancelled), dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsOrderTerminal(err))
		})

		t.Run("TerminalRejectsSelfTransition", func(t *testing.T) {
			before, err := flow.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			require.NotNil(t, before.ActualEnd)

			_, err = flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusCompleted), dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsOrderTerminal(err))

			_, err = flow.CheckOut(ctx, order.ID, &dto.CheckOutRequest{}, technician, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsOrderTerminal(err))

			// The completion timestamp must not be restamped.
			after, err := flow.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			require.NotNil(t, after.ActualEnd)
			assert.True(t, after.ActualEnd.Equal(*before.ActualEnd))
		})

		t.Run("AuditTrailIsComplete", func(t *testing.T) {
			events, err := flow.ListOrderEvents(ctx, order.ID)
			require.NoError(t, err)
			require.Len(t, events, 4)
			assert.Equal(t, models.OrderEventAssigned.String(), events[0].EventType)
			assert.Equal(t, models.OrderEventStatusChanged.String(), events[1].EventType)
			assert.Equal(t, models.OrderEventCheckIn.String(), events[2].EventType)
			assert.Equal(t, models.OrderEventCheckOut.String(), events[3].EventType)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOrderFlowTransitionRules(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newOrderFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		dispatcher := dispatcherActor(t, fixtures)

		t.Run("PendingCannotGoEnRoute", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)

			_, err = flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusEnRoute), dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTransition(err))
		})

		t.Run("AssignedRequiresTechnician", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)

			_, err = flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusAssigned), dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsOrderNotAssigned(err))
		})

		t.Run("AssignRejectsNonTechnician", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)
			admin, err := fixtures.CreateTestUser(models.RoleAdmin)
			require.NoError(t, err)

			_, err = flow.Assign(ctx, order.ID, assignRequest(admin.ID), dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsNotATechnician(err))
		})

		t.Run("CheckInRequiresAssignedTechnician", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)

			assigned, err := fixtures.CreateTestUser(models.RoleTechnician)
			require.NoError(t, err)
			_, err = flow.Assign(ctx, order.ID, assignRequest(assigned.ID), dispatcher, testMetadata())
			require.NoError(t, err)
			_, err = flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusEnRoute),
				businessflow.Actor{ID: assigned.ID, Role: assigned.Role}, testMetadata())
			require.NoError(t, err)

			intruder, err := fixtures.CreateTestUser(models.RoleTechnician)
			require.NoError(t, err)

			_, err = flow.CheckIn(ctx, order.ID, &dto.CheckInRequest{},
				businessflow.Actor{ID: intruder.ID, Role: intruder.Role}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsNotAssignedTechnician(err))
		})

		t.Run("SelfTransitionRejected", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)

			_, err = flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusPending), dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTransition(err))

			events, err := flow.ListOrderEvents(ctx, order.ID)
			require.NoError(t, err)
			assert.Empty(t, events)
		})

		t.Run("DuplicateCheckInRejected", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)
			technicianUser, err := fixtures.CreateTestUser(models.RoleTechnician)
			require.NoError(t, err)
			technician := businessflow.Actor{ID: technicianUser.ID, Role: technicianUser.Role}

			_, err = flow.Assign(ctx, order.ID, assignRequest(technicianUser.ID), dispatcher, testMetadata())
			require.NoError(t, err)
			_, err = flow.Transition(ctx, order.ID, transitionRequest(models.OrderStatusEnRoute), technician, testMetadata())
			require.NoError(t, err)
			_, err = flow.CheckIn(ctx, order.ID, &dto.CheckInRequest{}, technician, testMetadata())
			require.NoError(t, err)

			_, err = flow.CheckIn(ctx, order.ID, &dto.CheckInRequest{}, technician, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTransition(err))
		})

		t.Run("UnassignReturnsToPending", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)
			technician, err := fixtures.CreateTestUser(models.RoleTechnician)
			require.NoError(t, err)
			_, err = flow.Assign(ctx, order.ID, assignRequest(technician.ID), dispatcher, testMetadata())
			require.NoError(t, err)

			result, err := flow.Unassign(ctx, order.ID, dispatcher, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusPending.String(), result.Status)
			assert.Nil(t, result.AssignedTechnicianID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOrderFlowRecalculateSLA(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newOrderFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		dispatcher := dispatcherActor(t, fixtures)

		scheduledStart := utils.UTCNow().Add(24 * time.Hour).Truncate(time.Second)
		order, err := fixtures.CreateOrderScaffold(scheduledStart, 60, 240)
		require.NoError(t, err)

		// A contract signed after order creation changes nothing until an
		// explicit recalculation.
		_, err = fixtures.CreateTestContract(order.ClientID, 30, 90, utils.UTCNow().Add(-time.Hour), nil)
		require.NoError(t, err)

		current, err := flow.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, current.ResponseDeadline.Equal(scheduledStart.Add(60*time.Minute)))

		restamped, err := flow.RecalculateSLA(ctx, order.ID, dispatcher, testMetadata())
		require.NoError(t, err)
		assert.True(t, restamped.ResponseDeadline.Equal(scheduledStart.Add(30*time.Minute)))
		assert.True(t, restamped.ResolutionDeadline.Equal(scheduledStart.Add(90*time.Minute)))

		events, err := flow.ListOrderEvents(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, models.OrderEventSLARestamped.String(), events[0].EventType)

		return nil
	})
	require.NoError(t, err)
}

func TestOrderFlowReschedule(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newOrderFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		dispatcher := dispatcherActor(t, fixtures)

		scheduledStart := utils.UTCNow().Add(24 * time.Hour).Truncate(time.Second)
		order, err := fixtures.CreateOrderScaffold(scheduledStart, 60, 240)
		require.NoError(t, err)

		t.Run("WithinDeadlinesKeepsStamps", func(t *testing.T) {
			moved := scheduledStart.Add(30 * time.Minute).Format(time.RFC3339)
			result, err := flow.UpdateOrder(ctx, order.ID, &dto.UpdateOrderRequest{
				ScheduledStart: &moved,
			}, dispatcher, testMetadata())
			require.NoError(t, err)
			assert.True(t, result.ResponseDeadline.Equal(scheduledStart.Add(60*time.Minute)))
			assert.True(t, result.ResolutionDeadline.Equal(scheduledStart.Add(240*time.Minute)))
		})

		t.Run("BeyondDeadlinesRejected", func(t *testing.T) {
			moved := scheduledStart.Add(5 * time.Hour).Format(time.RFC3339)
			_, err := flow.UpdateOrder(ctx, order.ID, &dto.UpdateOrderRequest{
				ScheduledStart: &moved,
			}, dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsRescheduleBeyondDeadline(err))

			// The order keeps the schedule from the accepted update.
			current, err := flow.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.True(t, current.ScheduledStart.Equal(scheduledStart.Add(30*time.Minute)))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOrderFlowListOrders(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newOrderFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		dispatcher := dispatcherActor(t, fixtures)

		first, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
		require.NoError(t, err)
		second, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(2*time.Hour), 60, 240)
		require.NoError(t, err)

		_, err = flow.Transition(ctx, second.ID, transitionRequest(models.OrderStatusCancelled), dispatcher, testMetadata())
		require.NoError(t, err)

		t.Run("All", func(t *testing.T) {
			listing, err := flow.ListOrders(ctx, &dto.ListOrdersRequest{})
			require.NoError(t, err)
			assert.Equal(t, int64(2), listing.Total)
			assert.Len(t, listing.Items, 2)
		})

		t.Run("OpenOnly", func(t *testing.T) {
			listing, err := flow.ListOrders(ctx, &dto.ListOrdersRequest{Open: utils.ToPtr(true)})
			require.NoError(t, err)
			require.Len(t, listing.Items, 1)
			assert.Equal(t, first.ID, listing.Items[0].ID)
		})

		t.Run("ByClient", func(t *testing.T) {
			listing, err := flow.ListOrders(ctx, &dto.ListOrdersRequest{ClientID: &first.ClientID})
			require.NoError(t, err)
			require.Len(t, listing.Items, 1)
			assert.Equal(t, first.ID, listing.Items[0].ID)
		})

		t.Run("InvalidPageSize", func(t *testing.T) {
			_, err := flow.ListOrders(ctx, &dto.ListOrdersRequest{PageSize: 500})
			require.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
