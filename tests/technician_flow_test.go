// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/app/services"
	businessflow "github.com/talonsoft/fieldops/business_flow"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	testingutil "github.com/talonsoft/fieldops/testing"
	"github.com/talonsoft/fieldops/utils"
)

func newTechnicianFlow(testDB *testingutil.TestDB) businessflow.TechnicianFlow {
	return businessflow.NewTechnicianFlow(
		repository.NewUserRepository(testDB.DB),
		repository.NewOrderRepository(testDB.DB),
		repository.NewTechnicianLocationRepository(testDB.DB),
		testDB.DB,
	)
}

func TestTechnicianFlowList(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newTechnicianFlow(testDB)
		orderFlow := newOrderFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		idle, err := fixtures.CreateTestUser(models.RoleTechnician)
		require.NoError(t, err)
		busy, err := fixtures.CreateTestUser(models.RoleTechnician)
		require.NoError(t, err)

		order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
		require.NoError(t, err)

		actor := dispatcherActor(t, fixtures)
		_, err = orderFlow.Assign(ctx, order.ID, assignRequest(busy.ID), actor, testMetadata())
		require.NoError(t, err)

		t.Run("WorkloadCounts", func(t *testing.T) {
			technicians, err := flow.ListTechnicians(ctx, false)
			require.NoError(t, err)

			counts := make(map[uint]int64, len(technicians))
			for _, technician := range technicians {
				counts[technician.ID] = technician.ActiveOrders
			}
			assert.Equal(t, int64(0), counts[idle.ID])
			assert.Equal(t, int64(1), counts[busy.ID])
		})

		t.Run("AvailableOnly", func(t *testing.T) {
			technicians, err := flow.ListTechnicians(ctx, true)
			require.NoError(t, err)

			for _, technician := range technicians {
				assert.NotEqual(t, busy.ID, technician.ID)
			}
		})

		t.Run("EmbedsFreshLocation", func(t *testing.T) {
			locationFlow := newLocationFlow(testDB, services.NewLocationHub(nil))
			_, err := locationFlow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:  52.52,
				Longitude: 13.405,
			}, businessflow.Actor{ID: idle.ID, Role: idle.Role}, testMetadata())
			require.NoError(t, err)

			detail, err := flow.GetTechnician(ctx, idle.ID)
			require.NoError(t, err)
			require.NotNil(t, detail.CurrentLocation)
			assert.Equal(t, 52.52, detail.CurrentLocation.Latitude)
		})

		t.Run("RejectsNonTechnician", func(t *testing.T) {
			_, err := flow.GetTechnician(ctx, actor.ID)
			require.Error(t, err)
			assert.True(t, businessflow.IsTechnicianNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
