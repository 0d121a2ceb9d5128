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

func newLocationFlow(testDB *testingutil.TestDB, hub *services.LocationHub) businessflow.LocationFlow {
	return businessflow.NewLocationFlow(
		repository.NewTechnicianLocationRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		repository.NewOrderRepository(testDB.DB),
		hub,
		testDB.DB,
	)
}

func TestLocationFlowIngest(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		hub := services.NewLocationHub(nil)
		flow := newLocationFlow(testDB, hub)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		technicianUser, err := fixtures.CreateTestUser(models.RoleTechnician)
		require.NoError(t, err)
		technician := businessflow.Actor{ID: technicianUser.ID, Role: technicianUser.Role}

		t.Run("PersistsAndBroadcasts", func(t *testing.T) {
			updates, cancel := hub.Subscribe()
			defer cancel()

			result, err := flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:  51.5007,
				Longitude: -0.1246,
			}, technician, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, technicianUser.ID, result.TechnicianID)
			assert.False(t, result.ReportedAt.IsZero())

			select {
			case update := <-updates:
				assert.Equal(t, technicianUser.ID, update.TechnicianID)
				assert.Equal(t, 51.5007, update.Latitude)
			case <-time.After(time.Second):
				t.Fatal("broadcast was not delivered")
			}
		})

		t.Run("RejectsOutOfRangeCoordinates", func(t *testing.T) {
			_, err := flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:  91,
				Longitude: 0,
			}, technician, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCoordinateOutOfRange(err))

			_, err = flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:  0,
				Longitude: -181,
			}, technician, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCoordinateOutOfRange(err))
		})

		t.Run("RejectsNonTechnician", func(t *testing.T) {
			dispatcher := dispatcherActor(t, fixtures)

			_, err := flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:  51.5,
				Longitude: -0.12,
			}, dispatcher, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsNotATechnician(err))
		})

		t.Run("RejectsUnknownOrder", func(t *testing.T) {
			_, err := flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:  51.5,
				Longitude: -0.12,
				OrderID:   utils.ToPtr(uint(99999)),
			}, technician, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsOrderNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestLocationFlowQueries(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLocationFlow(testDB, services.NewLocationHub(nil))
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		technicianUser, err := fixtures.CreateTestUser(models.RoleTechnician)
		require.NoError(t, err)
		technician := businessflow.Actor{ID: technicianUser.ID, Role: technicianUser.Role}

		t.Run("LatestReportWins", func(t *testing.T) {
			older := utils.UTCNow().Add(-5 * time.Minute).Format(time.RFC3339)
			_, err := flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:   50.0,
				Longitude:  8.0,
				ReportedAt: &older,
			}, technician, testMetadata())
			require.NoError(t, err)

			_, err = flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:  51.0,
				Longitude: 9.0,
			}, technician, testMetadata())
			require.NoError(t, err)

			current, err := flow.TechnicianLocation(ctx, technicianUser.ID)
			require.NoError(t, err)
			require.NotNil(t, current)
			assert.Equal(t, 51.0, current.Latitude)

			all, err := flow.CurrentLocations(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, technicianUser.ID, all[0].TechnicianID)
		})

		t.Run("StaleReportsDropOut", func(t *testing.T) {
			stale, err := fixtures.CreateTestUser(models.RoleTechnician)
			require.NoError(t, err)
			reportedAt := utils.UTCNow().Add(-utils.LocationFreshnessWindow - time.Minute).Format(time.RFC3339)

			_, err = flow.IngestLocation(ctx, &dto.LocationPingRequest{
				Latitude:   48.0,
				Longitude:  11.0,
				ReportedAt: &reportedAt,
			}, businessflow.Actor{ID: stale.ID, Role: stale.Role}, testMetadata())
			require.NoError(t, err)

			current, err := flow.TechnicianLocation(ctx, stale.ID)
			require.NoError(t, err)
			assert.Nil(t, current)
		})

		t.Run("UnknownTechnicianIsNil", func(t *testing.T) {
			current, err := flow.TechnicianLocation(ctx, 99999)
			require.NoError(t, err)
			assert.Nil(t, current)
		})

		return nil
	})
	require.NoError(t, err)
}
