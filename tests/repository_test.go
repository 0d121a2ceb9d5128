// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	testingutil "github.com/talonsoft/fieldops/testing"
	"github.com/talonsoft/fieldops/utils"
)

func TestOrderRepositoryTransitionStatus(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewOrderRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ConditionalUpdateWins", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)

			affected, err := repo.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(1), affected)

			reloaded, err := repo.ByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusCancelled, reloaded.Status)
		})

		t.Run("StaleExpectationLoses", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)

			// First writer moves the order away from pending.
			affected, err := repo.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, nil)
			require.NoError(t, err)
			require.Equal(t, int64(1), affected)

			// Second writer still expects pending and must not win.
			affected, err = repo.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusAssigned, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(0), affected)

			reloaded, err := repo.ByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusCancelled, reloaded.Status)
		})

		t.Run("ExtraUpdatesApplied", func(t *testing.T) {
			order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)

			startedAt := utils.UTCNow().Truncate(time.Second)
			technician, err := fixtures.CreateTestUser(models.RoleTechnician)
			require.NoError(t, err)

			affected, err := repo.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusAssigned, map[string]any{
				"assigned_technician_id": technician.ID,
				"actual_start":           startedAt,
			})
			require.NoError(t, err)
			require.Equal(t, int64(1), affected)

			reloaded, err := repo.ByID(ctx, order.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded.AssignedTechnicianID)
			assert.Equal(t, technician.ID, *reloaded.AssignedTechnicianID)
			require.NotNil(t, reloaded.ActualStart)
			assert.True(t, reloaded.ActualStart.Equal(startedAt))
		})

		t.Run("ListOpenSkipsTerminal", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			open, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)
			closed, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
			require.NoError(t, err)
			_, err = repo.TransitionStatus(ctx, closed.ID, models.OrderStatusPending, models.OrderStatusCancelled, nil)
			require.NoError(t, err)

			orders, err := repo.ListOpen(ctx, 100, 0)
			require.NoError(t, err)
			require.Len(t, orders, 1)
			assert.Equal(t, open.ID, orders[0].ID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestContractRepositoryActiveForClient(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewContractRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		now := utils.UTCNow().Truncate(time.Second)

		t.Run("NoContract", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			contract, err := repo.ActiveForClient(ctx, client.ID, now)
			require.NoError(t, err)
			assert.Nil(t, contract)
		})

		t.Run("ExpiredContractExcluded", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			_, err = fixtures.CreateTestContract(client.ID, 30, 120,
				now.Add(-60*24*time.Hour), utils.ToPtr(now.Add(-30*24*time.Hour)))
			require.NoError(t, err)

			contract, err := repo.ActiveForClient(ctx, client.ID, now)
			require.NoError(t, err)
			assert.Nil(t, contract)
		})

		t.Run("FutureContractExcluded", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			_, err = fixtures.CreateTestContract(client.ID, 30, 120, now.Add(24*time.Hour), nil)
			require.NoError(t, err)

			contract, err := repo.ActiveForClient(ctx, client.ID, now)
			require.NoError(t, err)
			assert.Nil(t, contract)
		})

		t.Run("OpenEndedContractIncluded", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			created, err := fixtures.CreateTestContract(client.ID, 45, 180, now.Add(-24*time.Hour), nil)
			require.NoError(t, err)

			contract, err := repo.ActiveForClient(ctx, client.ID, now)
			require.NoError(t, err)
			require.NotNil(t, contract)
			assert.Equal(t, created.ID, contract.ID)
		})

		t.Run("LatestStartDateWins", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			_, err = fixtures.CreateTestContract(client.ID, 60, 240, now.Add(-30*24*time.Hour), nil)
			require.NoError(t, err)
			newer, err := fixtures.CreateTestContract(client.ID, 30, 120, now.Add(-7*24*time.Hour), nil)
			require.NoError(t, err)

			contract, err := repo.ActiveForClient(ctx, client.ID, now)
			require.NoError(t, err)
			require.NotNil(t, contract)
			assert.Equal(t, newer.ID, contract.ID)
			assert.Equal(t, 30, contract.ResponseMinutes)
		})

		t.Run("SameStartDateHighestIDWins", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			start := now.Add(-7 * 24 * time.Hour)
			_, err = fixtures.CreateTestContract(client.ID, 60, 240, start, nil)
			require.NoError(t, err)
			latest, err := fixtures.CreateTestContract(client.ID, 30, 120, start, nil)
			require.NoError(t, err)

			contract, err := repo.ActiveForClient(ctx, client.ID, now)
			require.NoError(t, err)
			require.NotNil(t, contract)
			assert.Equal(t, latest.ID, contract.ID)
		})

		t.Run("CancelledContractExcluded", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			cancelled, err := fixtures.CreateTestContract(client.ID, 30, 120, now.Add(-24*time.Hour), nil)
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(&models.Contract{}).
				Where("id = ?", cancelled.ID).
				Update("status", models.ContractStatusCancelled).Error)

			contract, err := repo.ActiveForClient(ctx, client.ID, now)
			require.NoError(t, err)
			assert.Nil(t, contract)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSLAAlertRepositoryLatestByOrderAndKind(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSLAAlertRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		order, err := fixtures.CreateOrderScaffold(utils.UTCNow().Add(time.Hour), 60, 240)
		require.NoError(t, err)

		t.Run("EmptyHistory", func(t *testing.T) {
			latest, err := repo.LatestByOrderAndKind(ctx, order.ID, models.SLAKindResponse)
			require.NoError(t, err)
			assert.Nil(t, latest)
		})

		t.Run("LatestRowPerKind", func(t *testing.T) {
			warning := &models.SLAAlert{
				OrderID:        order.ID,
				Kind:           models.SLAKindResponse,
				Classification: models.SLAClassWarning,
				Deadline:       order.ResponseDeadline,
			}
			require.NoError(t, repo.Save(ctx, warning))

			breach := &models.SLAAlert{
				OrderID:        order.ID,
				Kind:           models.SLAKindResponse,
				Classification: models.SLAClassBreached,
				Deadline:       order.ResponseDeadline,
			}
			require.NoError(t, repo.Save(ctx, breach))

			latest, err := repo.LatestByOrderAndKind(ctx, order.ID, models.SLAKindResponse)
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, models.SLAClassBreached, latest.Classification)

			// The other kind is untouched.
			resolution, err := repo.LatestByOrderAndKind(ctx, order.ID, models.SLAKindResolution)
			require.NoError(t, err)
			assert.Nil(t, resolution)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUserRepositoryListActiveTechnicians(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewUserRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		active, err := fixtures.CreateTestUser(models.RoleTechnician)
		require.NoError(t, err)

		inactive, err := fixtures.CreateTestUser(models.RoleTechnician)
		require.NoError(t, err)
		require.NoError(t, testDB.DB.Model(&models.User{}).
			Where("id = ?", inactive.ID).
			Update("is_active", false).Error)

		_, err = fixtures.CreateTestUser(models.RoleDispatcher)
		require.NoError(t, err)

		technicians, err := repo.ListActiveTechnicians(ctx)
		require.NoError(t, err)
		require.Len(t, technicians, 1)
		assert.Equal(t, active.ID, technicians[0].ID)

		return nil
	})
	require.NoError(t, err)
}
