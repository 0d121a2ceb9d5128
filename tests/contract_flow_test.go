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

func newContractFlow(testDB *testingutil.TestDB) businessflow.ContractFlow {
	return businessflow.NewContractFlow(
		repository.NewClientRepository(testDB.DB),
		repository.NewContractRepository(testDB.DB),
		testDB.DB,
	)
}

func TestContractFlowCreateContract(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newContractFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		actor := dispatcherActor(t, fixtures)

		client, err := fixtures.CreateTestClient()
		require.NoError(t, err)

		t.Run("CreatesActiveContract", func(t *testing.T) {
			request := &dto.CreateContractRequest{
				ContractNumber:    utils.ToPtr("CTR-2024-001"),
				StartDate:         "2024-01-01",
				EndDate:           utils.ToPtr("2024-12-31"),
				ResponseMinutes:   30,
				ResolutionMinutes: 120,
			}

			contract, err := flow.CreateContract(ctx, client.ID, request, actor, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.ContractStatusActive.String(), contract.Status)
			assert.Equal(t, 30, contract.ResponseMinutes)
			assert.Equal(t, 120, contract.ResolutionMinutes)
		})

		t.Run("AcceptsFullTimestamps", func(t *testing.T) {
			request := &dto.CreateContractRequest{
				StartDate:         "2024-06-01T08:00:00Z",
				ResponseMinutes:   45,
				ResolutionMinutes: 180,
			}

			contract, err := flow.CreateContract(ctx, client.ID, request, actor, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, 45, contract.ResponseMinutes)
		})

		t.Run("RejectsInvertedDates", func(t *testing.T) {
			request := &dto.CreateContractRequest{
				StartDate:         "2024-06-01",
				EndDate:           utils.ToPtr("2024-01-01"),
				ResponseMinutes:   30,
				ResolutionMinutes: 120,
			}

			_, err := flow.CreateContract(ctx, client.ID, request, actor, testMetadata())
			require.Error(t, err)
		})

		t.Run("RejectsNonPositiveBudgets", func(t *testing.T) {
			request := &dto.CreateContractRequest{
				StartDate:         "2024-01-01",
				ResponseMinutes:   0,
				ResolutionMinutes: 120,
			}

			_, err := flow.CreateContract(ctx, client.ID, request, actor, testMetadata())
			require.Error(t, err)
		})

		t.Run("RejectsUnknownClient", func(t *testing.T) {
			request := &dto.CreateContractRequest{
				StartDate:         "2024-01-01",
				ResponseMinutes:   30,
				ResolutionMinutes: 120,
			}

			_, err := flow.CreateContract(ctx, 99999, request, actor, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsClientNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestContractFlowUpdateAndResolve(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newContractFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		actor := dispatcherActor(t, fixtures)

		client, err := fixtures.CreateTestClient()
		require.NoError(t, err)
		contract, err := fixtures.CreateTestContract(client.ID, 60, 240, utils.UTCNow().Add(-24*time.Hour), nil)
		require.NoError(t, err)

		t.Run("UpdateBudgets", func(t *testing.T) {
			request := &dto.UpdateContractRequest{
				ResponseMinutes:   utils.ToPtr(15),
				ResolutionMinutes: utils.ToPtr(60),
			}

			updated, err := flow.UpdateContract(ctx, contract.ID, request, actor, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, 15, updated.ResponseMinutes)
			assert.Equal(t, 60, updated.ResolutionMinutes)
		})

		t.Run("ResolveActiveContract", func(t *testing.T) {
			resolved, err := flow.ResolveActiveContract(ctx, client.ID, utils.UTCNow())
			require.NoError(t, err)
			require.NotNil(t, resolved)
			assert.Equal(t, contract.ID, resolved.ID)
		})

		t.Run("CancelledContractStopsResolving", func(t *testing.T) {
			request := &dto.UpdateContractRequest{Status: utils.ToPtr("cancelled")}
			_, err := flow.UpdateContract(ctx, contract.ID, request, actor, testMetadata())
			require.NoError(t, err)

			resolved, err := flow.ResolveActiveContract(ctx, client.ID, utils.UTCNow())
			require.NoError(t, err)
			assert.Nil(t, resolved)
		})

		t.Run("DeleteContract", func(t *testing.T) {
			require.NoError(t, flow.DeleteContract(ctx, contract.ID, actor, testMetadata()))

			err := flow.DeleteContract(ctx, contract.ID, actor, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsContractNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
