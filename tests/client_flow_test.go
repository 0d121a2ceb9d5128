// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talonsoft/fieldops/app/dto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	testingutil "github.com/talonsoft/fieldops/testing"
	"github.com/talonsoft/fieldops/utils"
)

func newClientFlow(testDB *testingutil.TestDB) businessflow.ClientFlow {
	return businessflow.NewClientFlow(
		repository.NewClientRepository(testDB.DB),
		repository.NewContactRepository(testDB.DB),
		repository.NewSiteRepository(testDB.DB),
		repository.NewContractRepository(testDB.DB),
		testDB.DB,
	)
}

func TestClientFlowClients(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newClientFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		actor := dispatcherActor(t, fixtures)

		t.Run("CreateAndGet", func(t *testing.T) {
			created, err := flow.CreateClient(ctx, &dto.CreateClientRequest{
				Name:  "Northwind Logistics",
				Email: utils.ToPtr("ops@northwind.example.com"),
			}, actor, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.ClientStatusActive.String(), created.Status)
			assert.NotEmpty(t, created.UUID)

			detail, err := flow.GetClient(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, detail.Client.ID)
			assert.Empty(t, detail.Contacts)
			assert.Empty(t, detail.Sites)
			assert.Empty(t, detail.Contracts)
		})

		t.Run("UpdateClient", func(t *testing.T) {
			created, err := flow.CreateClient(ctx, &dto.CreateClientRequest{Name: "Old Name Inc"}, actor, testMetadata())
			require.NoError(t, err)

			updated, err := flow.UpdateClient(ctx, created.ID, &dto.UpdateClientRequest{
				Name: utils.ToPtr("New Name Inc"),
			}, actor, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "New Name Inc", updated.Name)
		})

		t.Run("DeactivateKeepsRecord", func(t *testing.T) {
			created, err := flow.CreateClient(ctx, &dto.CreateClientRequest{Name: "Shortlived Corp"}, actor, testMetadata())
			require.NoError(t, err)

			require.NoError(t, flow.DeactivateClient(ctx, created.ID, actor, testMetadata()))

			detail, err := flow.GetClient(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ClientStatusInactive.String(), detail.Client.Status)
		})

		t.Run("GetUnknownClient", func(t *testing.T) {
			_, err := flow.GetClient(ctx, 99999)
			require.Error(t, err)
			assert.True(t, businessflow.IsClientNotFound(err))
		})

		t.Run("ListClientsSearch", func(t *testing.T) {
			_, err := flow.CreateClient(ctx, &dto.CreateClientRequest{Name: "Zebra Manufacturing"}, actor, testMetadata())
			require.NoError(t, err)

			items, total, err := flow.ListClients(ctx, utils.ToPtr("zebra"), 1, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
			require.Len(t, items, 1)
			assert.Equal(t, "Zebra Manufacturing", items[0].Name)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestClientFlowPrimaryContactRule(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newClientFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		actor := dispatcherActor(t, fixtures)

		client, err := fixtures.CreateTestClient()
		require.NoError(t, err)

		first, err := flow.AddContact(ctx, client.ID, &dto.CreateContactRequest{
			Name:      "First Contact",
			IsPrimary: utils.ToPtr(true),
		}, actor, testMetadata())
		require.NoError(t, err)
		assert.True(t, first.IsPrimary)

		// Promoting a second contact demotes the first.
		second, err := flow.AddContact(ctx, client.ID, &dto.CreateContactRequest{
			Name:      "Second Contact",
			IsPrimary: utils.ToPtr(true),
		}, actor, testMetadata())
		require.NoError(t, err)
		assert.True(t, second.IsPrimary)

		detail, err := flow.GetClient(ctx, client.ID)
		require.NoError(t, err)
		require.Len(t, detail.Contacts, 2)

		primaries := 0
		for _, contact := range detail.Contacts {
			if contact.IsPrimary {
				primaries++
				assert.Equal(t, second.ID, contact.ID)
			}
		}
		assert.Equal(t, 1, primaries)

		t.Run("ConcurrentPromotions", func(t *testing.T) {
			raced, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			left, err := flow.AddContact(ctx, raced.ID, &dto.CreateContactRequest{Name: "Left Contact"}, actor, testMetadata())
			require.NoError(t, err)
			right, err := flow.AddContact(ctx, raced.ID, &dto.CreateContactRequest{Name: "Right Contact"}, actor, testMetadata())
			require.NoError(t, err)

			// Both promotions race; the client row lock serializes them and
			// exactly one primary survives.
			var wg sync.WaitGroup
			promote := func(contactID uint) {
				defer wg.Done()
				_, err := flow.UpdateContact(ctx, raced.ID, contactID, &dto.UpdateContactRequest{
					IsPrimary: utils.ToPtr(true),
				}, actor, testMetadata())
				assert.NoError(t, err)
			}
			wg.Add(2)
			go promote(left.ID)
			go promote(right.ID)
			wg.Wait()

			var primaryCount int64
			require.NoError(t, testDB.DB.Model(&models.Contact{}).
				Where("client_id = ? AND is_primary = ?", raced.ID, true).
				Count(&primaryCount).Error)
			assert.Equal(t, int64(1), primaryCount)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestClientFlowDefaultSiteRule(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newClientFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		actor := dispatcherActor(t, fixtures)

		client, err := fixtures.CreateTestClient()
		require.NoError(t, err)

		first, err := flow.AddSite(ctx, client.ID, &dto.CreateSiteRequest{
			Name:      "North Plant",
			Address:   "1 North Road, Springfield",
			IsDefault: utils.ToPtr(true),
		}, actor, testMetadata())
		require.NoError(t, err)
		assert.True(t, first.IsDefault)

		second, err := flow.AddSite(ctx, client.ID, &dto.CreateSiteRequest{
			Name:      "South Plant",
			Address:   "2 South Road, Springfield",
			IsDefault: utils.ToPtr(true),
		}, actor, testMetadata())
		require.NoError(t, err)
		assert.True(t, second.IsDefault)

		detail, err := flow.GetClient(ctx, client.ID)
		require.NoError(t, err)
		require.Len(t, detail.Sites, 2)

		defaults := 0
		for _, site := range detail.Sites {
			if site.IsDefault {
				defaults++
				assert.Equal(t, second.ID, site.ID)
			}
		}
		assert.Equal(t, 1, defaults)

		t.Run("RejectsOutOfRangeCoordinates", func(t *testing.T) {
			_, err := flow.AddSite(ctx, client.ID, &dto.CreateSiteRequest{
				Name:     "Broken Plant",
				Address:  "3 Nowhere Lane, Springfield",
				Latitude: utils.ToPtr(123.0),
			}, actor, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCoordinateOutOfRange(err))
		})

		t.Run("RemoveSite", func(t *testing.T) {
			require.NoError(t, flow.RemoveSite(ctx, client.ID, first.ID, actor, testMetadata()))

			err := flow.RemoveSite(ctx, client.ID, first.ID, actor, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSiteNotFound(err))
		})

		t.Run("ConcurrentDefaultPromotions", func(t *testing.T) {
			raced, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			left, err := flow.AddSite(ctx, raced.ID, &dto.CreateSiteRequest{
				Name:    "Left Plant",
				Address: "10 West Road, Springfield",
			}, actor, testMetadata())
			require.NoError(t, err)
			right, err := flow.AddSite(ctx, raced.ID, &dto.CreateSiteRequest{
				Name:    "Right Plant",
				Address: "11 East Road, Springfield",
			}, actor, testMetadata())
			require.NoError(t, err)

			var wg sync.WaitGroup
			promote := func(siteID uint) {
				defer wg.Done()
				_, err := flow.UpdateSite(ctx, raced.ID, siteID, &dto.UpdateSiteRequest{
					IsDefault: utils.ToPtr(true),
				}, actor, testMetadata())
				assert.NoError(t, err)
			}
			wg.Add(2)
			go promote(left.ID)
			go promote(right.ID)
			wg.Wait()

			var defaultCount int64
			require.NoError(t, testDB.DB.Model(&models.Site{}).
				Where("client_id = ? AND is_default = ?", raced.ID, true).
				Count(&defaultCount).Error)
			assert.Equal(t, int64(1), defaultCount)
		})

		return nil
	})
	require.NoError(t, err)
}
