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
)

func newLoginFlow(t *testing.T, testDB *testingutil.TestDB) businessflow.LoginFlow {
	t.Helper()
	tokenService, err := services.NewTokenService(
		time.Hour, 24*time.Hour, "fieldops", "fieldops-api",
		false, "", "", "test-secret-key-at-least-32-characters-long", nil,
	)
	require.NoError(t, err)
	return businessflow.NewLoginFlow(repository.NewUserRepository(testDB.DB), tokenService, testDB.DB)
}

func TestLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLoginFlow(t, testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser(models.RoleDispatcher)
		require.NoError(t, err)

		t.Run("SuccessfulLogin", func(t *testing.T) {
			response, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "TestPass123!",
			}, testMetadata())
			require.NoError(t, err)

			assert.Equal(t, user.ID, response.User.ID)
			assert.Equal(t, models.RoleDispatcher, response.User.Role)
			assert.NotEmpty(t, response.Session.AccessToken)
			assert.NotEmpty(t, response.Session.RefreshToken)
			assert.Equal(t, "Bearer", response.Session.TokenType)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "WrongPass123!",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("UnknownEmail", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "nobody@example.com",
				Password: "TestPass123!",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("InactiveUser", func(t *testing.T) {
			inactive, err := fixtures.CreateTestUser(models.RoleTechnician)
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(&models.User{}).
				Where("id = ?", inactive.ID).
				Update("is_active", false).Error)

			_, err = flow.Login(ctx, &dto.LoginRequest{
				Email:    inactive.Email,
				Password: "TestPass123!",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		t.Run("RefreshIssuesNewPair", func(t *testing.T) {
			response, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "TestPass123!",
			}, testMetadata())
			require.NoError(t, err)

			session, err := flow.Refresh(ctx, &dto.RefreshTokenRequest{
				RefreshToken: response.Session.RefreshToken,
			}, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, session.AccessToken)
			assert.NotEmpty(t, session.RefreshToken)
		})

		t.Run("RefreshRejectsAccessToken", func(t *testing.T) {
			response, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "TestPass123!",
			}, testMetadata())
			require.NoError(t, err)

			_, err = flow.Refresh(ctx, &dto.RefreshTokenRequest{
				RefreshToken: response.Session.AccessToken,
			}, testMetadata())
			require.Error(t, err)
		})

		t.Run("LogoutWithoutRevocationStore", func(t *testing.T) {
			response, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "TestPass123!",
			}, testMetadata())
			require.NoError(t, err)

			require.NoError(t, flow.Logout(ctx, response.Session.AccessToken, testMetadata()))
		})

		return nil
	})
	require.NoError(t, err)
}
