// Package businessflow contains the core business logic and use cases for field service workflows
package businessflow

import (
	"context"
	"time"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/app/services"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginFlow handles user authentication
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.SessionDTO, error)
	Logout(ctx context.Context, accessToken string, metadata *ClientMetadata) error
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	userRepo     repository.UserRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	userRepo repository.UserRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		userRepo:     userRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Login authenticates a user with email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	user, err := lf.userRepo.ByEmail(ctx, request.Email)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrUserNotFound)
	}

	if !utils.IsTrue(user.IsActive) {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrAccountInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := lf.tokenService.GenerateTokens(user.ID, user.Role.String())
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to issue tokens", err)
	}

	return &dto.LoginResponse{
		User: ToUserDTO(*user),
		Session: dto.SessionDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(utils.AccessTokenTTL / time.Second),
		},
	}, nil
}

// Refresh exchanges a refresh token for a new token pair
func (lf *LoginFlowImpl) Refresh(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.SessionDTO, error) {
	accessToken, refreshToken, err := lf.tokenService.RefreshToken(request.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Failed to refresh tokens", err)
	}

	return &dto.SessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(utils.AccessTokenTTL / time.Second),
	}, nil
}

// Logout revokes the presented access token
func (lf *LoginFlowImpl) Logout(ctx context.Context, accessToken string, metadata *ClientMetadata) error {
	if err := lf.tokenService.RevokeToken(accessToken); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Failed to revoke token", err)
	}
	return nil
}
