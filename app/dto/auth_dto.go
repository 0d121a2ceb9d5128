// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"dispatcher@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// SessionDTO carries the issued token pair
type SessionDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"3600"`
}

// UserDTO represents user information returned in auth responses
type UserDTO struct {
	ID        uint   `json:"id" example:"123"`
	UUID      string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string `json:"name" example:"John Doe"`
	Email     string `json:"email" example:"dispatcher@example.com"`
	Phone     string `json:"phone,omitempty" example:"+15550100"`
	Role      string `json:"role" example:"dispatcher"`
	IsActive  *bool  `json:"is_active" example:"true"`
	CreatedAt string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	User    UserDTO    `json:"user"`
	Session SessionDTO `json:"session"`
}

// RefreshTokenRequest represents the request to exchange a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
