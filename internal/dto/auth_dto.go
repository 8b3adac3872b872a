package dto

import (
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	ExternalUID string `json:"external_uid,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID              uuid.UUID      `json:"id"`
	Email           string         `json:"email"`
	DisplayName     string         `json:"display_name"`
	Role            models.Role    `json:"role"`
	ModeratedCampus *models.Campus `json:"moderated_campus,omitempty"`
	IsBanned        bool           `json:"is_banned"`
	BanReason       string         `json:"ban_reason,omitempty"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		Role:            u.Role,
		ModeratedCampus: u.ModeratedCampus,
		IsBanned:        u.IsBanned,
		BanReason:       u.BanReason,
	}
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Search    string `json:"search"`
}
