package models

import "time"

// Role is a user role as reported by the backend.
type Role string

const (
	RoleUser     Role = "USER"
	RoleMerchant Role = "MERCHANT"
	RoleAdmin    Role = "ADMIN"
)

// User is a backend user profile.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role,omitempty"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	EmailVerified bool      `json:"emailVerified,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is a sign-up request. ConfirmPassword is checked client side and never sent.
type Registration struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"eqfield=Password"`
}

// ProfileUpdate is a partial profile change.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

// AuthResponse is the backend answer to login, register and Google exchange.
type AuthResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         *User  `json:"user"`
}

// Session is the authenticated identity this client holds. The access token is opaque.
type Session struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Local        bool      `json:"local,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
