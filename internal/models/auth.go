package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	User         UserInfo `json:"user"`
}

// RefreshRequest exchanges an outstanding refresh token for a fresh pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
}

// LogoutRequest revokes the caller's refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	IP           string `json:"-"`
}

// RegisterRequest creates a new student or teacher account.
type RegisterRequest struct {
	FullName string   `json:"full_name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     UserRole `json:"role" validate:"required"`
	// Student registration.
	ClassID      string `json:"class_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	// Teacher registration.
	TeacherDepartmentID string `json:"teacher_department_id,omitempty"`
	IP                  string `json:"-"`
}

// RegisterResponse acknowledges a successful registration.
type RegisterResponse struct {
	Message  string   `json:"message"`
	UserID   string   `json:"user_id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// UpdatePasswordRequest changes the password of the authenticated user.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	IP              string `json:"-"`
}

// ForgotPasswordRequest initiates the one-time-code reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset flow with the delivered code.
type ResetPasswordRequest struct {
	Email            string `json:"email" validate:"required,email"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
	NewPassword      string `json:"new_password" validate:"required,min=6"`
	IP               string `json:"-"`
}

// JWTClaims represents the JWT payload for access and refresh tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
