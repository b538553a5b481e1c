package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// GraphProfile is the identity returned by the Microsoft Graph /me endpoint.
type GraphProfile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	JobTitle          string `json:"jobTitle"`
	Department        string `json:"department"`
	OfficeLocation    string `json:"officeLocation"`
}

// Email returns the primary address, falling back to the UPN when the
// mail attribute is unset.
func (p GraphProfile) Email() string {
	if p.Mail != "" {
		return p.Mail
	}
	return p.UserPrincipalName
}

// ProviderLoginRequest carries the externally issued access token.
type ProviderLoginRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// VerifyRoleRequest is the step-up credential check for Coach/Admin logins.
type VerifyRoleRequest struct {
	MicrosoftID string   `json:"microsoft_id" validate:"required"`
	Role        UserRole `json:"role" validate:"required"`
	Password    string   `json:"password" validate:"required"`
}

// UnregisteredIdentity surfaces the external profile of a login that matched
// no account, so an administrator can provision it manually.
type UnregisteredIdentity struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	MicrosoftID string `json:"microsoft_id"`
}

// AuthUser describes the resolved user in login responses.
type AuthUser struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
	Sport       string   `json:"sport,omitempty"`
	MicrosoftID string   `json:"microsoft_id"`
}

// LoginResponse returns the issued session token, or flags that a
// step-up verification is still required (Coach/Admin).
type LoginResponse struct {
	User                 AuthUser `json:"user"`
	Token                string   `json:"token,omitempty"`
	RequiresVerification bool     `json:"requires_verification"`
}

// JWTClaims represents the JWT payload for session credentials.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	Sport  string   `json:"sport,omitempty"`
	jwt.RegisteredClaims
}
