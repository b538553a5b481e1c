package models

import "time"

// Coach represents a coach account with a step-up password credential.
type Coach struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Sport        string    `db:"sport" json:"sport"`
	PasswordHash string    `db:"password_hash" json:"-"`
	MicrosoftID  string    `db:"microsoft_id" json:"microsoft_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCoachInput is the admin payload for registering a coach.
type CreateCoachInput struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Sport       string `json:"sport" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	MicrosoftID string `json:"microsoft_id" validate:"required"`
}

// UpdateCoachInput carries the mutable coach fields. Nil fields are left
// unchanged.
type UpdateCoachInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Sport    *string `json:"sport,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// CoachFilter captures filtering criteria for listing coaches.
type CoachFilter struct {
	Sport    string
	Page     int
	PageSize int
}
