package models

import "time"

// DefaultSport is assigned when no sport keyword can be inferred for an
// auto-provisioned student.
const DefaultSport = "General"

// Student represents a registered student account.
type Student struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	RollNumber  string    `db:"roll_number" json:"roll_number"`
	Email       string    `db:"email" json:"email"`
	Sport       string    `db:"sport" json:"sport"`
	MicrosoftID string    `db:"microsoft_id" json:"microsoft_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Sport    string
	Search   string
	Page     int
	PageSize int
}
