package models

import "time"

// TransactionStatus enumerates the equipment borrow lifecycle states.
type TransactionStatus string

const (
	StatusRequested               TransactionStatus = "Requested"
	StatusTaken                   TransactionStatus = "Taken"
	StatusReturnedPendingApproval TransactionStatus = "ReturnedPendingApproval"
	StatusApproved                TransactionStatus = "Approved"
	StatusRejected                TransactionStatus = "Rejected"
	StatusOverdue                 TransactionStatus = "Overdue"
)

// AllStatuses lists every lifecycle state, used to populate filter facets.
func AllStatuses() []TransactionStatus {
	return []TransactionStatus{
		StatusRequested,
		StatusTaken,
		StatusReturnedPendingApproval,
		StatusApproved,
		StatusRejected,
		StatusOverdue,
	}
}

// OpenStatuses are the states that block a new equipment request and
// no-dues certification.
func OpenStatuses() []TransactionStatus {
	return []TransactionStatus{StatusTaken, StatusReturnedPendingApproval, StatusOverdue}
}

// EquipmentTransaction represents one borrow/return cycle of a piece of
// equipment by a student.
type EquipmentTransaction struct {
	ID             string            `db:"id" json:"id"`
	StudentID      string            `db:"student_id" json:"student_id"`
	Equipment      string            `db:"equipment" json:"equipment"`
	Quantity       int               `db:"quantity" json:"quantity"`
	TakenAt        *time.Time        `db:"taken_at" json:"taken_at,omitempty"`
	DueDate        time.Time         `db:"due_date" json:"due_date"`
	ReturnedAt     *time.Time        `db:"returned_at" json:"returned_at,omitempty"`
	Status         TransactionStatus `db:"status" json:"status"`
	ApprovedBy     *string           `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedByRole *UserRole         `db:"approved_by_role" json:"approved_by_role,omitempty"`
	Notes          *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// LogbookEntry is a transaction joined with the borrowing student's details.
type LogbookEntry struct {
	EquipmentTransaction
	StudentName string `db:"student_name" json:"student_name"`
	RollNumber  string `db:"roll_number" json:"roll_number"`
	Sport       string `db:"sport" json:"sport"`
}

// EquipmentRequestInput is the payload for a new borrow request.
type EquipmentRequestInput struct {
	Equipment string    `json:"equipment" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	DueDate   time.Time `json:"due_date" validate:"required"`
	Notes     *string   `json:"notes,omitempty"`
}

// RejectReturnInput carries the optional free-text reason a return was
// rejected. A blank reason is recorded as "No reason provided".
type RejectReturnInput struct {
	Reason string `json:"reason"`
}

// TransactionFilter captures filtering criteria for transaction listings.
// Optional fields left zero are not applied.
type TransactionFilter struct {
	StudentID string
	Student   string
	Sport     string
	Equipment string
	Status    TransactionStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// LogbookFacets holds distinct values for client-side filter population.
type LogbookFacets struct {
	Sports         []string            `json:"sports"`
	EquipmentTypes []string            `json:"equipment_types"`
	Statuses       []TransactionStatus `json:"statuses"`
}
