package models

import "time"

// AttendanceStatus is the per-day attendance outcome for a student.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
)

// IsValid reports whether the status is Present or Absent.
func (s AttendanceStatus) IsValid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Attendance records at most one entry per student per calendar day.
// Date carries day granularity only; the uniqueness key is (student_id, date).
type Attendance struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	Sport        string           `db:"sport" json:"sport"`
	Date         time.Time        `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	MarkedByID   string           `db:"marked_by_id" json:"marked_by_id"`
	MarkedByRole UserRole         `db:"marked_by_role" json:"marked_by_role"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord joins an attendance row with the student's details.
type AttendanceRecord struct {
	Attendance
	StudentName string `db:"student_name" json:"student_name"`
	RollNumber  string `db:"roll_number" json:"roll_number"`
}

// MarkAttendanceInput records one student's attendance for a day.
type MarkAttendanceInput struct {
	StudentID string           `json:"student_id" validate:"required"`
	Date      time.Time        `json:"date" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required"`
}

// AttendanceFilter captures filtering criteria for the register.
// Date takes precedence over the StartDate/EndDate range when both are set.
type AttendanceFilter struct {
	Sport     string
	Date      *time.Time
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// AttendanceStats aggregates present/absent counts for a filtered period.
type AttendanceStats struct {
	TotalRecords int `db:"total_records" json:"total_records"`
	PresentCount int `db:"present_count" json:"present_count"`
	AbsentCount  int `db:"absent_count" json:"absent_count"`
}
