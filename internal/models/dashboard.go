package models

// DashboardStats summarises the current equipment position.
type DashboardStats struct {
	ActiveBorrowings  int `db:"active_borrowings" json:"active_borrowings"`
	PendingReturns    int `db:"pending_returns" json:"pending_returns"`
	OverdueEquipment  int `db:"overdue_equipment" json:"overdue_equipment"`
	TotalStudents     int `db:"total_students" json:"total_students"`
	TotalTransactions int `db:"total_transactions" json:"total_transactions"`
}

// SportActivity breaks transaction counts down per sport.
type SportActivity struct {
	Sport   string `db:"sport" json:"sport"`
	Count   int    `db:"count" json:"count"`
	Active  int    `db:"active" json:"active"`
	Overdue int    `db:"overdue" json:"overdue"`
}

// ActivityTrend aggregates per-day request/taken/returned counts.
type ActivityTrend struct {
	Date     string `db:"date" json:"date"`
	Requests int    `db:"requests" json:"requests"`
	Taken    int    `db:"taken" json:"taken"`
	Returned int    `db:"returned" json:"returned"`
}

// DashboardResponse is the full admin dashboard payload.
type DashboardResponse struct {
	Stats              DashboardStats  `json:"stats"`
	EquipmentBySport   []SportActivity `json:"equipment_by_sport"`
	ActivityTrends     []ActivityTrend `json:"activity_trends"`
	RecentTransactions []LogbookEntry  `json:"recent_transactions"`
}
