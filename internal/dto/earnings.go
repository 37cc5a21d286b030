package dto

// TeacherEarningsRow aggregates one teacher's priced events for a day.
// SchoolRevenue is the raw revenue-minus-commission figure used for
// aggregate statistics; SchoolProfit is the zero-floored figure shown to
// the school view.
type TeacherEarningsRow struct {
	TeacherID     string  `json:"teacher_id"`
	Username      string  `json:"username"`
	Events        int     `json:"events"`
	Minutes       int     `json:"minutes"`
	Revenue       float64 `json:"revenue"`
	Earned        float64 `json:"earned"`
	SchoolRevenue float64 `json:"school_revenue"`
	SchoolProfit  float64 `json:"school_profit"`
}

// DailyEarningsReport is the per-day earnings summary across all teachers.
type DailyEarningsReport struct {
	Date               string               `json:"date"`
	Teachers           []TeacherEarningsRow `json:"teachers"`
	TotalRevenue       float64              `json:"total_revenue"`
	TotalEarned        float64              `json:"total_earned"`
	TotalSchoolRevenue float64              `json:"total_school_revenue"`
	TotalSchoolProfit  float64              `json:"total_school_profit"`
}
