package dto

// CommissionBreakdown is the display-ready projection of one event's
// financials. It is derived on demand and never persisted.
type CommissionBreakdown struct {
	Type           string  `json:"type"`
	CommissionRate string  `json:"commission_rate"`
	PricePerHour   string  `json:"price_per_hour"`
	Hours          string  `json:"hours"`
	Earned         float64 `json:"earned"`
	EarnedDisplay  string  `json:"earned_display"`
}

// SlotProposal is the outcome of a slot search: where the next event of the
// resolved duration can start without breaking the gap/overlap invariant.
type SlotProposal struct {
	TeacherID string `json:"teacher_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
}

// ScheduleEventRequest asks for a new event on a teacher's queue.
type ScheduleEventRequest struct {
	LessonID string `json:"lesson_id" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Students int    `json:"students" validate:"required,min=1"`
	From     string `json:"from" validate:"omitempty,datetime=15:04"`
	Location string `json:"location"`
}

// ScheduleEventResponse reports the slot that was taken and the persisted
// event id.
type ScheduleEventResponse struct {
	EventID    string              `json:"event_id"`
	TeacherID  string              `json:"teacher_id"`
	Date       string              `json:"date"`
	Time       string              `json:"time"`
	Duration   int                 `json:"duration"`
	Location   string              `json:"location"`
	Commission CommissionBreakdown `json:"commission"`
}

// UpdateSettingsRequest is the admin payload for schedule settings.
type UpdateSettingsRequest struct {
	DurationCapOne   int      `json:"duration_cap_one" validate:"min=0"`
	DurationCapTwo   int      `json:"duration_cap_two" validate:"min=0"`
	DurationCapThree int      `json:"duration_cap_three" validate:"min=0"`
	StepDuration     int      `json:"step_duration" validate:"min=1"`
	GapMinutes       int      `json:"gap_minutes" validate:"min=0"`
	SubmitTime       string   `json:"submit_time" validate:"required,datetime=15:04"`
	Location         string   `json:"location"`
	LocationOptions  []string `json:"location_options"`
}
