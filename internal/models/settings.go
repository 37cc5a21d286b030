package models

import (
	"time"

	"github.com/lib/pq"
)

// ScheduleSettings is the per-school scheduling configuration. Queue
// operations always receive a value copy so one slot search never sees a
// half-applied admin update.
type ScheduleSettings struct {
	ID               string         `db:"id" json:"id"`
	DurationCapOne   int            `db:"duration_cap_one" json:"duration_cap_one"`
	DurationCapTwo   int            `db:"duration_cap_two" json:"duration_cap_two"`
	DurationCapThree int            `db:"duration_cap_three" json:"duration_cap_three"`
	StepDuration     int            `db:"step_duration" json:"step_duration"`
	GapMinutes       int            `db:"gap_minutes" json:"gap_minutes"`
	SubmitTime       string         `db:"submit_time" json:"submit_time"`
	Location         string         `db:"location" json:"location"`
	LocationOptions  pq.StringArray `db:"location_options" json:"location_options"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// DurationForGroup resolves the event duration for a student group size.
// Group sizes of three or more share the same cap.
func (s ScheduleSettings) DurationForGroup(students int) int {
	switch {
	case students <= 1:
		return s.DurationCapOne
	case students == 2:
		return s.DurationCapTwo
	default:
		return s.DurationCapThree
	}
}
