package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/windwardhq/scheduling-api/internal/models"
)

// SettingsRepository persists the single-row schedule settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads the schedule settings row.
func (r *SettingsRepository) Get(ctx context.Context) (*models.ScheduleSettings, error) {
	const query = `SELECT id, duration_cap_one, duration_cap_two, duration_cap_three, step_duration,
       gap_minutes, submit_time, location, location_options, updated_at
FROM schedule_settings LIMIT 1`
	var settings models.ScheduleSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update overwrites the settings row.
func (r *SettingsRepository) Update(ctx context.Context, settings *models.ScheduleSettings) error {
	const query = `UPDATE schedule_settings
SET duration_cap_one = :duration_cap_one,
    duration_cap_two = :duration_cap_two,
    duration_cap_three = :duration_cap_three,
    step_duration = :step_duration,
    gap_minutes = :gap_minutes,
    submit_time = :submit_time,
    location = :location,
    location_options = :location_options,
    updated_at = :updated_at
WHERE id = :id`
	settings.UpdatedAt = time.Now().UTC()
	result, err := r.db.NamedExecContext(ctx, query, settings)
	if err != nil {
		return fmt.Errorf("update schedule settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update schedule settings: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update schedule settings: row %s not found", settings.ID)
	}
	return nil
}
