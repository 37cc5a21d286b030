package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/windwardhq/scheduling-api/internal/models"
)

// EventRepository persists lesson events. Creation is the only write the
// scheduling core performs; everything else arrives through the booking
// source and is re-read on rebuild.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new planned event for a lesson and returns it.
func (r *EventRepository) Create(ctx context.Context, lessonID string, date time.Time, duration int, location string) (*models.Event, error) {
	now := time.Now().UTC()
	event := &models.Event{
		ID:        uuid.NewString(),
		LessonID:  lessonID,
		Date:      date,
		Duration:  duration,
		Location:  location,
		Status:    models.EventPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const query = `INSERT INTO lesson_events (id, lesson_id, date, duration, location, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, event.ID, event.LessonID, event.Date, event.Duration, event.Location, event.Status, event.CreatedAt, event.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create lesson event: %w", err)
	}
	return event, nil
}

// UpdateStatus transitions an event's lifecycle status.
func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	const query = `UPDATE lesson_events SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update event status: event %s not found", id)
	}
	return nil
}
