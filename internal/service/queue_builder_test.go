package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwardhq/scheduling-api/internal/models"
)

func dayEvent(id string, hour, minute, duration int) models.Event {
	return models.Event{
		ID:       id,
		Date:     time.Date(2026, 9, 1, hour, minute, 0, 0, time.UTC),
		Duration: duration,
		Status:   models.EventPlanned,
	}
}

func TestBuildOneQueuePerTeacherInOrder(t *testing.T) {
	builder := NewQueueBuilder(nil)
	teachers := []models.Teacher{
		{ID: "t1", Username: "anna"},
		{ID: "t2", Username: "ben"},
	}

	queues := builder.Build(teachers, nil)
	require.Len(t, queues, 2)
	assert.Equal(t, "anna", queues[0].TeacherUsername)
	assert.Equal(t, "ben", queues[1].TeacherUsername)
	assert.Empty(t, queues[0].Events)
}

func TestBuildOrdersEventsWithinQueue(t *testing.T) {
	builder := NewQueueBuilder(nil)
	teachers := []models.Teacher{{ID: "t1", Username: "anna"}}
	bookings := []models.Booking{
		{
			ID:       "b1",
			Package:  models.SchoolPackage{ID: "p1", PricePerStudent: 100, DurationMinutes: 60},
			Students: []models.Student{{ID: "s1"}},
			Lessons: []models.Lesson{
				{
					ID:        "l1",
					TeacherID: "t1",
					Events: []models.Event{
						dayEvent("e2", 14, 0, 60),
						dayEvent("e1", 9, 0, 60),
					},
				},
			},
		},
	}

	queues := builder.Build(teachers, bookings)
	require.Len(t, queues, 1)
	require.Len(t, queues[0].Events, 2)
	assert.Equal(t, "e1", queues[0].Events[0].ID)
	assert.Equal(t, "e2", queues[0].Events[1].ID)
}

func TestBuildDropsUnknownTeacherLessons(t *testing.T) {
	builder := NewQueueBuilder(nil)
	teachers := []models.Teacher{{ID: "t1", Username: "anna"}}
	bookings := []models.Booking{
		{
			ID: "b1",
			Lessons: []models.Lesson{
				{ID: "l1", TeacherID: "ghost", Events: []models.Event{dayEvent("e1", 9, 0, 60)}},
			},
		},
	}

	queues := builder.Build(teachers, bookings)
	require.Len(t, queues, 1)
	assert.Empty(t, queues[0].Events)
}

func TestBuildSkipsMalformedEvents(t *testing.T) {
	builder := NewQueueBuilder(nil)
	teachers := []models.Teacher{{ID: "t1", Username: "anna"}}
	bookings := []models.Booking{
		{
			ID: "b1",
			Lessons: []models.Lesson{
				{
					ID:        "l1",
					TeacherID: "t1",
					Events: []models.Event{
						{ID: "bad-no-date", Duration: 60},
						{ID: "bad-duration", Date: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), Duration: 0},
						dayEvent("good", 10, 0, 60),
					},
				},
			},
		},
	}

	queues := builder.Build(teachers, bookings)
	require.Len(t, queues, 1)
	require.Len(t, queues[0].Events, 1)
	assert.Equal(t, "good", queues[0].Events[0].ID)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	builder := NewQueueBuilder(nil)
	teachers := []models.Teacher{{ID: "t1", Username: "anna"}}
	students := []models.Student{{ID: "s1", FirstName: "First"}}
	bookings := []models.Booking{
		{
			ID:       "b1",
			Students: students,
			Lessons: []models.Lesson{
				{ID: "l1", TeacherID: "t1", Events: []models.Event{dayEvent("e1", 9, 0, 60)}},
			},
		},
	}

	queues := builder.Build(teachers, bookings)
	require.Len(t, queues[0].Events, 1)

	queues[0].Events[0].Students[0].FirstName = "Changed"
	assert.Equal(t, "First", students[0].FirstName)
}
