package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwardhq/scheduling-api/internal/models"
)

func TestSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	rows := sqlmock.NewRows([]string{"id", "duration_cap_one", "duration_cap_two", "duration_cap_three", "step_duration", "gap_minutes", "submit_time", "location", "location_options", "updated_at"}).
		AddRow("default", 30, 45, 60, 15, 15, "08:00", "Main Hall", `{"Main Hall"}`, time.Now())
	mock.ExpectQuery("FROM schedule_settings LIMIT 1").
		WillReturnRows(rows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, settings.DurationCapOne)
	assert.Equal(t, "08:00", settings.SubmitTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("UPDATE schedule_settings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	settings := &models.ScheduleSettings{
		ID:               "default",
		DurationCapOne:   30,
		DurationCapTwo:   45,
		DurationCapThree: 60,
		StepDuration:     15,
		GapMinutes:       15,
		SubmitTime:       "08:00",
		Location:         "Main Hall",
		LocationOptions:  pq.StringArray{"Main Hall"},
	}
	require.NoError(t, repo.Update(context.Background(), settings))
	assert.False(t, settings.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("UPDATE schedule_settings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.ScheduleSettings{ID: "ghost"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
