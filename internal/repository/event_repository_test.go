package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwardhq/scheduling-api/internal/models"
)

func TestEventRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2026, 9, 1, 11, 15, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO lesson_events").
		WithArgs(sqlmock.AnyArg(), "l1", start, 30, "Main Hall", models.EventPlanned, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event, err := repo.Create(context.Background(), "l1", start, 30, "Main Hall")
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, models.EventPlanned, event.Status)
	assert.Equal(t, start, event.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lesson_events SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("e1", models.EventCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "e1", models.EventCompleted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateStatusMissingEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("UPDATE lesson_events").
		WithArgs("ghost", models.EventCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "ghost", models.EventCompleted)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
