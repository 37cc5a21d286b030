package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwardhq/scheduling-api/internal/dto"
	"github.com/windwardhq/scheduling-api/internal/models"
	appErrors "github.com/windwardhq/scheduling-api/pkg/errors"
)

type mockSettingsRepo struct {
	settings  *models.ScheduleSettings
	getErr    error
	updateErr error
	updated   *models.ScheduleSettings
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*models.ScheduleSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepo) Update(ctx context.Context, settings *models.ScheduleSettings) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *settings
	m.updated = &cp
	return nil
}

func validSettingsRequest() dto.UpdateSettingsRequest {
	return dto.UpdateSettingsRequest{
		DurationCapOne:   30,
		DurationCapTwo:   45,
		DurationCapThree: 60,
		StepDuration:     15,
		GapMinutes:       15,
		SubmitTime:       "08:00",
		Location:         "Main Hall",
		LocationOptions:  []string{"Main Hall", "Annex"},
	}
}

func TestSettingsGetNotConfigured(t *testing.T) {
	svc := NewSettingsService(&mockSettingsRepo{getErr: sql.ErrNoRows}, nil, nil)

	_, err := svc.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSettingsUpdate(t *testing.T) {
	repo := &mockSettingsRepo{settings: defaultSettings()}
	svc := NewSettingsService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), validSettingsRequest())
	require.NoError(t, err)
	assert.Equal(t, 45, updated.DurationCapTwo)
	assert.Equal(t, []string{"Main Hall", "Annex"}, []string(updated.LocationOptions))
	require.NotNil(t, repo.updated)
	assert.Equal(t, "08:00", repo.updated.SubmitTime)
}

func TestSettingsUpdateRejectsCapNotMultipleOfStep(t *testing.T) {
	svc := NewSettingsService(&mockSettingsRepo{settings: defaultSettings()}, nil, nil)

	req := validSettingsRequest()
	req.DurationCapTwo = 50
	_, err := svc.Update(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSettingsUpdateRejectsBadSubmitTime(t *testing.T) {
	svc := NewSettingsService(&mockSettingsRepo{settings: defaultSettings()}, nil, nil)

	req := validSettingsRequest()
	req.SubmitTime = "8am"
	_, err := svc.Update(context.Background(), req)
	require.Error(t, err)
}
