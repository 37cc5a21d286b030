package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/windwardhq/scheduling-api/internal/dto"
	"github.com/windwardhq/scheduling-api/internal/models"
	appErrors "github.com/windwardhq/scheduling-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.ScheduleSettings, error)
	Update(ctx context.Context, settings *models.ScheduleSettings) error
}

// SettingsService reads and updates the per-school schedule settings.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (*models.ScheduleSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule settings not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule settings")
	}
	return settings, nil
}

// Update validates and applies new settings. Duration caps must be
// multiples of the step duration so the admin UI's duration picker stays
// consistent with what queues schedule.
func (s *SettingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (*models.ScheduleSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	for _, capMinutes := range []int{req.DurationCapOne, req.DurationCapTwo, req.DurationCapThree} {
		if capMinutes%req.StepDuration != 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duration cap %d is not a multiple of step duration %d", capMinutes, req.StepDuration))
		}
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	settings.DurationCapOne = req.DurationCapOne
	settings.DurationCapTwo = req.DurationCapTwo
	settings.DurationCapThree = req.DurationCapThree
	settings.StepDuration = req.StepDuration
	settings.GapMinutes = req.GapMinutes
	settings.SubmitTime = req.SubmitTime
	settings.Location = req.Location
	settings.LocationOptions = pq.StringArray(req.LocationOptions)

	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule settings")
	}
	return settings, nil
}
