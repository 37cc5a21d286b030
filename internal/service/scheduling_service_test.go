package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwardhq/scheduling-api/internal/dto"
	"github.com/windwardhq/scheduling-api/internal/models"
	"github.com/windwardhq/scheduling-api/pkg/config"
	appErrors "github.com/windwardhq/scheduling-api/pkg/errors"
)

type mockBookingRepo struct {
	bookings   []models.Booking
	listErr    error
	lesson     *models.Lesson
	booking    *models.Booking
	lessonErr  error
	listCalls  int
	lookupArgs []string
}

func (m *mockBookingRepo) ListByDay(ctx context.Context, day time.Time) ([]models.Booking, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.bookings, nil
}

func (m *mockBookingRepo) FindLesson(ctx context.Context, lessonID string) (*models.Lesson, *models.Booking, error) {
	m.lookupArgs = append(m.lookupArgs, lessonID)
	if m.lessonErr != nil {
		return nil, nil, m.lessonErr
	}
	return m.lesson, m.booking, nil
}

type mockActiveTeacherRepo struct {
	teachers []models.Teacher
	err      error
}

func (m *mockActiveTeacherRepo) ListActive(ctx context.Context) ([]models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.teachers, nil
}

type mockEventRepo struct {
	created   []models.Event
	createErr error
}

func (m *mockEventRepo) Create(ctx context.Context, lessonID string, date time.Time, duration int, location string) (*models.Event, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	event := models.Event{
		ID:       "persisted-1",
		LessonID: lessonID,
		Date:     date,
		Duration: duration,
		Location: location,
		Status:   models.EventPlanned,
	}
	m.created = append(m.created, event)
	return &event, nil
}

type mockSettingsGetter struct {
	settings *models.ScheduleSettings
	err      error
}

func (m *mockSettingsGetter) Get(ctx context.Context) (*models.ScheduleSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.settings, nil
}

type mockSnapshotCache struct {
	store     map[string][]byte
	published []string
	deleted   []string
	getErr    error
	setErr    error
}

func newMockSnapshotCache() *mockSnapshotCache {
	return &mockSnapshotCache{store: map[string][]byte{}}
}

func (m *mockSnapshotCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	return appErrors.ErrCacheMiss
}

func (m *mockSnapshotCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.store[key] = []byte("set")
	return nil
}

func (m *mockSnapshotCache) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.store, key)
	return nil
}

func (m *mockSnapshotCache) Publish(ctx context.Context, topic, date string) error {
	m.published = append(m.published, topic+"/"+date)
	return nil
}

func defaultSettings() *models.ScheduleSettings {
	return &models.ScheduleSettings{
		ID:               "default",
		DurationCapOne:   30,
		DurationCapTwo:   45,
		DurationCapThree: 60,
		StepDuration:     15,
		GapMinutes:       15,
		SubmitTime:       "08:00",
		Location:         "Main Hall",
	}
}

func testBooking() models.Booking {
	return models.Booking{
		ID:         "b1",
		LeaderName: "Leader",
		Package:    models.SchoolPackage{ID: "p1", PricePerStudent: 100, DurationMinutes: 60},
		Students:   []models.Student{{ID: "s1"}},
		Lessons: []models.Lesson{
			{
				ID:              "l1",
				BookingID:       "b1",
				TeacherID:       "t1",
				TeacherUsername: "anna",
				Commission:      models.CommissionInfo{Type: models.CommissionFixed, CPH: "40"},
				Events: []models.Event{
					{ID: "e1", LessonID: "l1", Date: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), Duration: 60, Status: models.EventPlanned},
				},
			},
		},
	}
}

func newTestSchedulingService(bookings *mockBookingRepo, teachers *mockActiveTeacherRepo, events *mockEventRepo, settings *mockSettingsGetter, cache *mockSnapshotCache) *SchedulingService {
	return NewSchedulingService(bookings, teachers, events, settings, cache, nil, nil, nil, nil, nil, config.SchedulingConfig{
		SnapshotTTL:       time.Minute,
		InvalidationTopic: "scheduling:invalidate",
	})
}

func TestQueuesRebuildsOnCacheMiss(t *testing.T) {
	booking := testBooking()
	bookings := &mockBookingRepo{bookings: []models.Booking{booking}}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	cache := newMockSnapshotCache()
	svc := newTestSchedulingService(bookings, teachers, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, cache)

	queues, err := svc.Queues(context.Background(), "2026-09-01")
	require.NoError(t, err)
	require.Len(t, queues, 1)
	require.Len(t, queues[0].Events, 1)
	assert.Equal(t, "e1", queues[0].Events[0].ID)
	assert.Equal(t, 1, bookings.listCalls)
	assert.Contains(t, cache.store, "scheduling:queues:2026-09-01")
}

func TestQueuesRejectsInvalidDate(t *testing.T) {
	svc := newTestSchedulingService(&mockBookingRepo{}, &mockActiveTeacherRepo{}, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, newMockSnapshotCache())

	_, err := svc.Queues(context.Background(), "01/09/2026")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestProposeSlotSkipsExistingEvents(t *testing.T) {
	bookings := &mockBookingRepo{bookings: []models.Booking{testBooking()}}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	svc := newTestSchedulingService(bookings, teachers, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, newMockSnapshotCache())

	// The 10:00-11:00 event plus 15-minute gaps forces a 30-minute single
	// student slot requested at 09:50 out to 11:15.
	proposal, err := svc.ProposeSlot(context.Background(), "2026-09-01", "t1", 1, "09:50")
	require.NoError(t, err)
	assert.Equal(t, "11:15", proposal.Time)
	assert.Equal(t, 30, proposal.Duration)
}

func TestProposeSlotUnknownTeacher(t *testing.T) {
	bookings := &mockBookingRepo{}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	svc := newTestSchedulingService(bookings, teachers, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, newMockSnapshotCache())

	_, err := svc.ProposeSlot(context.Background(), "2026-09-01", "ghost", 1, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTeacherUnavailable.Code, appErr.Code)
}

func TestScheduleEventPersistsAndPublishes(t *testing.T) {
	booking := testBooking()
	lesson := booking.Lessons[0]
	bookings := &mockBookingRepo{bookings: []models.Booking{booking}, lesson: &lesson, booking: &booking}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	events := &mockEventRepo{}
	cache := newMockSnapshotCache()
	svc := newTestSchedulingService(bookings, teachers, events, &mockSettingsGetter{settings: defaultSettings()}, cache)

	resp, err := svc.ScheduleEvent(context.Background(), "2026-09-01", "t1", dto.ScheduleEventRequest{
		LessonID: "l1",
		Date:     "2026-09-01",
		Students: 1,
		From:     "09:50",
	})
	require.NoError(t, err)
	assert.Equal(t, "persisted-1", resp.EventID)
	assert.Equal(t, "11:15", resp.Time)
	assert.Equal(t, 30, resp.Duration)
	assert.Equal(t, "Main Hall", resp.Location)
	assert.InDelta(t, 20, resp.Commission.Earned, 0.001)

	require.Len(t, events.created, 1)
	assert.Equal(t, time.Date(2026, 9, 1, 11, 15, 0, 0, time.UTC), events.created[0].Date)
	assert.Equal(t, []string{"scheduling:invalidate/2026-09-01"}, cache.published)
	assert.Contains(t, cache.deleted, "scheduling:queues:2026-09-01")

	// Pending overlay must be reconciled away after persistence.
	queues, err := svc.Queues(context.Background(), "2026-09-01")
	require.NoError(t, err)
	for _, queue := range queues {
		for _, node := range queue.Events {
			assert.False(t, node.Pending)
		}
	}
}

func TestScheduleEventRollsBackPendingOnPersistFailure(t *testing.T) {
	booking := testBooking()
	lesson := booking.Lessons[0]
	bookings := &mockBookingRepo{bookings: []models.Booking{booking}, lesson: &lesson, booking: &booking}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	events := &mockEventRepo{createErr: errors.New("insert failed")}
	cache := newMockSnapshotCache()
	svc := newTestSchedulingService(bookings, teachers, events, &mockSettingsGetter{settings: defaultSettings()}, cache)

	_, err := svc.ScheduleEvent(context.Background(), "2026-09-01", "t1", dto.ScheduleEventRequest{
		LessonID: "l1",
		Date:     "2026-09-01",
		Students: 1,
	})
	require.Error(t, err)
	assert.Empty(t, cache.published)

	queues, err := svc.Queues(context.Background(), "2026-09-01")
	require.NoError(t, err)
	require.Len(t, queues, 1)
	// Only the canonical event remains; the optimistic node is gone.
	require.Len(t, queues[0].Events, 1)
	assert.Equal(t, "e1", queues[0].Events[0].ID)
}

func TestScheduleEventRejectsForeignLesson(t *testing.T) {
	booking := testBooking()
	lesson := booking.Lessons[0]
	lesson.TeacherID = "t2"
	bookings := &mockBookingRepo{bookings: []models.Booking{booking}, lesson: &lesson, booking: &booking}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	svc := newTestSchedulingService(bookings, teachers, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, newMockSnapshotCache())

	_, err := svc.ScheduleEvent(context.Background(), "2026-09-01", "t1", dto.ScheduleEventRequest{
		LessonID: "l1",
		Date:     "2026-09-01",
		Students: 1,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScheduleEventMismatchedDates(t *testing.T) {
	svc := newTestSchedulingService(&mockBookingRepo{}, &mockActiveTeacherRepo{}, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, newMockSnapshotCache())

	_, err := svc.ScheduleEvent(context.Background(), "2026-09-01", "t1", dto.ScheduleEventRequest{
		LessonID: "l1",
		Date:     "2026-09-02",
		Students: 1,
	})
	require.Error(t, err)
}

func TestPendingNodesCountAsOccupied(t *testing.T) {
	booking := testBooking()
	lesson := booking.Lessons[0]
	bookings := &mockBookingRepo{bookings: []models.Booking{booking}, lesson: &lesson, booking: &booking}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	svc := newTestSchedulingService(bookings, teachers, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, newMockSnapshotCache())

	pending := EventNode{
		ID:       "pending-1",
		Date:     time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		Duration: 30,
		Pending:  true,
	}
	svc.addPending("2026-09-01", "t1", pending)

	// 08:00-08:30 pending plus the 10:00 canonical event leaves the first
	// 30-minute slot at 08:45.
	proposal, err := svc.ProposeSlot(context.Background(), "2026-09-01", "t1", 1, "08:00")
	require.NoError(t, err)
	assert.Equal(t, "08:45", proposal.Time)
}

func TestInvalidateDropsSnapshotAndPending(t *testing.T) {
	cache := newMockSnapshotCache()
	svc := newTestSchedulingService(&mockBookingRepo{}, &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, cache)

	svc.addPending("2026-09-01", "t1", EventNode{ID: "pending-1", Date: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC), Duration: 30, Pending: true})
	svc.Invalidate(context.Background(), "2026-09-01")

	assert.Contains(t, cache.deleted, "scheduling:queues:2026-09-01")

	queues, err := svc.Queues(context.Background(), "2026-09-01")
	require.NoError(t, err)
	require.Len(t, queues, 1)
	assert.Empty(t, queues[0].Events)
}

func TestQueueViewsAttachFinancials(t *testing.T) {
	bookings := &mockBookingRepo{bookings: []models.Booking{testBooking()}}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	svc := newTestSchedulingService(bookings, teachers, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, newMockSnapshotCache())

	views, err := svc.QueueViews(context.Background(), "2026-09-01")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Events, 1)

	view := views[0].Events[0]
	// 100/60*60*1 student = 100 revenue; fixed 40/hr over one hour = 40.
	assert.InDelta(t, 100, view.Revenue, 0.001)
	assert.InDelta(t, 40, view.Commission.Earned, 0.001)
	assert.InDelta(t, 60, view.SchoolProfit, 0.001)
}

func TestRefreshDayRebuilds(t *testing.T) {
	bookings := &mockBookingRepo{bookings: []models.Booking{testBooking()}}
	teachers := &mockActiveTeacherRepo{teachers: []models.Teacher{{ID: "t1", Username: "anna"}}}
	cache := newMockSnapshotCache()
	svc := newTestSchedulingService(bookings, teachers, &mockEventRepo{}, &mockSettingsGetter{settings: defaultSettings()}, cache)

	require.NoError(t, svc.RefreshDay(context.Background(), "2026-09-01"))
	assert.Equal(t, 1, bookings.listCalls)
	assert.Contains(t, cache.store, "scheduling:queues:2026-09-01")

	require.Error(t, svc.RefreshDay(context.Background(), "not-a-date"))
}
