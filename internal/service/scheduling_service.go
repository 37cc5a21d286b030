package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/windwardhq/scheduling-api/internal/dto"
	"github.com/windwardhq/scheduling-api/internal/models"
	"github.com/windwardhq/scheduling-api/pkg/config"
	appErrors "github.com/windwardhq/scheduling-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type schedulingBookingRepository interface {
	ListByDay(ctx context.Context, day time.Time) ([]models.Booking, error)
	FindLesson(ctx context.Context, lessonID string) (*models.Lesson, *models.Booking, error)
}

type schedulingTeacherRepository interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type schedulingEventRepository interface {
	Create(ctx context.Context, lessonID string, date time.Time, duration int, location string) (*models.Event, error)
}

type schedulingSettingsRepository interface {
	Get(ctx context.Context) (*models.ScheduleSettings, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Publish(ctx context.Context, topic, date string) error
}

// EventNodeView decorates an event node with its derived financials for
// display.
type EventNodeView struct {
	EventNode
	Revenue      float64                 `json:"revenue"`
	Commission   dto.CommissionBreakdown `json:"commission"`
	SchoolProfit float64                 `json:"school_profit"`
}

// TeacherQueueView is the API projection of one teacher's daily queue.
type TeacherQueueView struct {
	TeacherID       string          `json:"teacher_id"`
	TeacherUsername string          `json:"teacher_username"`
	Events          []EventNodeView `json:"events"`
}

// SchedulingService orchestrates queue building, slot finding and event
// creation. Canonical queues are a pure projection of the booking source,
// cached per day; optimistic (pending) nodes are overlaid for display and
// slot search only and never merged into the canonical snapshot.
type SchedulingService struct {
	bookings   schedulingBookingRepository
	teachers   schedulingTeacherRepository
	events     schedulingEventRepository
	settings   schedulingSettingsRepository
	cache      snapshotCache
	builder    *QueueBuilder
	commission *CommissionService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        config.SchedulingConfig

	mu      sync.Mutex
	pending map[string]map[string][]EventNode // date -> teacher id -> pending nodes
}

// NewSchedulingService wires the scheduling dependencies.
func NewSchedulingService(
	bookings schedulingBookingRepository,
	teachers schedulingTeacherRepository,
	events schedulingEventRepository,
	settings schedulingSettingsRepository,
	cache snapshotCache,
	builder *QueueBuilder,
	commission *CommissionService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SchedulingConfig,
) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = NewQueueBuilder(logger)
	}
	if commission == nil {
		commission = NewCommissionService(logger)
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 5 * time.Minute
	}
	if cfg.InvalidationTopic == "" {
		cfg.InvalidationTopic = "scheduling:invalidate"
	}
	return &SchedulingService{
		bookings:   bookings,
		teachers:   teachers,
		events:     events,
		settings:   settings,
		cache:      cache,
		builder:    builder,
		commission: commission,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		pending:    make(map[string]map[string][]EventNode),
	}
}

// Queues returns the day's queues, one per active teacher in roster order,
// with any pending nodes overlaid.
func (s *SchedulingService) Queues(ctx context.Context, date string) ([]*TeacherQueue, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	canonical, err := s.canonicalQueues(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.overlayPending(canonical, date), nil
}

// QueueViews returns the day's queues with commission breakdowns attached
// to every node.
func (s *SchedulingService) QueueViews(ctx context.Context, date string) ([]TeacherQueueView, error) {
	queues, err := s.Queues(ctx, date)
	if err != nil {
		return nil, err
	}

	views := make([]TeacherQueueView, 0, len(queues))
	for _, queue := range queues {
		view := TeacherQueueView{
			TeacherID:       queue.TeacherID,
			TeacherUsername: queue.TeacherUsername,
			Events:          make([]EventNodeView, 0, len(queue.Events)),
		}
		for _, node := range queue.Events {
			revenue := s.commission.NodeRevenue(node)
			breakdown := s.commission.NodeBreakdown(node)
			view.Events = append(view.Events, EventNodeView{
				EventNode:    node,
				Revenue:      revenue,
				Commission:   breakdown,
				SchoolProfit: s.commission.SchoolProfit(revenue, breakdown.Earned),
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// ProposeSlot finds where a new event for the given group size can start on
// the teacher's queue. Pending nodes count as occupied so two proposals in
// a row from the same client do not land on the same slot.
func (s *SchedulingService) ProposeSlot(ctx context.Context, date, teacherID string, students int, from string) (*dto.SlotProposal, error) {
	if students < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "students must be at least 1")
	}

	settings, err := s.settingsSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	queue, err := s.teacherQueue(ctx, date, teacherID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	slot, duration, err := queue.InsertionTime(from, students, settings)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveSlotSearch(time.Since(started))
	}

	return &dto.SlotProposal{
		TeacherID: teacherID,
		Date:      date,
		Time:      slot,
		Duration:  duration,
	}, nil
}

// ScheduleEvent computes a slot, overlays an optimistic node, persists the
// event, and reconciles. If persistence fails the optimistic node is
// removed and the error surfaces to the caller; on success the day's
// snapshot is invalidated and the change is published so every consumer
// rebuilds from authoritative data.
func (s *SchedulingService) ScheduleEvent(ctx context.Context, date, teacherID string, req dto.ScheduleEventRequest) (*dto.ScheduleEventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.Date != "" && req.Date != date {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payload date does not match route date")
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	lesson, booking, err := s.bookings.FindLesson(ctx, req.LessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson belongs to a different teacher")
	}

	settings, err := s.settingsSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	queue, err := s.teacherQueue(ctx, date, teacherID)
	if err != nil {
		return nil, err
	}

	slot, duration, err := queue.InsertionTime(req.From, req.Students, settings)
	if err != nil {
		return nil, err
	}

	location := req.Location
	if location == "" {
		location = settings.Location
	}

	slotMinutes, err := ParseClock(slot)
	if err != nil {
		return nil, err
	}
	start := day.Add(time.Duration(slotMinutes) * time.Minute)

	node := EventNode{
		ID:             uuid.NewString(),
		LessonID:       lesson.ID,
		BookingID:      booking.ID,
		LeaderName:     booking.LeaderName,
		Students:       append([]models.Student(nil), booking.Students...),
		CommissionType: lesson.Commission.Type,
		CommissionCPH:  parseCPH(lesson.Commission.CPH),
		Package:        booking.Package,
		Date:           start,
		Duration:       duration,
		Location:       location,
		Status:         models.EventPlanned,
		Pending:        true,
	}
	s.addPending(date, teacherID, node)

	event, err := s.events.Create(ctx, lesson.ID, start, duration, location)
	if err != nil {
		s.removePending(date, teacherID, node.ID)
		s.logger.Error("event persistence failed, optimistic node rolled back",
			zap.String("lesson_id", lesson.ID),
			zap.String("teacher_id", teacherID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist event")
	}

	// The persisted event is now part of the authoritative data; the
	// pending copy has served its purpose.
	s.removePending(date, teacherID, node.ID)
	s.invalidateSnapshot(ctx, date)
	if err := s.cache.Publish(ctx, s.cfg.InvalidationTopic, date); err != nil {
		s.logger.Warn("failed to publish change notification", zap.String("date", date), zap.Error(err))
	}

	node.ID = event.ID
	node.Pending = false
	breakdown := s.commission.NodeBreakdown(node)

	return &dto.ScheduleEventResponse{
		EventID:    event.ID,
		TeacherID:  teacherID,
		Date:       date,
		Time:       slot,
		Duration:   duration,
		Location:   location,
		Commission: breakdown,
	}, nil
}

// Invalidate drops the day's cached snapshot and pending overlay. External
// change notifications land here: the next read rebuilds wholesale from
// authoritative data, never patching in place.
func (s *SchedulingService) Invalidate(ctx context.Context, date string) {
	s.invalidateSnapshot(ctx, date)

	s.mu.Lock()
	delete(s.pending, date)
	s.mu.Unlock()
}

// RefreshDay rebuilds and re-caches a day's canonical queues. Used as the
// rebuild job handler after an invalidation.
func (s *SchedulingService) RefreshDay(ctx context.Context, date string) error {
	day, err := parseDate(date)
	if err != nil {
		return err
	}
	_, err = s.rebuildQueues(ctx, day)
	return err
}

func (s *SchedulingService) canonicalQueues(ctx context.Context, day time.Time) ([]*TeacherQueue, error) {
	key := snapshotKey(day)

	var cached []*TeacherQueue
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		if s.metrics != nil {
			s.metrics.CacheHit()
		}
		return cached, nil
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("queue snapshot cache read failed", zap.String("key", key), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.CacheMiss()
	}

	return s.rebuildQueues(ctx, day)
}

func (s *SchedulingService) rebuildQueues(ctx context.Context, day time.Time) ([]*TeacherQueue, error) {
	started := time.Now()

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active teachers")
	}
	bookings, err := s.bookings.ListByDay(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	queues := s.builder.Build(teachers, bookings)
	if s.metrics != nil {
		s.metrics.ObserveQueueRebuild(time.Since(started))
	}

	if err := s.cache.Set(ctx, snapshotKey(day), queues, s.cfg.SnapshotTTL); err != nil {
		s.logger.Warn("queue snapshot cache write failed", zap.Error(err))
	}
	return queues, nil
}

func (s *SchedulingService) teacherQueue(ctx context.Context, date, teacherID string) (*TeacherQueue, error) {
	queues, err := s.Queues(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, queue := range queues {
		if queue.TeacherID == teacherID {
			return queue, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrTeacherUnavailable, "teacher has no queue for this day")
}

func (s *SchedulingService) settingsSnapshot(ctx context.Context) (models.ScheduleSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.ScheduleSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule settings")
	}
	return *settings, nil
}

func (s *SchedulingService) overlayPending(canonical []*TeacherQueue, date string) []*TeacherQueue {
	s.mu.Lock()
	byTeacher := s.pending[date]
	overlay := make(map[string][]EventNode, len(byTeacher))
	for teacherID, nodes := range byTeacher {
		overlay[teacherID] = append([]EventNode(nil), nodes...)
	}
	s.mu.Unlock()

	result := make([]*TeacherQueue, 0, len(canonical))
	for _, queue := range canonical {
		cp := queue.Clone()
		for _, node := range overlay[queue.TeacherID] {
			cp.Insert(node)
		}
		result = append(result, cp)
	}
	return result
}

func (s *SchedulingService) addPending(date, teacherID string, node EventNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[date] == nil {
		s.pending[date] = make(map[string][]EventNode)
	}
	s.pending[date][teacherID] = append(s.pending[date][teacherID], node)
}

func (s *SchedulingService) removePending(date, teacherID, nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := s.pending[date][teacherID]
	for i, node := range nodes {
		if node.ID == nodeID {
			s.pending[date][teacherID] = append(nodes[:i], nodes[i+1:]...)
			return
		}
	}
}

func (s *SchedulingService) invalidateSnapshot(ctx context.Context, date string) {
	day, err := parseDate(date)
	if err != nil {
		return
	}
	if err := s.cache.Delete(ctx, snapshotKey(day)); err != nil {
		s.logger.Warn("queue snapshot invalidation failed", zap.String("date", date), zap.Error(err))
	}
}

func parseDate(date string) (time.Time, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	return day, nil
}

func snapshotKey(day time.Time) string {
	return "scheduling:queues:" + day.Format(dateLayout)
}
