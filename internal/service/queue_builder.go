package service

import (
	"go.uber.org/zap"

	"github.com/windwardhq/scheduling-api/internal/models"
)

// QueueBuilder derives one TeacherQueue per active teacher from a day's
// booking graph. Queues are always rebuilt wholesale; the builder never
// patches an existing queue.
type QueueBuilder struct {
	logger *zap.Logger
}

// NewQueueBuilder constructs a QueueBuilder.
func NewQueueBuilder(logger *zap.Logger) *QueueBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueBuilder{logger: logger}
}

// Build returns queues in the same order as the teacher list. Every event
// of every lesson of every booking is mapped into a node and inserted into
// its teacher's queue. Malformed records are skipped with a warning so one
// bad booking cannot blank the whole day; events whose teacher is not in
// the list (inactive or unknown) are dropped the same way. Input
// collections are never mutated.
func (b *QueueBuilder) Build(teachers []models.Teacher, bookings []models.Booking) []*TeacherQueue {
	queues := make([]*TeacherQueue, 0, len(teachers))
	byTeacher := make(map[string]*TeacherQueue, len(teachers))
	for _, teacher := range teachers {
		queue := NewTeacherQueue(teacher.ID, teacher.Username)
		queues = append(queues, queue)
		byTeacher[teacher.ID] = queue
	}

	for _, booking := range bookings {
		for _, lesson := range booking.Lessons {
			queue, ok := byTeacher[lesson.TeacherID]
			if !ok {
				b.logger.Warn("dropping lesson events, teacher has no queue",
					zap.String("lesson_id", lesson.ID),
					zap.String("teacher_id", lesson.TeacherID))
				continue
			}
			for _, event := range lesson.Events {
				node, err := newEventNode(event, lesson, booking)
				if err != nil {
					b.logger.Warn("skipping malformed event",
						zap.String("booking_id", booking.ID),
						zap.Error(err))
					continue
				}
				queue.Insert(node)
			}
		}
	}

	return queues
}
