package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/windwardhq/scheduling-api/internal/models"
	appErrors "github.com/windwardhq/scheduling-api/pkg/errors"
)

// EventNode is one scheduled (or proposed) lesson event, denormalized so it
// can be priced and displayed without further lookups. Nodes are values;
// queues own their copies.
type EventNode struct {
	ID             string                `json:"id"`
	LessonID       string                `json:"lesson_id"`
	BookingID      string                `json:"booking_id"`
	LeaderName     string                `json:"leader_name"`
	Students       []models.Student      `json:"students"`
	CommissionType models.CommissionType `json:"commission_type"`
	CommissionCPH  float64               `json:"commission_cph"`
	Package        models.SchoolPackage  `json:"package"`
	Date           time.Time             `json:"date"`
	Duration       int                   `json:"duration"`
	Location       string                `json:"location"`
	Status         models.EventStatus    `json:"status"`
	Pending        bool                  `json:"pending,omitempty"`
}

// StartMinutes returns the node's start as minutes since midnight of its day.
func (n EventNode) StartMinutes() int {
	return n.Date.Hour()*60 + n.Date.Minute()
}

// EndMinutes returns the node's end as minutes since midnight of its day.
func (n EventNode) EndMinutes() int {
	return n.StartMinutes() + n.Duration
}

func newEventNode(event models.Event, lesson models.Lesson, booking models.Booking) (EventNode, error) {
	if lesson.ID == "" {
		return EventNode{}, fmt.Errorf("event %s: lesson id missing", event.ID)
	}
	if booking.ID == "" {
		return EventNode{}, fmt.Errorf("event %s: booking id missing", event.ID)
	}
	if event.Date.IsZero() {
		return EventNode{}, fmt.Errorf("event %s: date missing", event.ID)
	}
	if event.Duration <= 0 {
		return EventNode{}, fmt.Errorf("event %s: non-positive duration %d", event.ID, event.Duration)
	}

	students := make([]models.Student, len(booking.Students))
	copy(students, booking.Students)

	return EventNode{
		ID:             event.ID,
		LessonID:       lesson.ID,
		BookingID:      booking.ID,
		LeaderName:     booking.LeaderName,
		Students:       students,
		CommissionType: lesson.Commission.Type,
		CommissionCPH:  parseCPH(lesson.Commission.CPH),
		Package:        booking.Package,
		Date:           event.Date,
		Duration:       event.Duration,
		Location:       event.Location,
		Status:         event.Status,
	}, nil
}

// parseCPH coerces the raw commission-per-hour string. Non-numeric input is
// worth a warning upstream but resolves to 0 rather than failing the build.
func parseCPH(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return value
}

// TeacherQueue is one teacher's time-ordered events for a single day. The
// source system chained nodes through next pointers; here the queue owns a
// slice kept sorted by start time, which keeps insertion and iteration
// memory-safe and testable.
type TeacherQueue struct {
	TeacherID       string      `json:"teacher_id"`
	TeacherUsername string      `json:"teacher_username"`
	Events          []EventNode `json:"events"`
}

// NewTeacherQueue builds an empty queue for one teacher.
func NewTeacherQueue(teacherID, username string) *TeacherQueue {
	return &TeacherQueue{TeacherID: teacherID, TeacherUsername: username}
}

// Insert places the node so events stay ordered by start time ascending.
// Source data may arrive in booking/lesson iteration order, so a blind
// append is not enough.
func (q *TeacherQueue) Insert(node EventNode) {
	idx := sort.Search(len(q.Events), func(i int) bool {
		return q.Events[i].StartMinutes() > node.StartMinutes()
	})
	q.Events = append(q.Events, EventNode{})
	copy(q.Events[idx+1:], q.Events[idx:])
	q.Events[idx] = node
}

// NextAvailableSlot walks the ordered events greedily: the candidate start
// moves past every event it cannot fit in front of (respecting gap minutes
// on both sides) and lands after the last conflicting event. Events already
// behind the candidate are ignored, so the result is never earlier than the
// requested start. The day has no enforced closing time, so the returned
// slot may run past midnight.
func (q *TeacherQueue) NextAvailableSlot(earliest string, duration, gapMinutes int) (string, error) {
	candidate, err := ParseClock(earliest)
	if err != nil {
		return "", err
	}

	for _, node := range q.Events {
		if node.EndMinutes()+gapMinutes <= candidate {
			continue
		}
		if candidate+duration <= node.StartMinutes()-gapMinutes {
			break
		}
		candidate = node.EndMinutes() + gapMinutes
	}

	return FormatClock(candidate), nil
}

// InsertionTime resolves the event duration from the group size caps and
// finds the earliest conflict-free slot. It returns both so the caller can
// construct a fully specified event.
func (q *TeacherQueue) InsertionTime(earliest string, students int, settings models.ScheduleSettings) (string, int, error) {
	if students < 1 {
		return "", 0, appErrors.Clone(appErrors.ErrValidation, "students must be at least 1")
	}
	if earliest == "" {
		earliest = settings.SubmitTime
	}

	duration := settings.DurationForGroup(students)
	slot, err := q.NextAvailableSlot(earliest, duration, settings.GapMinutes)
	if err != nil {
		return "", 0, err
	}
	return slot, duration, nil
}

// Clone returns a deep copy so optimistic overlays never touch the
// canonical snapshot.
func (q *TeacherQueue) Clone() *TeacherQueue {
	cp := &TeacherQueue{TeacherID: q.TeacherID, TeacherUsername: q.TeacherUsername}
	if len(q.Events) > 0 {
		cp.Events = make([]EventNode, len(q.Events))
		copy(cp.Events, q.Events)
	}
	return cp
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time %q, expected HH:MM", clock))
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid hour in %q", clock))
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid minutes in %q", clock))
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as "HH:MM". Values past 24:00
// are kept as-is so an overflowing day is visible to the caller.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
