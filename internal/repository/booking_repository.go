package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/windwardhq/scheduling-api/internal/models"
)

// BookingRepository loads the day-scoped booking graph (bookings with
// students, lessons and the lessons' events) that queue building consumes.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingRow struct {
	ID                string    `db:"id"`
	LeaderName        string    `db:"leader_name"`
	DateStart         time.Time `db:"date_start"`
	DateEnd           time.Time `db:"date_end"`
	PackageID         string    `db:"package_id"`
	Description       string    `db:"description"`
	PricePerStudent   float64   `db:"price_per_student"`
	DurationMinutes   int       `db:"duration_minutes"`
	CapacityStudents  int       `db:"capacity_students"`
	CapacityEquipment int       `db:"capacity_equipment"`
	CategoryEquipment string    `db:"category_equipment"`
}

type lessonRow struct {
	ID              string `db:"id"`
	BookingID       string `db:"booking_id"`
	TeacherID       string `db:"teacher_id"`
	TeacherUsername string `db:"teacher_username"`
	CommissionType  string `db:"commission_type"`
	CommissionCPH   string `db:"commission_cph"`
}

// ListByDay returns every booking that has at least one lesson event on the
// given day, with students, lessons and that day's events attached. Events
// are restricted to [day 00:00, day+1 00:00).
func (r *BookingRepository) ListByDay(ctx context.Context, day time.Time) ([]models.Booking, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	const bookingQuery = `SELECT DISTINCT b.id, b.leader_name, b.date_start, b.date_end,
       p.id AS package_id, p.description, p.price_per_student, p.duration_minutes,
       p.capacity_students, p.capacity_equipment, p.category_equipment
FROM bookings b
JOIN school_packages p ON p.id = b.package_id
JOIN lessons l ON l.booking_id = b.id
JOIN lesson_events e ON e.lesson_id = l.id
WHERE e.date >= $1 AND e.date < $2
ORDER BY b.id ASC`

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, bookingQuery, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("list bookings for day: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	bookings := make([]models.Booking, 0, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, models.Booking{
			ID:         row.ID,
			LeaderName: row.LeaderName,
			DateStart:  row.DateStart,
			DateEnd:    row.DateEnd,
			Package: models.SchoolPackage{
				ID:                row.PackageID,
				Description:       row.Description,
				PricePerStudent:   row.PricePerStudent,
				DurationMinutes:   row.DurationMinutes,
				CapacityStudents:  row.CapacityStudents,
				CapacityEquipment: row.CapacityEquipment,
				CategoryEquipment: row.CategoryEquipment,
			},
		})
		index[row.ID] = len(bookings) - 1
		ids = append(ids, row.ID)
	}

	if err := r.attachStudents(ctx, bookings, index, ids); err != nil {
		return nil, err
	}
	if err := r.attachLessons(ctx, bookings, index, ids, dayStart, dayEnd); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepository) attachStudents(ctx context.Context, bookings []models.Booking, index map[string]int, ids []interface{}) error {
	query := fmt.Sprintf(`SELECT id, booking_id, first_name, last_name, passport, country, phone
FROM booking_students WHERE booking_id IN (%s) ORDER BY last_name ASC, first_name ASC`, placeholders(len(ids)))

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, ids...); err != nil {
		return fmt.Errorf("list booking students: %w", err)
	}
	for _, student := range students {
		if i, ok := index[student.BookingID]; ok {
			bookings[i].Students = append(bookings[i].Students, student)
		}
	}
	return nil
}

func (r *BookingRepository) attachLessons(ctx context.Context, bookings []models.Booking, index map[string]int, ids []interface{}, dayStart, dayEnd time.Time) error {
	query := fmt.Sprintf(`SELECT l.id, l.booking_id, l.teacher_id, t.username AS teacher_username,
       l.commission_type, l.commission_cph
FROM lessons l
JOIN teachers t ON t.id = l.teacher_id
WHERE l.booking_id IN (%s) ORDER BY l.id ASC`, placeholders(len(ids)))

	var rows []lessonRow
	if err := r.db.SelectContext(ctx, &rows, query, ids...); err != nil {
		return fmt.Errorf("list lessons: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	lessons := make(map[string]*models.Lesson, len(rows))
	lessonIDs := make([]interface{}, 0, len(rows))
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		lessons[row.ID] = &models.Lesson{
			ID:              row.ID,
			BookingID:       row.BookingID,
			TeacherID:       row.TeacherID,
			TeacherUsername: row.TeacherUsername,
			Commission: models.CommissionInfo{
				Type: models.CommissionType(row.CommissionType),
				CPH:  row.CommissionCPH,
			},
		}
		lessonIDs = append(lessonIDs, row.ID)
		order = append(order, row.ID)
	}

	eventQuery := fmt.Sprintf(`SELECT id, lesson_id, date, duration, location, status, created_at, updated_at
FROM lesson_events WHERE lesson_id IN (%s) AND date >= $%d AND date < $%d ORDER BY date ASC`,
		placeholders(len(lessonIDs)), len(lessonIDs)+1, len(lessonIDs)+2)
	args := append(append([]interface{}{}, lessonIDs...), dayStart, dayEnd)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, eventQuery, args...); err != nil {
		return fmt.Errorf("list lesson events: %w", err)
	}
	for _, event := range events {
		if lesson, ok := lessons[event.LessonID]; ok {
			lesson.Events = append(lesson.Events, event)
		}
	}

	for _, id := range order {
		lesson := lessons[id]
		if i, ok := index[lesson.BookingID]; ok {
			bookings[i].Lessons = append(bookings[i].Lessons, *lesson)
		}
	}
	return nil
}

// FindLesson loads one lesson with its commission contract and owning
// booking context, used when scheduling a new event.
func (r *BookingRepository) FindLesson(ctx context.Context, lessonID string) (*models.Lesson, *models.Booking, error) {
	const lessonQuery = `SELECT l.id, l.booking_id, l.teacher_id, t.username AS teacher_username,
       l.commission_type, l.commission_cph
FROM lessons l
JOIN teachers t ON t.id = l.teacher_id
WHERE l.id = $1`

	var row lessonRow
	if err := r.db.GetContext(ctx, &row, lessonQuery, lessonID); err != nil {
		return nil, nil, err
	}

	const bookingQuery = `SELECT b.id, b.leader_name, b.date_start, b.date_end,
       p.id AS package_id, p.description, p.price_per_student, p.duration_minutes,
       p.capacity_students, p.capacity_equipment, p.category_equipment
FROM bookings b
JOIN school_packages p ON p.id = b.package_id
WHERE b.id = $1`

	var bRow bookingRow
	if err := r.db.GetContext(ctx, &bRow, bookingQuery, row.BookingID); err != nil {
		return nil, nil, err
	}

	booking := &models.Booking{
		ID:         bRow.ID,
		LeaderName: bRow.LeaderName,
		DateStart:  bRow.DateStart,
		DateEnd:    bRow.DateEnd,
		Package: models.SchoolPackage{
			ID:                bRow.PackageID,
			Description:       bRow.Description,
			PricePerStudent:   bRow.PricePerStudent,
			DurationMinutes:   bRow.DurationMinutes,
			CapacityStudents:  bRow.CapacityStudents,
			CapacityEquipment: bRow.CapacityEquipment,
			CategoryEquipment: bRow.CategoryEquipment,
		},
	}

	const studentsQuery = `SELECT id, booking_id, first_name, last_name, passport, country, phone
FROM booking_students WHERE booking_id = $1 ORDER BY last_name ASC, first_name ASC`
	if err := r.db.SelectContext(ctx, &booking.Students, studentsQuery, booking.ID); err != nil {
		return nil, nil, fmt.Errorf("list booking students: %w", err)
	}

	lesson := &models.Lesson{
		ID:              row.ID,
		BookingID:       row.BookingID,
		TeacherID:       row.TeacherID,
		TeacherUsername: row.TeacherUsername,
		Commission: models.CommissionInfo{
			Type: models.CommissionType(row.CommissionType),
			CPH:  row.CommissionCPH,
		},
	}
	return lesson, booking, nil
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
