package models

import "time"

// CommissionType distinguishes the two supported commission contracts.
type CommissionType string

const (
	CommissionFixed      CommissionType = "fixed"
	CommissionPercentage CommissionType = "percentage"
)

// EventStatus enumerates the lifecycle states of a scheduled event.
type EventStatus string

const (
	EventPlanned     EventStatus = "planned"
	EventTBC         EventStatus = "tbc"
	EventCompleted   EventStatus = "completed"
	EventUncompleted EventStatus = "uncompleted"
)

// CommissionInfo is the commission contract attached to a lesson. CPH is
// kept as the raw string received from the booking source; it is parsed
// once, at event-node construction.
type CommissionInfo struct {
	Type CommissionType `db:"commission_type" json:"type"`
	CPH  string         `db:"commission_cph" json:"cph"`
}

// SchoolPackage carries the pricing fields of the package a booking was
// sold against. PricePerStudent covers the full package duration.
type SchoolPackage struct {
	ID                string  `db:"id" json:"id"`
	Description       string  `db:"description" json:"description"`
	PricePerStudent   float64 `db:"price_per_student" json:"price_per_student"`
	DurationMinutes   int     `db:"duration_minutes" json:"duration_minutes"`
	CapacityStudents  int     `db:"capacity_students" json:"capacity_students"`
	CapacityEquipment int     `db:"capacity_equipment" json:"capacity_equipment"`
	CategoryEquipment string  `db:"category_equipment" json:"category_equipment"`
}

// Student is one participant attached to a booking.
type Student struct {
	ID        string `db:"id" json:"id"`
	BookingID string `db:"booking_id" json:"-"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Passport  string `db:"passport" json:"passport"`
	Country   string `db:"country" json:"country"`
	Phone     string `db:"phone" json:"phone"`
}

// Event is one concrete scheduled occurrence of a lesson.
type Event struct {
	ID        string      `db:"id" json:"id"`
	LessonID  string      `db:"lesson_id" json:"lesson_id"`
	Date      time.Time   `db:"date" json:"date"`
	Duration  int         `db:"duration" json:"duration"`
	Location  string      `db:"location" json:"location"`
	Status    EventStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// Lesson assigns one teacher, with a commission contract, to a booking.
type Lesson struct {
	ID              string         `db:"id" json:"id"`
	BookingID       string         `db:"booking_id" json:"booking_id"`
	TeacherID       string         `db:"teacher_id" json:"teacher_id"`
	TeacherUsername string         `db:"teacher_username" json:"teacher_username"`
	Commission      CommissionInfo `json:"commission"`
	Events          []Event        `json:"events"`
}

// Booking is a student group's reservation against a school package.
type Booking struct {
	ID         string        `db:"id" json:"id"`
	LeaderName string        `db:"leader_name" json:"leader_name"`
	DateStart  time.Time     `db:"date_start" json:"date_start"`
	DateEnd    time.Time     `db:"date_end" json:"date_end"`
	Package    SchoolPackage `json:"package"`
	Students   []Student     `json:"students"`
	Lessons    []Lesson      `json:"lessons"`
}
