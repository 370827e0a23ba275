// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

// Booking lifecycle actions carried in BookingEvent.Action.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionCancelled = "cancelled"
	ActionDeleted   = "deleted"
)

// BookingEvent is published after a class booking transaction commits.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type BookingEvent struct {
	Action           string `json:"action"`
	BookingID        uint64 `json:"booking_id"`
	CourseID         uint64 `json:"course_id"`
	MemberID         uint64 `json:"member_id,omitempty"`
	ReservationDate  string `json:"reservation_date,omitempty"`
	EnrollmentStatus string `json:"enrollment_status,omitempty"`
	OccurredAt       string `json:"occurred_at"`
}
