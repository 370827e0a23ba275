package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment status codes stored in class_bookings.enrollment_status.
const (
	StatusBooked    = "1"
	StatusAttended  = "2"
	StatusCancelled = "3"
)

// ClassBooking is a single scheduled session of a course.
//
// ActiveDay holds the calendar day (YYYY-MM-DD) of ReservationDate while
// the booking counts toward the course: not cancelled and not deleted.
// Otherwise it is NULL.  The unique index over (course_id, active_day)
// keeps at most one active booking per course per day; NULLs never collide.
type ClassBooking struct {
	ID               uint64         `gorm:"primaryKey"`                                          // class_bookings.id
	CourseID         uint64         `gorm:"not null;uniqueIndex:uq_booking_course_day,priority:1"` // class_bookings.course_id
	ActiveDay        *string        `gorm:"size:10;uniqueIndex:uq_booking_course_day,priority:2"`  // class_bookings.active_day (nullable)
	ReservationDate  time.Time      `gorm:"not null;index"`                                      // class_bookings.reservation_date
	EnrollmentStatus string         `gorm:"size:1;not null;default:1"`                           // class_bookings.enrollment_status
	CreatedAt        time.Time                                                                // class_bookings.created_at
	DeletedAt        gorm.DeletedAt `gorm:"index"`                                               // class_bookings.deleted_at
	Course           Course         `gorm:"foreignKey:CourseID"`                                 // belongs to
}

// Active reports whether the booking counts toward capacity.
func (b *ClassBooking) Active() bool {
	return !b.DeletedAt.Valid && b.EnrollmentStatus != StatusCancelled
}
