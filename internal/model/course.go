package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Course is a paid enrollment of a member in a class type for a date
// range with a fixed number of sessions.  SessionCount caps the number of
// active class bookings that may be admitted against the course.
type Course struct {
	ID            uint64          `gorm:"primaryKey"`                          // courses.id
	MembersID     uint64          `gorm:"not null;index"`                      // courses.members_id
	ClassType     string          `gorm:"size:50;not null"`                    // courses.class_type
	StartDate     time.Time       `gorm:"not null"`                            // courses.start_date
	EndDate       time.Time       `gorm:"not null"`                            // courses.end_date
	SessionCount  int             `gorm:"not null"`                            // courses.session_count
	PaymentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`         // courses.payment_amount
	PaymentDate   *time.Time                                                 // courses.payment_date (nullable)
	CreatedAt     time.Time                                               // courses.created_at
	DeletedAt     gorm.DeletedAt  `gorm:"index"`                               // courses.deleted_at
	Member        Member          `gorm:"foreignKey:MembersID"`                // belongs to
	Bookings      []ClassBooking  `gorm:"foreignKey:CourseID"`                 // has many
}
