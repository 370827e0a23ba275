package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/class-booking/internal/model"
)

const dateLayout = "2006-01-02"

// ListResult is the response body of every list operation.
type ListResult[T any] struct {
	Result     []T   `json:"result"`
	TotalCount int64 `json:"total_count"`
}

type MemberView struct {
	ID              uint64  `json:"id"`
	Name            string  `json:"name"`
	Phone           *string `json:"phone"`
	ParentPhone     string  `json:"parent_phone"`
	InstitutionName *string `json:"institution_name"`
	BirthDay        string  `json:"birth_day"`
}

type CourseView struct {
	ID            uint64          `json:"id"`
	MembersID     uint64          `json:"members_id"`
	ClassType     string          `json:"class_type"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	SessionCount  int             `json:"session_count"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentDate   *time.Time      `json:"payment_date"`
}

// MemberCourses is one row of the member list.
type MemberCourses struct {
	Member  MemberView   `json:"member"`
	Courses []CourseView `json:"courses"`
}

// CourseWithMember is one row of the course list.
type CourseWithMember struct {
	CourseView
	Member MemberView `json:"member"`
}

type BookingCourse struct {
	ID            uint64          `json:"id"`
	ClassType     string          `json:"class_type"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
}

type BookingMember struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Phone       *string `json:"phone"`
	ParentPhone string  `json:"parent_phone"`
}

// BookingView is one row of the class booking list.
type BookingView struct {
	ID               uint64        `json:"id"`
	ReservationDate  time.Time     `json:"reservation_date"`
	EnrollmentStatus string        `json:"enrollment_status"`
	Course           BookingCourse `json:"course"`
	Member           BookingMember `json:"member"`
}

func memberView(m model.Member) MemberView {
	return MemberView{
		ID:              m.ID,
		Name:            m.Name,
		Phone:           m.Phone,
		ParentPhone:     m.ParentPhone,
		InstitutionName: m.InstitutionName,
		BirthDay:        m.BirthDay.Format(dateLayout),
	}
}

func courseView(c model.Course, loc *time.Location) CourseView {
	v := CourseView{
		ID:            c.ID,
		MembersID:     c.MembersID,
		ClassType:     c.ClassType,
		StartDate:     c.StartDate.In(loc),
		EndDate:       c.EndDate.In(loc),
		SessionCount:  c.SessionCount,
		PaymentAmount: c.PaymentAmount,
	}
	if c.PaymentDate != nil {
		pd := c.PaymentDate.In(loc)
		v.PaymentDate = &pd
	}
	return v
}

func bookingView(b model.ClassBooking, loc *time.Location) BookingView {
	m := b.Course.Member
	return BookingView{
		ID:               b.ID,
		ReservationDate:  b.ReservationDate.In(loc),
		EnrollmentStatus: b.EnrollmentStatus,
		Course: BookingCourse{
			ID:            b.Course.ID,
			ClassType:     b.Course.ClassType,
			PaymentAmount: b.Course.PaymentAmount,
		},
		Member: BookingMember{
			ID:          m.ID,
			Name:        m.Name,
			Phone:       m.Phone,
			ParentPhone: m.ParentPhone,
		},
	}
}
