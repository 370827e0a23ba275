package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"

	"github.com/iliyamo/class-booking/internal/model"
	"github.com/iliyamo/class-booking/internal/queue"
	"github.com/iliyamo/class-booking/internal/repository"
)

// EventPublisher receives booking lifecycle events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type BookingInput struct {
	CourseID         uint64
	ReservationDate  time.Time
	EnrollmentStatus string
}

type BookingPatch struct {
	ReservationDate  *time.Time
	EnrollmentStatus *string
}

type BookingQuery struct {
	MemberID         uint64
	MemberName       string
	CourseID         uint64
	EnrollmentStatus string
	Period           DateRange
	Paging           PageParams
}

// BookingService admits, edits and lists class bookings.  Every write runs
// in one transaction; admission holds a row lock on the course so the
// capacity count cannot be raced.
type BookingService struct {
	db       *gorm.DB
	courses  *repository.CourseRepo
	bookings *repository.BookingRepo
	loc      *time.Location
	events   EventPublisher
}

func NewBookingService(db *gorm.DB, courses *repository.CourseRepo, bookings *repository.BookingRepo, loc *time.Location, events EventPublisher) *BookingService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &BookingService{db: db, courses: courses, bookings: bookings, loc: loc, events: events}
}

func validStatus(s string) bool {
	switch s {
	case model.StatusBooked, model.StatusAttended, model.StatusCancelled:
		return true
	}
	return false
}

func duplicateDate() *Error {
	return newErr(KindDuplicateDate, "a class is already booked on this date")
}

// admit decides whether one more booking fits a course with sessionCount
// sessions, given the active bookings overall and on the requested day.
func admit(sessionCount int, active, sameDay int64) error {
	if active >= int64(sessionCount) {
		return newErr(KindCapacityExceeded, fmt.Sprintf("all sessions used (booked sessions: %d)", active))
	}
	if sameDay >= 1 {
		return duplicateDate()
	}
	return nil
}

// TryBook admits a new booking and returns its id.
func (s *BookingService) TryBook(ctx context.Context, in BookingInput) (uint64, error) {
	if in.CourseID == 0 || in.ReservationDate.IsZero() || in.EnrollmentStatus == "" {
		return 0, Invalid("course_id, reservation_date and enrollment_status are required")
	}
	if !validStatus(in.EnrollmentStatus) {
		return 0, Invalid("enrollment_status must be one of 1, 2, 3")
	}
	when := in.ReservationDate.Truncate(time.Minute).UTC()
	day := dayKey(when, s.loc)

	var (
		b        model.ClassBooking
		memberID uint64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		courses, bookings := s.courses.WithTx(tx), s.bookings.WithTx(tx)

		course, err := courses.LockActive(ctx, in.CourseID)
		if err != nil {
			return lookupErr(err, "course not found")
		}
		active, err := bookings.CountActive(ctx, course.ID)
		if err != nil {
			return Internal("failed to count bookings", err)
		}
		sameDay, err := bookings.CountActiveOnDay(ctx, course.ID, day)
		if err != nil {
			return Internal("failed to count bookings", err)
		}
		if err := admit(course.SessionCount, active, sameDay); err != nil {
			return err
		}

		b = model.ClassBooking{
			CourseID:         course.ID,
			ReservationDate:  when,
			EnrollmentStatus: in.EnrollmentStatus,
		}
		if in.EnrollmentStatus != model.StatusCancelled {
			b.ActiveDay = &day
		}
		if err := bookings.Create(ctx, &b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateDate()
			}
			return Internal("failed to save class booking", err)
		}
		memberID = course.MembersID
		return nil
	})
	if err != nil {
		logInternal("class booking register", err)
		return 0, err
	}
	s.publish(ctx, queue.ActionCreated, b, memberID)
	return b.ID, nil
}

// Patch overwrites the supplied fields of a live booking.  It does not
// re-run admission: a patch may move a booking onto any day, or revive a
// cancelled one, even if the course has no sessions left.  The only
// constraint it meets is the per-day unique index, reported as
// DuplicateDate.
func (s *BookingService) Patch(ctx context.Context, id uint64, p BookingPatch) error {
	if p.EnrollmentStatus != nil && !validStatus(*p.EnrollmentStatus) {
		return Invalid("enrollment_status must be one of 1, 2, 3")
	}
	var (
		cur     model.ClassBooking
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)
		var err error
		if cur, err = bookings.GetActive(ctx, id); err != nil {
			return lookupErr(err, "class booking not found")
		}
		fields := map[string]interface{}{}
		if p.ReservationDate != nil {
			cur.ReservationDate = p.ReservationDate.Truncate(time.Minute).UTC()
			fields["reservation_date"] = cur.ReservationDate
		}
		if p.EnrollmentStatus != nil {
			cur.EnrollmentStatus = *p.EnrollmentStatus
			fields["enrollment_status"] = cur.EnrollmentStatus
		}
		if len(fields) == 0 {
			return nil
		}
		if cur.EnrollmentStatus == model.StatusCancelled {
			fields["active_day"] = nil
		} else {
			fields["active_day"] = dayKey(cur.ReservationDate, s.loc)
		}
		if err := bookings.Update(ctx, id, fields); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return duplicateDate()
			}
			return Internal("failed to update class booking", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		logInternal("class booking patch", err)
		return err
	}
	if changed {
		action := queue.ActionUpdated
		if cur.EnrollmentStatus == model.StatusCancelled {
			action = queue.ActionCancelled
		}
		s.publish(ctx, action, cur, 0)
	}
	return nil
}

// Delete soft-deletes a booking and frees its day.
func (s *BookingService) Delete(ctx context.Context, id uint64) error {
	var cur model.ClassBooking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)
		var err error
		if cur, err = bookings.GetActive(ctx, id); err != nil {
			return lookupErr(err, "class booking not found")
		}
		if err := bookings.SoftDelete(ctx, id); err != nil {
			return lookupErr(err, "class booking not found")
		}
		return nil
	})
	if err != nil {
		logInternal("class booking delete", err)
		return err
	}
	s.publish(ctx, queue.ActionDeleted, cur, 0)
	return nil
}

func (s *BookingService) List(ctx context.Context, q BookingQuery) (ListResult[BookingView], error) {
	if q.EnrollmentStatus != "" && !validStatus(q.EnrollmentStatus) {
		return ListResult[BookingView]{}, Invalid("enrollment_status must be one of 1, 2, 3")
	}
	page, err := q.Paging.resolve()
	if err != nil {
		return ListResult[BookingView]{}, err
	}
	from, to, err := q.Period.window(s.loc)
	if err != nil {
		return ListResult[BookingView]{}, err
	}
	rows, total, err := s.bookings.List(ctx, repository.BookingFilter{
		MemberID:         q.MemberID,
		MemberName:       q.MemberName,
		CourseID:         q.CourseID,
		EnrollmentStatus: q.EnrollmentStatus,
		From:             from,
		To:               to,
	}, page)
	if err != nil {
		log.Errorf("class booking list: %v", err)
		return ListResult[BookingView]{}, Internal("fetch failed", err)
	}
	out := make([]BookingView, 0, len(rows))
	for _, b := range rows {
		out = append(out, bookingView(b, s.loc))
	}
	return ListResult[BookingView]{Result: out, TotalCount: total}, nil
}

func (s *BookingService) publish(ctx context.Context, action string, b model.ClassBooking, memberID uint64) {
	ev := queue.BookingEvent{
		Action:           action,
		BookingID:        b.ID,
		CourseID:         b.CourseID,
		MemberID:         memberID,
		ReservationDate:  b.ReservationDate.In(s.loc).Format(time.RFC3339),
		EnrollmentStatus: b.EnrollmentStatus,
		OccurredAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warnf("booking event %s #%d not published: %v", action, b.ID, err)
	}
}

func logInternal(op string, err error) {
	if KindOf(err) == KindInternal {
		log.Errorf("%s: %v", op, err)
	}
}
