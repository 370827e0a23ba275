package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/class-booking/internal/model"
)

// BookingFilter lists the optional class booking filters.  From/To form a
// half-open range on reservation_date.
type BookingFilter struct {
	MemberID         uint64
	MemberName       string
	CourseID         uint64
	EnrollmentStatus string
	From             *time.Time
	To               *time.Time
}

func (f BookingFilter) scopes() []Scope {
	s := []Scope{
		joinActive("courses", "courses.id = class_bookings.course_id"),
		joinActive("members", "members.id = courses.members_id"),
	}
	if f.MemberID != 0 {
		s = append(s, Equals("members.id", f.MemberID))
	}
	if f.MemberName != "" {
		s = append(s, Contains("members.name", f.MemberName))
	}
	if f.CourseID != 0 {
		s = append(s, Equals("class_bookings.course_id", f.CourseID))
	}
	if f.EnrollmentStatus != "" {
		s = append(s, Equals("class_bookings.enrollment_status", f.EnrollmentStatus))
	}
	if f.From != nil || f.To != nil {
		s = append(s, InRange("class_bookings.reservation_date", f.From, f.To))
	}
	return s
}

// BookingRepo stores class bookings.  Counting helpers only consider
// active rows: not cancelled and not deleted.
type BookingRepo struct{ DB *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo { return &BookingRepo{DB: db} }

func (r *BookingRepo) WithTx(tx *gorm.DB) *BookingRepo { return &BookingRepo{DB: tx} }

// Create inserts b.  A collision on (course_id, active_day) is ErrDuplicate.
func (r *BookingRepo) Create(ctx context.Context, b *model.ClassBooking) error {
	err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(b).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "insert class booking")
}

func (r *BookingRepo) GetActive(ctx context.Context, id uint64) (model.ClassBooking, error) {
	var b model.ClassBooking
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&b).Error
	return b, notFound(err)
}

func (r *BookingRepo) active(ctx context.Context, courseID uint64) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.ClassBooking{}).
		Where("course_id = ? AND enrollment_status <> ?", courseID, model.StatusCancelled)
}

// CountActive counts bookings that use up a session of the course.
func (r *BookingRepo) CountActive(ctx context.Context, courseID uint64) (int64, error) {
	var n int64
	err := r.active(ctx, courseID).Count(&n).Error
	return n, errors.Wrap(err, "count bookings")
}

// CountActiveOnDay counts active bookings of the course on day (YYYY-MM-DD).
func (r *BookingRepo) CountActiveOnDay(ctx context.Context, courseID uint64, day string) (int64, error) {
	var n int64
	err := r.active(ctx, courseID).Where("active_day = ?", day).Count(&n).Error
	return n, errors.Wrap(err, "count bookings on day")
}

// Update writes the supplied columns.  ErrDuplicate means the change would
// leave two active bookings on one day.
func (r *BookingRepo) Update(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).Model(&model.ClassBooking{}).Where("id = ?", id).Updates(fields).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "update class booking")
}

// SoftDelete stamps deleted_at and releases the booking's day.
func (r *BookingRepo) SoftDelete(ctx context.Context, id uint64) error {
	db := r.DB.WithContext(ctx)
	res := db.Model(&model.ClassBooking{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": db.NowFunc(),
		"active_day": nil,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete class booking")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns matching bookings whose course and member are live.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter, page *Page) ([]model.ClassBooking, int64, error) {
	return List[model.ClassBooking](ctx, r.DB, ListQuery{Scopes: f.scopes(), Page: page}, "Course", "Course.Member")
}
