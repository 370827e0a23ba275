package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/class-booking/internal/model"
)

func strPtr(s string) *string { return &s }

func newBooking(courseID uint64, at time.Time, status string) *model.ClassBooking {
	b := &model.ClassBooking{CourseID: courseID, ReservationDate: at, EnrollmentStatus: status}
	if status != model.StatusCancelled {
		b.ActiveDay = strPtr(at.Format("2006-01-02"))
	}
	return b
}

func TestBookingRepo_UniqueActiveDay(t *testing.T) {
	db := setupTestDB(t)
	m := seedMember(t, db, "kim")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := seedCourse(t, db, m.ID, start, start.AddDate(0, 3, 0), 10)
	repo := NewBookingRepo(db)
	ctx := context.Background()
	at := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newBooking(c.ID, at, model.StatusBooked)))

	err := repo.Create(ctx, newBooking(c.ID, at.Add(2*time.Hour), model.StatusBooked))
	assert.ErrorIs(t, err, ErrDuplicate)

	// cancelled rows carry no active day and never collide
	require.NoError(t, repo.Create(ctx, newBooking(c.ID, at, model.StatusCancelled)))
	require.NoError(t, repo.Create(ctx, newBooking(c.ID, at, model.StatusCancelled)))
}

func TestBookingRepo_Counts(t *testing.T) {
	db := setupTestDB(t)
	m := seedMember(t, db, "kim")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := seedCourse(t, db, m.ID, start, start.AddDate(0, 3, 0), 10)
	repo := NewBookingRepo(db)
	ctx := context.Background()

	day1 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	attended := newBooking(c.ID, day1, model.StatusAttended)
	require.NoError(t, repo.Create(ctx, attended))
	require.NoError(t, repo.Create(ctx, newBooking(c.ID, day2, model.StatusBooked)))
	require.NoError(t, repo.Create(ctx, newBooking(c.ID, day2, model.StatusCancelled)))

	n, err := repo.CountActive(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.CountActiveOnDay(ctx, c.ID, "2024-01-11")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.SoftDelete(ctx, attended.ID))
	n, err = repo.CountActive(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "deleted bookings do not count")
}

func TestBookingRepo_SoftDeleteFreesDay(t *testing.T) {
	db := setupTestDB(t)
	m := seedMember(t, db, "kim")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := seedCourse(t, db, m.ID, start, start.AddDate(0, 3, 0), 10)
	repo := NewBookingRepo(db)
	ctx := context.Background()
	at := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	first := newBooking(c.ID, at, model.StatusBooked)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.SoftDelete(ctx, first.ID))

	require.NoError(t, repo.Create(ctx, newBooking(c.ID, at, model.StatusBooked)))
	assert.ErrorIs(t, repo.SoftDelete(ctx, first.ID), ErrNotFound)

	var raw model.ClassBooking
	require.NoError(t, db.Unscoped().First(&raw, first.ID).Error)
	assert.True(t, raw.DeletedAt.Valid)
	assert.Nil(t, raw.ActiveDay)
}

func TestBookingRepo_UpdateCollision(t *testing.T) {
	db := setupTestDB(t)
	m := seedMember(t, db, "kim")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := seedCourse(t, db, m.ID, start, start.AddDate(0, 3, 0), 10)
	repo := NewBookingRepo(db)
	ctx := context.Background()

	a := newBooking(c.ID, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), model.StatusBooked)
	b := newBooking(c.ID, time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC), model.StatusBooked)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	err := repo.Update(ctx, b.ID, map[string]interface{}{
		"reservation_date": a.ReservationDate,
		"active_day":       *a.ActiveDay,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestBookingRepo_ListJoinsLiveParents(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kim := seedMember(t, db, "Kim")
	lee := seedMember(t, db, "Lee")
	kc := seedCourse(t, db, kim.ID, start, start.AddDate(0, 3, 0), 10)
	lc := seedCourse(t, db, lee.ID, start, start.AddDate(0, 3, 0), 10)
	repo := NewBookingRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking(kc.ID, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), model.StatusBooked)))
	require.NoError(t, repo.Create(ctx, newBooking(kc.ID, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC), model.StatusAttended)))
	require.NoError(t, repo.Create(ctx, newBooking(lc.ID, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), model.StatusBooked)))

	rows, total, err := repo.List(ctx, BookingFilter{MemberName: "kim"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kim", rows[0].Course.Member.Name, "course and member are preloaded")

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows, _, err = repo.List(ctx, BookingFilter{From: &from, To: &to}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatusAttended, rows[0].EnrollmentStatus)

	require.NoError(t, NewCourseRepo(db).SoftDelete(ctx, kc.ID))
	_, total, err = repo.List(ctx, BookingFilter{}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "bookings of a deleted course are hidden")
}
