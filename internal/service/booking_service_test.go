package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iliyamo/class-booking/internal/database"
	"github.com/iliyamo/class-booking/internal/model"
	"github.com/iliyamo/class-booking/internal/queue"
	"github.com/iliyamo/class-booking/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Action)
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	members  *MemberService
	courses  *CourseService
	bookings *BookingService
	events   *recordingPublisher
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	memberRepo := repository.NewMemberRepo(db)
	courseRepo := repository.NewCourseRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	events := &recordingPublisher{}
	return &testEnv{
		db:       db,
		members:  NewMemberService(memberRepo, time.UTC),
		courses:  NewCourseService(memberRepo, courseRepo, time.UTC),
		bookings: NewBookingService(db, courseRepo, bookingRepo, time.UTC, events),
		events:   events,
	}
}

func (e *testEnv) member(t *testing.T, name string) uint64 {
	t.Helper()
	id, err := e.members.Register(context.Background(), MemberInput{
		Name:        name,
		ParentPhone: "010-1111-2222",
		BirthDay:    time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) course(t *testing.T, memberID uint64, sessions int) uint64 {
	t.Helper()
	id, err := e.courses.Register(context.Background(), CourseInput{
		MembersID:     memberID,
		ClassType:     "piano",
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		SessionCount:  sessions,
		PaymentAmount: decimal.NewFromInt(300000),
	})
	require.NoError(t, err)
	return id
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 16, 0, 0, 0, time.UTC)
}

func book(e *testEnv, courseID uint64, at time.Time) (uint64, error) {
	return e.bookings.TryBook(context.Background(), BookingInput{
		CourseID:         courseID,
		ReservationDate:  at,
		EnrollmentStatus: model.StatusBooked,
	})
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name     string
		sessions int
		active   int64
		sameDay  int64
		want     Kind
		ok       bool
	}{
		{name: "room left", sessions: 3, active: 2, ok: true},
		{name: "full", sessions: 3, active: 3, want: KindCapacityExceeded},
		{name: "zero sessions", sessions: 0, active: 0, want: KindCapacityExceeded},
		{name: "same day", sessions: 3, active: 1, sameDay: 1, want: KindDuplicateDate},
		{name: "full and same day", sessions: 1, active: 1, sameDay: 1, want: KindCapacityExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := admit(tt.sessions, tt.active, tt.sameDay)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestAdmit_CapacityMessageCarriesCount(t *testing.T) {
	err := admit(2, 2, 0)
	require.Error(t, err)
	assert.Contains(t, AsError(err).Message, "booked sessions: 2")
}

func TestTryBook_CapacityN(t *testing.T) {
	e := setupTestEnv(t)
	c := e.course(t, e.member(t, "Park"), 3)

	for d := 1; d <= 3; d++ {
		_, err := book(e, c, day(d))
		require.NoError(t, err, "booking %d", d)
	}
	_, err := book(e, c, day(4))

	require.Error(t, err)
	assert.Equal(t, KindCapacityExceeded, KindOf(err))
}

func TestTryBook_DuplicateDate(t *testing.T) {
	e := setupTestEnv(t)
	c := e.course(t, e.member(t, "Park"), 5)

	_, err := book(e, c, day(1))
	require.NoError(t, err)

	// a different hour on the same calendar day still collides
	_, err = book(e, c, day(1).Add(-3*time.Hour))
	require.Error(t, err)
	assert.Equal(t, KindDuplicateDate, KindOf(err))
}

func TestTryBook_CancelledOrDeletedFreesDay(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	c := e.course(t, e.member(t, "Park"), 5)

	first, err := book(e, c, day(1))
	require.NoError(t, err)
	cancelled := model.StatusCancelled
	require.NoError(t, e.bookings.Patch(ctx, first, BookingPatch{EnrollmentStatus: &cancelled}))

	second, err := book(e, c, day(1))
	require.NoError(t, err, "cancelled booking no longer blocks the day")

	require.NoError(t, e.bookings.Delete(ctx, second))
	_, err = book(e, c, day(1))
	require.NoError(t, err, "deleted booking no longer blocks the day")
}

func TestTryBook_Validation(t *testing.T) {
	e := setupTestEnv(t)
	c := e.course(t, e.member(t, "Park"), 5)
	ctx := context.Background()

	_, err := e.bookings.TryBook(ctx, BookingInput{CourseID: c, ReservationDate: day(1)})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = e.bookings.TryBook(ctx, BookingInput{CourseID: c, ReservationDate: day(1), EnrollmentStatus: "9"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = book(e, 4242, day(1))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestTryBook_DeletedMemberHidesCourse(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	m := e.member(t, "Park")
	c := e.course(t, m, 5)
	_, err := book(e, c, day(1))
	require.NoError(t, err)

	require.NoError(t, e.members.Delete(ctx, m))

	_, err = book(e, c, day(2))
	assert.Equal(t, KindNotFound, KindOf(err))

	members, err := e.members.List(ctx, MemberQuery{})
	require.NoError(t, err)
	assert.Zero(t, members.TotalCount)
	courses, err := e.courses.List(ctx, CourseQuery{})
	require.NoError(t, err)
	assert.Zero(t, courses.TotalCount)
	bookings, err := e.bookings.List(ctx, BookingQuery{})
	require.NoError(t, err)
	assert.Zero(t, bookings.TotalCount)

	var n int64
	require.NoError(t, e.db.Unscoped().Model(&model.ClassBooking{}).Count(&n).Error)
	assert.EqualValues(t, 1, n, "rows stay in storage")
}

func TestPatch_OnlySuppliedFields(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	c := e.course(t, e.member(t, "Park"), 5)
	id, err := book(e, c, day(1))
	require.NoError(t, err)

	attended := model.StatusAttended
	require.NoError(t, e.bookings.Patch(ctx, id, BookingPatch{EnrollmentStatus: &attended}))

	var b model.ClassBooking
	require.NoError(t, e.db.First(&b, id).Error)
	assert.Equal(t, model.StatusAttended, b.EnrollmentStatus)
	assert.True(t, day(1).Equal(b.ReservationDate), "reservation_date untouched")
}

func TestPatch_SkipsAdmissionButKeepsDayUnique(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	c := e.course(t, e.member(t, "Park"), 1)

	first, err := book(e, c, day(1))
	require.NoError(t, err)
	cancelled := model.StatusCancelled
	require.NoError(t, e.bookings.Patch(ctx, first, BookingPatch{EnrollmentStatus: &cancelled}))
	second, err := book(e, c, day(2))
	require.NoError(t, err)

	// reviving the cancelled booking exceeds session_count; patch allows it
	booked := model.StatusBooked
	require.NoError(t, e.bookings.Patch(ctx, first, BookingPatch{EnrollmentStatus: &booked}))

	// moving onto a day that already has an active booking does not
	target := day(2)
	err = e.bookings.Patch(ctx, first, BookingPatch{ReservationDate: &target})
	require.Error(t, err)
	assert.Equal(t, KindDuplicateDate, KindOf(err))

	assert.NotZero(t, second)
}

func TestPatchAndDelete_Missing(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	booked := model.StatusBooked

	assert.Equal(t, KindNotFound, KindOf(e.bookings.Patch(ctx, 99, BookingPatch{EnrollmentStatus: &booked})))
	assert.Equal(t, KindNotFound, KindOf(e.bookings.Delete(ctx, 99)))
}

func TestBookingList_Filters(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	kim := e.member(t, "Kim")
	lee := e.member(t, "Lee")
	kc := e.course(t, kim, 5)
	lc := e.course(t, lee, 5)
	_, err := book(e, kc, day(1))
	require.NoError(t, err)
	_, err = book(e, kc, day(2))
	require.NoError(t, err)
	_, err = book(e, lc, day(2))
	require.NoError(t, err)

	res, err := e.bookings.List(ctx, BookingQuery{MemberID: kim})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalCount)

	d := day(2)
	res, err = e.bookings.List(ctx, BookingQuery{Period: DateRange{Start: &d, End: &d}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalCount)
	require.Len(t, res.Result, 2)
	assert.Equal(t, "Lee", res.Result[0].Member.Name)

	_, err = e.bookings.List(ctx, BookingQuery{EnrollmentStatus: "7"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKimScenario(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()

	memberID, err := e.members.Register(ctx, MemberInput{
		Name:        "Kim",
		ParentPhone: "010-1111-2222",
		BirthDay:    time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	courseID := e.course(t, memberID, 2)

	first, err := book(e, courseID, day(4))
	require.NoError(t, err)
	_, err = book(e, courseID, day(5))
	require.NoError(t, err)

	_, err = book(e, courseID, day(6))
	assert.Equal(t, KindCapacityExceeded, KindOf(err))

	cancelled := model.StatusCancelled
	require.NoError(t, e.bookings.Patch(ctx, first, BookingPatch{EnrollmentStatus: &cancelled}))

	_, err = book(e, courseID, day(5))
	assert.Equal(t, KindDuplicateDate, KindOf(err))

	_, err = book(e, courseID, day(6))
	require.NoError(t, err)

	res, err := e.bookings.List(ctx, BookingQuery{CourseID: courseID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.TotalCount)

	assert.Equal(t, []string{
		queue.ActionCreated, queue.ActionCreated, queue.ActionCancelled, queue.ActionCreated,
	}, e.events.actions())
}
