package service

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/class-booking/internal/model"
	"github.com/iliyamo/class-booking/internal/repository"
)

type CourseInput struct {
	MembersID     uint64
	ClassType     string
	StartDate     time.Time
	EndDate       time.Time
	SessionCount  int
	PaymentAmount decimal.Decimal
	PaymentDate   *time.Time
}

type CoursePatch struct {
	ClassType     *string
	StartDate     *time.Time
	EndDate       *time.Time
	SessionCount  *int
	PaymentAmount *decimal.Decimal
	PaymentDate   *time.Time
}

type CourseQuery struct {
	MembersID   uint64
	Name        string
	Phone       string
	ParentPhone string
	ClassType   string
	Period      DateRange
	Paging      PageParams
}

type CourseService struct {
	members *repository.MemberRepo
	courses *repository.CourseRepo
	loc     *time.Location
}

func NewCourseService(members *repository.MemberRepo, courses *repository.CourseRepo, loc *time.Location) *CourseService {
	return &CourseService{members: members, courses: courses, loc: loc}
}

func validateCourse(start, end time.Time, sessions int, amount decimal.Decimal) error {
	switch {
	case end.Before(start):
		return Invalid("end_date must not be before start_date")
	case sessions < 0:
		return Invalid("session_count must be >= 0")
	case amount.IsNegative():
		return Invalid("payment_amount must be >= 0")
	}
	return nil
}

// Register enrolls a live member in a course and returns the course id.
func (s *CourseService) Register(ctx context.Context, in CourseInput) (uint64, error) {
	in.ClassType = strings.TrimSpace(in.ClassType)
	if in.MembersID == 0 || in.ClassType == "" || in.StartDate.IsZero() || in.EndDate.IsZero() {
		return 0, Invalid("members_id, class_type, start_date and end_date are required")
	}
	if err := validateCourse(in.StartDate, in.EndDate, in.SessionCount, in.PaymentAmount); err != nil {
		return 0, err
	}
	if _, err := s.members.GetActive(ctx, in.MembersID); err != nil {
		return 0, lookupErr(err, "member not found")
	}
	c := model.Course{
		MembersID:     in.MembersID,
		ClassType:     in.ClassType,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		SessionCount:  in.SessionCount,
		PaymentAmount: in.PaymentAmount,
	}
	if in.PaymentDate != nil {
		pd := in.PaymentDate.UTC()
		c.PaymentDate = &pd
	}
	if err := s.courses.Create(ctx, &c); err != nil {
		log.Errorf("course register: %v", err)
		return 0, Internal("failed to save course", err)
	}
	return c.ID, nil
}

// Patch overwrites the supplied fields.  The merged row must still satisfy
// the course invariants.  Lowering session_count below the number of
// existing bookings is allowed; it only limits future admissions.
func (s *CourseService) Patch(ctx context.Context, id uint64, p CoursePatch) error {
	cur, err := s.courses.GetActive(ctx, id)
	if err != nil {
		return lookupErr(err, "course not found")
	}
	fields := map[string]interface{}{}
	if p.ClassType != nil {
		ct := strings.TrimSpace(*p.ClassType)
		if ct == "" {
			return Invalid("class_type must not be empty")
		}
		cur.ClassType, fields["class_type"] = ct, ct
	}
	if p.StartDate != nil {
		cur.StartDate = p.StartDate.UTC()
		fields["start_date"] = cur.StartDate
	}
	if p.EndDate != nil {
		cur.EndDate = p.EndDate.UTC()
		fields["end_date"] = cur.EndDate
	}
	if p.SessionCount != nil {
		cur.SessionCount = *p.SessionCount
		fields["session_count"] = cur.SessionCount
	}
	if p.PaymentAmount != nil {
		cur.PaymentAmount = *p.PaymentAmount
		fields["payment_amount"] = cur.PaymentAmount
	}
	if p.PaymentDate != nil {
		fields["payment_date"] = p.PaymentDate.UTC()
	}
	if err := validateCourse(cur.StartDate, cur.EndDate, cur.SessionCount, cur.PaymentAmount); err != nil {
		return err
	}
	if err := s.courses.Update(ctx, id, fields); err != nil {
		log.Errorf("course patch %d: %v", id, err)
		return Internal("failed to update course", err)
	}
	return nil
}

func (s *CourseService) Delete(ctx context.Context, id uint64) error {
	if err := s.courses.SoftDelete(ctx, id); err != nil {
		return lookupErr(err, "course not found")
	}
	return nil
}

func (s *CourseService) List(ctx context.Context, q CourseQuery) (ListResult[CourseWithMember], error) {
	page, err := q.Paging.resolve()
	if err != nil {
		return ListResult[CourseWithMember]{}, err
	}
	from, to, err := q.Period.window(s.loc)
	if err != nil {
		return ListResult[CourseWithMember]{}, err
	}
	rows, total, err := s.courses.List(ctx, repository.CourseFilter{
		MembersID:   q.MembersID,
		Name:        q.Name,
		Phone:       q.Phone,
		ParentPhone: q.ParentPhone,
		ClassType:   q.ClassType,
		From:        from,
		To:          to,
	}, page)
	if err != nil {
		log.Errorf("course list: %v", err)
		return ListResult[CourseWithMember]{}, Internal("fetch failed", err)
	}
	out := make([]CourseWithMember, 0, len(rows))
	for _, c := range rows {
		out = append(out, CourseWithMember{CourseView: courseView(c, s.loc), Member: memberView(c.Member)})
	}
	return ListResult[CourseWithMember]{Result: out, TotalCount: total}, nil
}
