package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/class-booking/internal/model"
	"github.com/iliyamo/class-booking/internal/repository"
)

type MemberInput struct {
	Name            string
	Phone           *string
	ParentPhone     string
	InstitutionName *string
	BirthDay        time.Time
}

// MemberPatch carries only the fields the caller supplied.
type MemberPatch struct {
	Name            *string
	Phone           *string
	ParentPhone     *string
	InstitutionName *string
	BirthDay        *time.Time
}

type MemberQuery struct {
	ID          uint64
	Name        string
	Phone       string
	ParentPhone string
	Created     DateRange
	Paging      PageParams
}

type MemberService struct {
	members *repository.MemberRepo
	loc     *time.Location
}

func NewMemberService(members *repository.MemberRepo, loc *time.Location) *MemberService {
	return &MemberService{members: members, loc: loc}
}

// Register stores a new member and returns its id.
func (s *MemberService) Register(ctx context.Context, in MemberInput) (uint64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ParentPhone = strings.TrimSpace(in.ParentPhone)
	if in.Name == "" || in.ParentPhone == "" || in.BirthDay.IsZero() {
		return 0, Invalid("name, parent_phone and birth_day are required")
	}
	m := model.Member{
		Name:            in.Name,
		Phone:           in.Phone,
		ParentPhone:     in.ParentPhone,
		InstitutionName: in.InstitutionName,
		BirthDay:        civilDate(in.BirthDay),
	}
	if err := s.members.Create(ctx, &m); err != nil {
		log.Errorf("member register: %v", err)
		return 0, Internal("failed to save member", err)
	}
	return m.ID, nil
}

// Patch overwrites the supplied fields of a live member.
func (s *MemberService) Patch(ctx context.Context, id uint64, p MemberPatch) error {
	if _, err := s.members.GetActive(ctx, id); err != nil {
		return lookupErr(err, "member not found")
	}
	fields := map[string]interface{}{}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return Invalid("name must not be empty")
		}
		fields["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		fields["phone"] = *p.Phone
	}
	if p.ParentPhone != nil {
		if strings.TrimSpace(*p.ParentPhone) == "" {
			return Invalid("parent_phone must not be empty")
		}
		fields["parent_phone"] = strings.TrimSpace(*p.ParentPhone)
	}
	if p.InstitutionName != nil {
		fields["institution_name"] = *p.InstitutionName
	}
	if p.BirthDay != nil {
		fields["birth_day"] = civilDate(*p.BirthDay)
	}
	if err := s.members.Update(ctx, id, fields); err != nil {
		log.Errorf("member patch %d: %v", id, err)
		return Internal("failed to update member", err)
	}
	return nil
}

// Delete soft-deletes a member.  Its courses and bookings drop out of
// every list through the join predicates.
func (s *MemberService) Delete(ctx context.Context, id uint64) error {
	if err := s.members.SoftDelete(ctx, id); err != nil {
		return lookupErr(err, "member not found")
	}
	return nil
}

func (s *MemberService) List(ctx context.Context, q MemberQuery) (ListResult[MemberCourses], error) {
	page, err := q.Paging.resolve()
	if err != nil {
		return ListResult[MemberCourses]{}, err
	}
	from, to, err := q.Created.window(s.loc)
	if err != nil {
		return ListResult[MemberCourses]{}, err
	}
	rows, total, err := s.members.List(ctx, repository.MemberFilter{
		ID:          q.ID,
		Name:        q.Name,
		Phone:       q.Phone,
		ParentPhone: q.ParentPhone,
		CreatedFrom: from,
		CreatedTo:   to,
	}, page)
	if err != nil {
		log.Errorf("member list: %v", err)
		return ListResult[MemberCourses]{}, Internal("fetch failed", err)
	}
	out := make([]MemberCourses, 0, len(rows))
	for _, m := range rows {
		courses := make([]CourseView, 0, len(m.Courses))
		for _, c := range m.Courses {
			courses = append(courses, courseView(c, s.loc))
		}
		out = append(out, MemberCourses{Member: memberView(m), Courses: courses})
	}
	return ListResult[MemberCourses]{Result: out, TotalCount: total}, nil
}

// lookupErr maps a repository lookup failure to NotFound or Internal.
func lookupErr(err error, notFoundMsg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound(notFoundMsg)
	}
	log.Errorf("lookup: %v", err)
	return Internal("fetch failed", err)
}

// civilDate drops the clock so birth days stay on their calendar date.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
