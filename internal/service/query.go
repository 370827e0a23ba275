package service

import (
	"time"

	"github.com/iliyamo/class-booking/internal/repository"
)

const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
)

// PageParams are the raw paging query parameters.  Paging is on when
// either is supplied.
type PageParams struct {
	Page    *int
	PerPage *int
}

func (p PageParams) resolve() (*repository.Page, error) {
	if p.Page == nil && p.PerPage == nil {
		return nil, nil
	}
	page := repository.Page{Number: defaultPage, Size: defaultPerPage}
	if p.Page != nil {
		page.Number = *p.Page
	}
	if p.PerPage != nil {
		page.Size = *p.PerPage
	}
	if page.Number < 1 {
		return nil, Invalid("page must be >= 1")
	}
	if page.Size < 1 || page.Size > maxPerPage {
		return nil, Invalid("per_page must be between 1 and 100")
	}
	return &page, nil
}

// DateRange is an inclusive calendar-day filter.  Either end may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// window turns r into a half-open instant range: from the start of the
// first day up to the start of the day after the last one, both in loc.
func (r DateRange) window(loc *time.Location) (from, to *time.Time, err error) {
	if r.Start != nil {
		f := startOfDay(*r.Start, loc)
		from = &f
	}
	if r.End != nil {
		t := startOfDay(*r.End, loc).AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, Invalid("end_date must not be before start_date")
	}
	return from, to, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// dayKey is the calendar day of t in loc.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}
