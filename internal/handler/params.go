package handler

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/service"
	"github.com/iliyamo/class-booking/internal/utils"
)

// queryReader collects the optional query parameters of a list call and
// remembers the first malformed one.
type queryReader struct {
	c   echo.Context
	loc *time.Location
	err error
}

func newQueryReader(c echo.Context, loc *time.Location) *queryReader {
	return &queryReader{c: c, loc: loc}
}

func (q *queryReader) str(name string) string {
	return strings.TrimSpace(q.c.QueryParam(name))
}

func (q *queryReader) uintParam(name string) uint64 {
	var v uint64
	if q.err == nil {
		if err := echo.QueryParamsBinder(q.c).Uint64(name, &v).BindError(); err != nil {
			q.err = service.Invalid("invalid " + name)
		}
	}
	return v
}

func (q *queryReader) optInt(name string) *int {
	if q.err != nil || q.str(name) == "" {
		return nil
	}
	var v int
	if err := echo.QueryParamsBinder(q.c).Int(name, &v).BindError(); err != nil {
		q.err = service.Invalid("invalid " + name)
		return nil
	}
	return &v
}

func (q *queryReader) optTime(name string) *time.Time {
	if q.err != nil {
		return nil
	}
	s := q.str(name)
	t, err := utils.ParseOptionalTime(&s, q.loc)
	if err != nil {
		q.err = service.Invalid("invalid " + name)
		return nil
	}
	return t
}

func (q *queryReader) paging() service.PageParams {
	return service.PageParams{Page: q.optInt("page"), PerPage: q.optInt("per_page")}
}

func (q *queryReader) dateRange() service.DateRange {
	return service.DateRange{Start: q.optTime("start_date"), End: q.optTime("end_date")}
}

// parseBodyTime reads a required time field of a request body.
func parseBodyTime(s, field string, loc *time.Location) (time.Time, error) {
	t, err := utils.ParseTime(s, loc)
	if err != nil {
		return time.Time{}, service.Invalid("invalid " + field)
	}
	return t, nil
}

// parseBodyOptTime reads an optional time field of a request body.
func parseBodyOptTime(s *string, field string, loc *time.Location) (*time.Time, error) {
	t, err := utils.ParseOptionalTime(s, loc)
	if err != nil {
		return nil, service.Invalid("invalid " + field)
	}
	return t, nil
}
