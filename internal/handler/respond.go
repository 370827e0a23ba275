package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/service"
	"github.com/iliyamo/class-booking/internal/utils"
)

const requestTimeout = 5 * time.Second

// StatusFor maps a service error kind to an HTTP status.
func StatusFor(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindCapacityExceeded, service.KindDuplicateDate, service.KindConflict:
		return http.StatusConflict
	case service.KindUnauthorized, service.KindInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail renders err as a fail envelope.  Internal causes are logged, never
// returned.
func fail(c echo.Context, err error) error {
	se := service.AsError(err)
	if se.Kind == service.KindInternal {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return utils.JSONFail(c, StatusFor(se.Kind), se.Message, se.ErrorCode())
}

func badRequest(c echo.Context, msg string) error {
	return utils.JSONFail(c, http.StatusBadRequest, msg, service.KindValidation.String())
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return service.Invalid("invalid body")
	}
	if err := c.Validate(req); err != nil {
		return service.Invalid(err.Error())
	}
	return nil
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, service.Invalid("invalid id")
	}
	return id, nil
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// wrong methods, recovered panics) in the fail envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var se *service.Error
	if errors.As(err, &se) {
		_ = fail(c, se)
		return
	}

	status, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = http.StatusText(status)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
	}
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	_ = utils.JSONFail(c, status, msg, code)
}
