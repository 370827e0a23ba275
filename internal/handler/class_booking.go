package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/service"
	"github.com/iliyamo/class-booking/internal/utils"
)

type ClassBookingHandler struct {
	Svc *service.BookingService
	Loc *time.Location
}

func NewClassBookingHandler(svc *service.BookingService, loc *time.Location) *ClassBookingHandler {
	return &ClassBookingHandler{Svc: svc, Loc: loc}
}

type bookingRegisterReq struct {
	CourseID         uint64 `json:"course_id" validate:"required"`
	ReservationDate  string `json:"reservation_date" validate:"required"`
	EnrollmentStatus string `json:"enrollment_status" validate:"required,oneof=1 2 3"`
}

type bookingPatchReq struct {
	ReservationDate  *string `json:"reservation_date"`
	EnrollmentStatus *string `json:"enrollment_status" validate:"omitempty,oneof=1 2 3"`
}

// List: GET /v1/class-bookings/list
func (h *ClassBookingHandler) List(c echo.Context) error {
	q := newQueryReader(c, h.Loc)
	query := service.BookingQuery{
		MemberID:         q.uintParam("member_id"),
		MemberName:       q.str("member_name"),
		CourseID:         q.uintParam("course_id"),
		EnrollmentStatus: q.str("enrollment_status"),
		Period:           q.dateRange(),
		Paging:           q.paging(),
	}
	if q.err != nil {
		return fail(c, q.err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.List(ctx, query)
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "class bookings fetched", res)
}

// Register: POST /v1/class-bookings/register
func (h *ClassBookingHandler) Register(c echo.Context) error {
	var req bookingRegisterReq
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	when, err := parseBodyTime(req.ReservationDate, "reservation_date", h.Loc)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Svc.TryBook(ctx, service.BookingInput{
		CourseID:         req.CourseID,
		ReservationDate:  when,
		EnrollmentStatus: req.EnrollmentStatus,
	})
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusCreated, "class booking registered", echo.Map{"result": "True", "id": id})
}

// Patch: PATCH /v1/class-bookings/:id
func (h *ClassBookingHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err)
	}
	var req bookingPatchReq
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	when, err := parseBodyOptTime(req.ReservationDate, "reservation_date", h.Loc)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.Patch(ctx, id, service.BookingPatch{
		ReservationDate:  when,
		EnrollmentStatus: req.EnrollmentStatus,
	}); err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "class booking updated", echo.Map{"result": "class booking updated"})
}

// Delete: DELETE /v1/class-bookings/:id
func (h *ClassBookingHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "class booking deleted", echo.Map{"result": "class booking deleted"})
}
