package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/class-booking/internal/service"
	"github.com/iliyamo/class-booking/internal/utils"
)

type CourseHandler struct {
	Svc *service.CourseService
	Loc *time.Location
}

func NewCourseHandler(svc *service.CourseService, loc *time.Location) *CourseHandler {
	return &CourseHandler{Svc: svc, Loc: loc}
}

type courseRegisterReq struct {
	MembersID     uint64           `json:"members_id" validate:"required"`
	ClassType     string           `json:"class_type" validate:"required,max=50"`
	StartDate     string           `json:"start_date" validate:"required"`
	EndDate       string           `json:"end_date" validate:"required"`
	SessionCount  *int             `json:"session_count" validate:"required,min=0"`
	PaymentAmount *decimal.Decimal `json:"payment_amount" validate:"required"`
	PaymentDate   *string          `json:"payment_date"`
}

type coursePatchReq struct {
	ClassType     *string          `json:"class_type" validate:"omitempty,max=50"`
	StartDate     *string          `json:"start_date"`
	EndDate       *string          `json:"end_date"`
	SessionCount  *int             `json:"session_count" validate:"omitempty,min=0"`
	PaymentAmount *decimal.Decimal `json:"payment_amount"`
	PaymentDate   *string          `json:"payment_date"`
}

// List: GET /v1/courses/list
func (h *CourseHandler) List(c echo.Context) error {
	q := newQueryReader(c, h.Loc)
	query := service.CourseQuery{
		MembersID:   q.uintParam("members_id"),
		Name:        q.str("name"),
		Phone:       q.str("phone"),
		ParentPhone: q.str("parent_phone"),
		ClassType:   q.str("class_type"),
		Period:      q.dateRange(),
		Paging:      q.paging(),
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
	return utils.JSONSuccess(c, http.StatusOK, "courses fetched", res)
}

// Register: POST /v1/courses/register
func (h *CourseHandler) Register(c echo.Context) error {
	var req courseRegisterReq
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	start, err := parseBodyTime(req.StartDate, "start_date", h.Loc)
	if err != nil {
		return fail(c, err)
	}
	end, err := parseBodyTime(req.EndDate, "end_date", h.Loc)
	if err != nil {
		return fail(c, err)
	}
	paid, err := parseBodyOptTime(req.PaymentDate, "payment_date", h.Loc)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Svc.Register(ctx, service.CourseInput{
		MembersID:     req.MembersID,
		ClassType:     req.ClassType,
		StartDate:     start,
		EndDate:       end,
		SessionCount:  *req.SessionCount,
		PaymentAmount: *req.PaymentAmount,
		PaymentDate:   paid,
	})
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusCreated, "course registered", echo.Map{"result": "True", "id": id})
}

// Patch: PATCH /v1/courses/:id
func (h *CourseHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err)
	}
	var req coursePatchReq
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	p := service.CoursePatch{
		ClassType:     req.ClassType,
		SessionCount:  req.SessionCount,
		PaymentAmount: req.PaymentAmount,
	}
	if p.StartDate, err = parseBodyOptTime(req.StartDate, "start_date", h.Loc); err != nil {
		return fail(c, err)
	}
	if p.EndDate, err = parseBodyOptTime(req.EndDate, "end_date", h.Loc); err != nil {
		return fail(c, err)
	}
	if p.PaymentDate, err = parseBodyOptTime(req.PaymentDate, "payment_date", h.Loc); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.Patch(ctx, id, p); err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "course updated", echo.Map{"result": "course updated"})
}

// Delete: DELETE /v1/courses/:id
func (h *CourseHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "course deleted", echo.Map{"result": "course deleted"})
}
