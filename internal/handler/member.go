package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/service"
	"github.com/iliyamo/class-booking/internal/utils"
)

type MemberHandler struct {
	Svc *service.MemberService
	Loc *time.Location
}

func NewMemberHandler(svc *service.MemberService, loc *time.Location) *MemberHandler {
	return &MemberHandler{Svc: svc, Loc: loc}
}

type memberRegisterReq struct {
	Name            string  `json:"name" validate:"required,max=50"`
	Phone           *string `json:"phone" validate:"omitempty,max=20"`
	ParentPhone     string  `json:"parent_phone" validate:"required,max=20"`
	InstitutionName *string `json:"institution_name" validate:"omitempty,max=100"`
	BirthDay        string  `json:"birth_day" validate:"required"`
}

type memberPatchReq struct {
	Name            *string `json:"name" validate:"omitempty,max=50"`
	Phone           *string `json:"phone" validate:"omitempty,max=20"`
	ParentPhone     *string `json:"parent_phone" validate:"omitempty,max=20"`
	InstitutionName *string `json:"institution_name" validate:"omitempty,max=100"`
	BirthDay        *string `json:"birth_day"`
}

// List: GET /v1/members/list
func (h *MemberHandler) List(c echo.Context) error {
	q := newQueryReader(c, h.Loc)
	query := service.MemberQuery{
		ID:          q.uintParam("id"),
		Name:        q.str("name"),
		Phone:       q.str("phone"),
		ParentPhone: q.str("parent_phone"),
		Created:     q.dateRange(),
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
	return utils.JSONSuccess(c, http.StatusOK, "members fetched", res)
}

// Register: POST /v1/members/register
func (h *MemberHandler) Register(c echo.Context) error {
	var req memberRegisterReq
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	birth, err := parseBodyTime(req.BirthDay, "birth_day", h.Loc)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Svc.Register(ctx, service.MemberInput{
		Name:            req.Name,
		Phone:           req.Phone,
		ParentPhone:     req.ParentPhone,
		InstitutionName: req.InstitutionName,
		BirthDay:        birth,
	})
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusCreated, "member registered", echo.Map{"result": "True", "id": id})
}

// Patch: PATCH /v1/members/:id
func (h *MemberHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err)
	}
	var req memberPatchReq
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	birth, err := parseBodyOptTime(req.BirthDay, "birth_day", h.Loc)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.Patch(ctx, id, service.MemberPatch{
		Name:            req.Name,
		Phone:           req.Phone,
		ParentPhone:     req.ParentPhone,
		InstitutionName: req.InstitutionName,
		BirthDay:        birth,
	}); err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "member updated", echo.Map{"result": "member updated"})
}

// Delete: DELETE /v1/members/:id
func (h *MemberHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "member deleted", echo.Map{"result": "member deleted"})
}
