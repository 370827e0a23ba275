package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/middleware"
	"github.com/iliyamo/class-booking/internal/service"
	"github.com/iliyamo/class-booking/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Svc       *service.AuthService
	JWTSecret string
}

func NewAuthHandler(svc *service.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{Svc: svc, JWTSecret: jwtSecret}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Pw       string `json:"pw"`
	Password string `json:"password"` // alias of pw
	Name     string `json:"name" validate:"omitempty,max=100"`
	IDToken  string `json:"id_token"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) credentials(c echo.Context) (service.Credentials, error) {
	var req credentialsReq
	if err := bindAndValidate(c, &req); err != nil {
		return service.Credentials{}, err
	}
	pw := req.Pw
	if pw == "" {
		pw = req.Password
	}
	return service.Credentials{
		Email:    req.Email,
		Password: pw,
		Name:     req.Name,
		IDToken:  req.IDToken,
	}, nil
}

// Register: POST /v1/auth/register/:sns_type
func (h *AuthHandler) Register(c echo.Context) error {
	creds, err := h.credentials(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.Register(ctx, strings.ToLower(c.Param("sns_type")), creds)
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusCreated, "registered", res)
}

// Login: POST /v1/auth/login/:sns_type
func (h *AuthHandler) Login(c echo.Context) error {
	creds, err := h.credentials(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.Login(ctx, strings.ToLower(c.Param("sns_type")), creds)
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "logged in", res)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "token refreshed", res)
}

// RefreshAccess returns a new access token without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.RefreshAccess(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "access token refreshed", res)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when the body carries none.  It runs outside the JWT
// middleware so a client holding only a refresh token can still log out.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if raw, ok := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
		if claims, err := utils.ParseAccessToken(h.JWTSecret, raw); err == nil {
			uid, _ = claims.UserID()
		}
	}
	var req refreshReq
	_ = c.Bind(&req)
	if uid == 0 && strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "provide Authorization header or refresh_token")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.Logout(ctx, uid, req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "logged out", echo.Map{"result": "True"})
}

// Me: GET /v1/me
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, service.Unauthorized("unauthorized"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Svc.Me(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	return utils.JSONSuccess(c, http.StatusOK, "ok", u)
}
