package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/handler"
	"github.com/iliyamo/class-booking/internal/middleware"
)

// Handlers is everything the route table needs.
type Handlers struct {
	Health       handler.Health
	Auth         *handler.AuthHandler
	Members      *handler.MemberHandler
	Courses      *handler.CourseHandler
	ClassBooking *handler.ClassBookingHandler
	Face         *handler.FaceHandler
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health.Check)
}

// RegisterAuth registers the token endpoints under /v1/auth.  None of
// them require an existing session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", mw...)
	g.POST("/register/:sns_type", a.Register)
	g.POST("/login/:sns_type", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	// new access token, same refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
}

// RegisterProtected registers every endpoint behind JWTAuth.  Extra
// middleware (rate limiting) runs after authentication so it can key on
// the user.
func RegisterProtected(e *echo.Echo, h Handlers, jwtSecret string, extra ...echo.MiddlewareFunc) {
	v1 := e.Group("/v1", append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}, extra...)...)

	v1.GET("/me", h.Auth.Me)

	members := v1.Group("/members")
	members.GET("/list", h.Members.List)
	members.POST("/register", h.Members.Register)
	members.PATCH("/:id", h.Members.Patch)
	members.DELETE("/:id", h.Members.Delete)

	courses := v1.Group("/courses")
	courses.GET("/list", h.Courses.List)
	courses.POST("/register", h.Courses.Register)
	courses.PATCH("/:id", h.Courses.Patch)
	courses.DELETE("/:id", h.Courses.Delete)

	bookings := v1.Group("/class-bookings")
	bookings.GET("/list", h.ClassBooking.List)
	bookings.POST("/register", h.ClassBooking.Register)
	bookings.PATCH("/:id", h.ClassBooking.Patch)
	bookings.DELETE("/:id", h.ClassBooking.Delete)

	faces := v1.Group("/face")
	faces.POST("/add_face", h.Face.AddFace)
	faces.POST("/recognize_face", h.Face.RecognizeFace)
}

// Setup wires all route groups.
func Setup(e *echo.Echo, h Handlers, jwtSecret string, extra ...echo.MiddlewareFunc) {
	RegisterRoutes(e, h)
	RegisterAuth(e, h.Auth, extra...)
	RegisterProtected(e, h, jwtSecret, extra...)
}
