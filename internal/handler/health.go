package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/iliyamo/class-booking/internal/utils"
)

// Health reports liveness and, when a database is attached, whether it
// answers a ping.
type Health struct {
	DB *gorm.DB
}

func (h Health) Check(c echo.Context) error {
	if h.DB != nil {
		sqlDB, err := h.DB.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			return utils.JSONFail(c, http.StatusServiceUnavailable, "database unavailable", "DB_UNAVAILABLE")
		}
	}
	return utils.JSONSuccess(c, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
