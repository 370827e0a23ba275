package main // Entry point package

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/class-booking/internal/config"
	"github.com/iliyamo/class-booking/internal/database"
	"github.com/iliyamo/class-booking/internal/face"
	"github.com/iliyamo/class-booking/internal/handler"
	"github.com/iliyamo/class-booking/internal/middleware"
	"github.com/iliyamo/class-booking/internal/queue"
	"github.com/iliyamo/class-booking/internal/repository"
	"github.com/iliyamo/class-booking/internal/router"
	"github.com/iliyamo/class-booking/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	if cfg.Profile.Debug {
		log.SetLevel(log.DEBUG)
	} else {
		log.SetLevel(log.INFO)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient(context.Background())
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = queue.NewAMQPPublisher(cfg.AMQPURL)
	}

	faces, err := face.NewRegistry(face.FileStore{Path: cfg.FaceStorePath})
	if err != nil {
		log.Fatalf("face store: %v", err)
	}
	log.Infof("face store: %d known faces", faces.Len())

	// Repositories
	members := repository.NewMemberRepo(db)
	courses := repository.NewCourseRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Services
	authSvc := service.NewAuthService(service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, users, tokens, service.GoogleVerifier{ClientID: cfg.GoogleClientID})
	memberSvc := service.NewMemberService(members, cfg.Timezone)
	courseSvc := service.NewCourseService(members, courses, cfg.Timezone)
	bookingSvc := service.NewBookingService(db, courses, bookings, cfg.Timezone, events)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Debug = cfg.Profile.Debug
	e.Logger.SetLevel(log.Level())
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			log.Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	// do not recover in test mode so panics surface
	if !cfg.Profile.TestMode {
		e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{LogLevel: log.ERROR}))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Profile.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.TrustedHosts(cfg.Profile.TrustedHosts))

	router.Setup(e, router.Handlers{
		Health:       handler.Health{DB: db},
		Auth:         handler.NewAuthHandler(authSvc, cfg.JWTSecret),
		Members:      handler.NewMemberHandler(memberSvc, cfg.Timezone),
		Courses:      handler.NewCourseHandler(courseSvc, cfg.Timezone),
		ClassBooking: handler.NewClassBookingHandler(bookingSvc, cfg.Timezone),
		Face:         handler.NewFaceHandler(faces),
	}, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Infof("listening on %s (env=%s, tz=%s)", addr, cfg.Env, cfg.Timezone)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
