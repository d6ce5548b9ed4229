package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/presenca-app/presenca-api/internal/config"
	"github.com/presenca-app/presenca-api/internal/database"
	"github.com/presenca-app/presenca-api/internal/handler"
	"github.com/presenca-app/presenca-api/internal/logger"
	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/queue"
	"github.com/presenca-app/presenca-api/internal/repository"
	"github.com/presenca-app/presenca-api/internal/router"
	"github.com/presenca-app/presenca-api/internal/service"
)

const referenceListTTL = 10 * time.Minute

func main() {
	cfg := config.Load()
	slogger := logger.New(cfg.Env)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	summons := repository.NewSummonsRepo(db)
	cities := repository.NewCityRepo(db)
	instruments := repository.NewInstrumentRepo(db)
	roles := repository.NewRoleRepo(db)
	records := repository.NewAttendanceRepo(db)
	audits := repository.NewAuditRepo(db)

	resolver := service.NewEventResolver(users, events)
	credentials := service.NewCredentialService(db, cfg, users, tokens, events, slogger)
	attendance := service.NewAttendanceService(db, resolver, summons, cities, instruments, records, slogger)

	publisher := queue.NewPublisher(cfg.AMQPURL, slogger)
	if publisher.Enabled() {
		go queue.StartAuditConsumer(cfg.AMQPURL, audits, slogger)
	} else {
		slogger.Warn("AMQP_URL not set, audit trail disabled")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		slogger.Warn("redis unreachable, rate limiting and list caching disabled")
	}
	limiter := middleware.NewAuthRateLimit(config.LoadRateLimitConfig(), rdb)
	listCache := middleware.ReferenceListCache(rdb, referenceListTTL)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, credentials, slogger), limiter, cfg.JWTSecret)
	router.RegisterMember(e,
		handler.NewAttendanceHandler(attendance, resolver, publisher, slogger),
		handler.NewReferenceHandler(cities, instruments, roles, slogger),
		listCache, cfg.JWTSecret)
	router.RegisterAdmin(e,
		handler.NewAdminEventHandler(db, events, summons, users, records, publisher, slogger),
		handler.NewAdminReferenceHandler(cities, instruments, publisher, rdb, slogger),
		handler.NewAdminUserHandler(users, tokens, cfg.BcryptCost, publisher, slogger),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	slogger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
