package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/medialab/equipment-booking/internal/config"
	"github.com/medialab/equipment-booking/internal/database"
	"github.com/medialab/equipment-booking/internal/handler"
	"github.com/medialab/equipment-booking/internal/lock"
	"github.com/medialab/equipment-booking/internal/logger"
	"github.com/medialab/equipment-booking/internal/mail"
	"github.com/medialab/equipment-booking/internal/middleware"
	"github.com/medialab/equipment-booking/internal/queue"
	"github.com/medialab/equipment-booking/internal/repository"
	"github.com/medialab/equipment-booking/internal/router"
	"github.com/medialab/equipment-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Getenv("APP_ENV")).Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("database schema applied", zap.String("driver", cfg.DB.Driver))
	}

	// Redis is optional: without it the rate limiter, the response cache
	// and the sweep lock are disabled.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable; rate limit, cache and sweep lock disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	var events service.Publisher = queue.NopPublisher{}
	if cfg.AMQP.URL != "" {
		pub := queue.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		defer pub.Close()
		events = pub
	}

	holdRepo := repository.NewHoldRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	consoleRepo := repository.NewConsoleRepo(db)
	store := repository.NewLeaseStore(db, holdRepo, reservationRepo)

	holds := service.NewHoldManager(store, events, log, service.HoldOptions{
		DefaultMinutes: cfg.Hold.DefaultMinutes,
		MaxMinutes:     cfg.Hold.MaxMinutes,
		Location:       cfg.Reminder.Location(),
	})

	templates, err := mail.LoadTemplates(cfg.Reminder.TemplatesFile, cfg.Reminder.Location())
	if err != nil {
		return err
	}
	var mailer service.Mailer = mail.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mail.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return err
		}
		mailer = smtpMailer
	}
	var locker service.Locker
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, "eqlock")
	}
	sweeper := service.NewReminderSweeper(reservationRepo, mailer, templates, locker, events, log, service.SweeperOptions{
		BatchSize:    cfg.Reminder.BatchSize,
		LockTTL:      cfg.Reminder.LockTTL,
		ArchiveAfter: cfg.Reminder.ArchiveAfter,
	})
	worker := service.NewExpiryWorker(holds, sweeper, cfg.Hold.SweepInterval, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	readiness := map[string]handler.Pinger{"database": db}
	if rdb != nil {
		readiness["redis"] = redisPinger{rdb}
	}
	router.RegisterRoutes(e, router.Deps{
		Holds:     handler.NewHoldHandler(holds),
		Public:    handler.NewPublicHandler(consoleRepo, reservationRepo),
		Reminders: handler.NewReminderHandler(sweeper, cfg.Reminder.CronSecretHash),
		Ready:     handler.Ready(readiness),
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("db_driver", cfg.DB.Driver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return worker.Run(ctx) })
	if cfg.AMQP.ConsumerEnabled && cfg.AMQP.URL != "" {
		consumer := queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, "", log.Named("events"))
		g.Go(func() error { return consumer.Run(ctx) })
	}
	return g.Wait()
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }
