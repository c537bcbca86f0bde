package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"studio-desk/internal/bot"
	"studio-desk/internal/cache"
	"studio-desk/internal/events"
	"studio-desk/internal/models/config"
	"studio-desk/internal/repository"
	"studio-desk/internal/repository/activity"
	"studio-desk/internal/repository/attendance"
	"studio-desk/internal/repository/instructor"
	"studio-desk/internal/repository/payment"
	"studio-desk/internal/repository/person"
	"studio-desk/internal/repository/session"
	"studio-desk/internal/repository/space"
	"studio-desk/internal/repository/tariff"
	"studio-desk/internal/service"
	attendance_service "studio-desk/internal/service/attendance"
	catalog_service "studio-desk/internal/service/catalog"
	occupancy_service "studio-desk/internal/service/occupancy"
	payment_service "studio-desk/internal/service/payment"
	person_service "studio-desk/internal/service/person"
	session_service "studio-desk/internal/service/session"
	"studio-desk/internal/web"
	database "studio-desk/pkg"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var storageModule = fx.Options(
	fx.Provide(
		newDatabase,
		repository.NewTransactor,
		person.NewPersonRepository,
		session.NewSessionRepository,
		attendance.NewAttendanceRepository,
		space.NewSpaceRepository,
		instructor.NewInstructorRepository,
		activity.NewActivityRepository,
		tariff.NewTariffRepository,
		payment.NewPaymentRepository,
		newSnapshotCache,
		newEventBus,
	),
)

var serviceModule = fx.Options(
	fx.Provide(
		service.NewNotifier,
		occupancy_service.NewOccupancyService,
		person_service.NewPersonService,
		newSessionService,
		attendance_service.NewAttendanceService,
		catalog_service.NewCatalogService,
		payment_service.NewPaymentService,
	),
)

func newDatabase(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := database.NewPostgres(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

// newSnapshotCache uses Redis when REDIS_ADDR is set.
func newSnapshotCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (cache.SnapshotCache, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("snapshot cache disabled")
		return cache.NewNoopCache(), nil
	}

	client, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	logger.Info("snapshot cache on redis", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	return cache.NewRedisCache(client, cfg.Redis.TTL), nil
}

type eventBus struct {
	fx.Out

	Publisher  events.EventPublisher
	Subscriber events.Subscriber
}

// newEventBus uses NATS when NATS_URL is set and an in-process bus otherwise.
func newEventBus(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (eventBus, error) {
	if cfg.NATS.URL == "" {
		bus := events.NewLocalBus()
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				bus.Close()
				return nil
			},
		})
		return eventBus{Publisher: bus, Subscriber: bus}, nil
	}

	conn, err := events.Connect(cfg.NATS.URL, logger)
	if err != nil {
		return eventBus{}, err
	}
	subscriber := events.NewNatsSubscriber(conn, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			subscriber.Close()
			return drain(conn)
		},
	})
	return eventBus{
		Publisher:  events.NewNatsPublisher(conn, logger),
		Subscriber: subscriber,
	}, nil
}

func drain(conn *nats.Conn) error {
	if err := conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return err
	}
	return nil
}

type sessionParams struct {
	fx.In

	Sessions    repository.SessionRepository
	People      repository.PersonRepository
	Spaces      repository.SpaceRepository
	Activities  repository.ActivityRepository
	Instructors repository.InstructorRepository
	Tariffs     repository.TariffRepository
	Attendance  repository.AttendanceRepository
	Transactor  repository.Transactor
	Occupancy   service.OccupancyService
	Notifier    *service.Notifier
}

func newSessionService(p sessionParams) service.SessionService {
	return session_service.NewSessionService(session_service.Deps{
		Sessions:    p.Sessions,
		People:      p.People,
		Spaces:      p.Spaces,
		Activities:  p.Activities,
		Instructors: p.Instructors,
		Tariffs:     p.Tariffs,
		Attendance:  p.Attendance,
		Transactor:  p.Transactor,
		Occupancy:   p.Occupancy,
		Notifier:    p.Notifier,
	})
}

type handlerParams struct {
	fx.In

	Config     *config.Config
	People     service.PersonService
	Sessions   service.SessionService
	Attendance service.AttendanceService
	Occupancy  service.OccupancyService
	Catalog    service.CatalogService
	Payments   service.PaymentService
	Logger     *zap.Logger
}

func newHandler(p handlerParams) *web.Handler {
	return web.NewHandler(
		p.People, p.Sessions, p.Attendance, p.Occupancy, p.Catalog, p.Payments,
		p.Config.Studio.Location, p.Logger,
	)
}

func registerHTTPServer(lc fx.Lifecycle, cfg *config.Config, h *web.Handler, logger *zap.Logger) {
	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           web.NewRouter(h, cfg.HTTP, logger),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			logger.Info("HTTP server listening", zap.String("addr", server.Addr))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

type botParams struct {
	fx.In

	Config     *config.Config
	People     service.PersonService
	Sessions   service.SessionService
	Attendance service.AttendanceService
	Occupancy  service.OccupancyService
	Subscriber events.Subscriber
	Logger     *zap.Logger
}

// registerBot запускает бота только при заданном BOT_TOKEN
func registerBot(lc fx.Lifecycle, shutdowner fx.Shutdowner, p botParams) error {
	if !p.Config.Bot.Enabled() {
		p.Logger.Info("telegram bot disabled")
		return nil
	}

	telegramBot, err := bot.NewBot(
		p.Config.Bot, p.Config.Studio,
		p.People, p.Sessions, p.Attendance, p.Occupancy,
		p.Logger,
	)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := p.Subscriber.SubscribeSlotOpened(telegramBot.NotifySlotOpened); err != nil {
				return err
			}
			go func() {
				if err := telegramBot.Start(); err != nil {
					p.Logger.Error("ошибка запуска бота", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			telegramBot.Stop()
			return nil
		},
	})
	return nil
}
