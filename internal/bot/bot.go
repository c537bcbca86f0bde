package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studio-desk/internal/events"
	"studio-desk/internal/models/config"
	"studio-desk/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// sender is the part of *tgbotapi.BotAPI the handlers need.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	sender sender

	PersonService     service.PersonService
	SessionService    service.SessionService
	AttendanceService service.AttendanceService
	OccupancyService  service.OccupancyService

	adminIDs map[int64]bool
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time

	userSessions map[int64]*UserSession // chatID -> session
	mu           sync.RWMutex
}

func NewBot(
	cfg config.BotConfig,
	studio config.StudioConfig,
	personService service.PersonService,
	sessionService service.SessionService,
	attendanceService service.AttendanceService,
	occupancyService service.OccupancyService,
	logger *zap.Logger,
) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN не установлен в конфигурации")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("бот инициализирован",
		zap.String("username", api.Self.UserName),
		zap.Bool("debug", cfg.Debug),
		zap.Int64s("admins", cfg.AdminIDs),
	)

	b := newBot(api, cfg.AdminIDs, studio.Location, personService, sessionService, attendanceService, occupancyService, logger)
	b.api = api
	return b, nil
}

func newBot(
	s sender,
	adminIDs []int64,
	location *time.Location,
	personService service.PersonService,
	sessionService service.SessionService,
	attendanceService service.AttendanceService,
	occupancyService service.OccupancyService,
	logger *zap.Logger,
) *Bot {
	if location == nil {
		location = time.UTC
	}
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		sender:            s,
		PersonService:     personService,
		SessionService:    sessionService,
		AttendanceService: attendanceService,
		OccupancyService:  occupancyService,
		adminIDs:          admins,
		location:          location,
		logger:            logger,
		now:               time.Now,
		userSessions:      make(map[int64]*UserSession),
	}
}

// Start blocks until the update channel is closed by Stop.
func (b *Bot) Start() error {
	b.logger.Info("бот запущен", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(context.Background(), update.Message)
	}

	return nil
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// NotifySlotOpened рассылает администраторам освободившееся место
func (b *Bot) NotifySlotOpened(e events.SlotOpenedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := b.SessionService.Get(ctx, e.SessionID)
	if err != nil {
		b.logger.Warn("slot opened for unknown session", zap.String("session_id", e.SessionID), zap.Error(err))
		return
	}

	text := formatSlotOpened(*session, e)
	for chatID := range b.adminIDs {
		b.sendMessage(chatID, text)
	}
}

func (b *Bot) today() time.Time {
	now := b.now().In(b.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.location)
}
