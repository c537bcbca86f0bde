package bot

import (
	"context"
	"errors"
	"strings"

	"studio-desk/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// Обработка сообщения здесь
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID

	if !b.adminIDs[chatID] {
		b.logger.Warn("сообщение от неизвестного чата", zap.Int64("chat_id", chatID))
		b.sendMessage(chatID, "⛔ Бот доступен только администраторам студии")
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == buttonCancel {
		b.cancelOperation(chatID)
		return
	}

	// Проверяем состояние пользователя ПРЕЖДЕ обработки команд
	if b.stateOf(chatID) == StateAwaitingPhone {
		b.handlePhoneInput(ctx, chatID, text)
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			b.sendWelcomeMessage(chatID)
		case "today":
			b.showTodayOverview(ctx, chatID)
		case "session":
			b.showSessionRoster(ctx, chatID, strings.TrimSpace(message.CommandArguments()))
		case "credits":
			b.askForPhone(chatID)
		default:
			b.sendMessage(chatID, "Неизвестная команда. /help - список команд")
		}
		return
	}

	switch text {
	case buttonToday:
		b.showTodayOverview(ctx, chatID)
	case buttonCredits:
		b.askForPhone(chatID)
	default:
		b.sendWelcomeMessage(chatID)
	}
}

func (b *Bot) sendWelcomeMessage(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, welcomeText)
	msg.ReplyMarkup = createMainKeyboard()
	b.send(msg)
}

func (b *Bot) showTodayOverview(ctx context.Context, chatID int64) {
	today := b.today()

	overview, err := b.OccupancyService.DailyOverview(ctx, today)
	if err != nil {
		b.logger.Error("daily overview failed", zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при получении загрузки")
		return
	}
	sessions, err := b.SessionService.ListForDate(ctx, today)
	if err != nil {
		b.logger.Error("list sessions failed", zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при получении расписания")
		return
	}

	b.sendMessage(chatID, formatOverview(today, overview, sessions))
}

func (b *Bot) showSessionRoster(ctx context.Context, chatID int64, sessionID string) {
	if sessionID == "" {
		b.sendMessage(chatID, "Использование: /session <id>")
		return
	}

	session, err := b.SessionService.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			b.sendMessage(chatID, "❌ Занятие не найдено")
			return
		}
		b.logger.Error("get session failed", zap.String("session_id", sessionID), zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при выполнении запроса")
		return
	}

	snap, err := b.OccupancyService.Snapshot(ctx, sessionID, b.today())
	if err != nil {
		b.logger.Error("snapshot failed", zap.String("session_id", sessionID), zap.Error(err))
		b.sendError(chatID, "❌ Ошибка при выполнении запроса")
		return
	}

	b.sendMessage(chatID, formatRoster(*session, snap))
}

func (b *Bot) askForPhone(chatID int64) {
	b.setState(chatID, StateAwaitingPhone)

	msg := tgbotapi.NewMessage(chatID, "📞 Введите номер телефона ученика:")
	msg.ReplyMarkup = createCancelKeyboard()
	b.send(msg)
}

func (b *Bot) handlePhoneInput(ctx context.Context, chatID int64, phone string) {
	if phone == "" {
		b.sendMessage(chatID, "Введите номер телефона или нажмите «Отмена»")
		return
	}

	person, balance, err := b.AttendanceService.BalanceByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			b.sendMessage(chatID, "❌ Ученик с таким телефоном не найден. Попробуйте ещё раз")
			return
		}
		b.logger.Error("credits lookup failed", zap.Error(err))
		b.resetSession(chatID)
		b.sendError(chatID, "❌ Ошибка при выполнении запроса")
		return
	}

	b.resetSession(chatID)
	msg := tgbotapi.NewMessage(chatID, formatCredits(*person, balance))
	msg.ReplyMarkup = createMainKeyboard()
	b.send(msg)
}

func (b *Bot) cancelOperation(chatID int64) {
	b.resetSession(chatID)
	msg := tgbotapi.NewMessage(chatID, "❌ Операция отменена")
	msg.ReplyMarkup = createMainKeyboard()
	b.send(msg)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendMessage(chatID, text)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Warn("telegram send failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}
