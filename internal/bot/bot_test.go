package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"studio-desk/internal/events"
	"studio-desk/internal/models"
	"studio-desk/internal/service"
	attendance_service "studio-desk/internal/service/attendance"
	session_service "studio-desk/internal/service/session"
	"studio-desk/internal/service/servicetest"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminChat int64 = 1001

var monday = servicetest.Day(2024, time.July, 1)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *servicetest.Fixture) {
	f := servicetest.New(t)
	sessions := session_service.NewSessionService(session_service.Deps{
		Sessions:    f.Store.Sessions(),
		People:      f.Store.People(),
		Spaces:      f.Store.Spaces(),
		Activities:  f.Store.Activities(),
		Instructors: f.Store.Instructors(),
		Tariffs:     f.Store.Tariffs(),
		Attendance:  f.Store.Attendance(),
		Transactor:  f.Store.Transactor(),
		Occupancy:   f.Occupancy,
		Notifier:    f.Notifier,
	})
	attendance := attendance_service.NewAttendanceService(
		f.Store.Attendance(), f.Store.Sessions(), f.Store.People(), f.Store.Transactor(), f.Occupancy, f.Notifier,
	)

	s := &fakeSender{}
	b := newBot(s, []int64{adminChat, 1002}, time.UTC, nil, sessions, attendance, f.Occupancy, zap.NewNop())
	b.now = func() time.Time { return monday.Add(9 * time.Hour) }
	return b, s, f
}

func text(chatID int64, body string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: body}
}

func command(chatID int64, body string) *tgbotapi.Message {
	msg := text(chatID, body)
	name := strings.SplitN(body, " ", 2)[0]
	msg.Entities = &[]tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}}
	return msg
}

func TestHandleMessage_OnlyAdmins(t *testing.T) {
	b, s, _ := newTestBot(t)

	b.handleMessage(context.Background(), command(42, "/today"))
	msg := s.last(t)
	require.Equal(t, int64(42), msg.ChatID)
	require.Contains(t, msg.Text, "только администраторам")
	require.Len(t, s.sent, 1)
}

func TestCreditsDialog(t *testing.T) {
	b, s, f := newTestBot(t)
	ctx := context.Background()
	ana := f.Person(t, "Ana")
	session := f.Session(t, f.Space(t, 5).ID, models.Monday, ana.ID)
	f.Mark(t, session.ID, monday, ana.ID, models.MarkJustified)

	b.handleMessage(ctx, text(adminChat, buttonCredits))
	require.Equal(t, StateAwaitingPhone, b.stateOf(adminChat))
	require.Contains(t, s.last(t).Text, "телефона")

	b.handleMessage(ctx, text(adminChat, "+7900000"))
	require.Contains(t, s.last(t).Text, "не найден")
	require.Equal(t, StateAwaitingPhone, b.stateOf(adminChat))

	b.handleMessage(ctx, text(adminChat, ana.Phone))
	require.Contains(t, s.last(t).Text, "Доступно отработок: 1")
	require.Equal(t, StateDefault, b.stateOf(adminChat))
}

func TestCreditsDialog_Cancel(t *testing.T) {
	b, s, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command(adminChat, "/credits"))
	require.Equal(t, StateAwaitingPhone, b.stateOf(adminChat))

	b.handleMessage(ctx, text(adminChat, buttonCancel))
	require.Equal(t, StateDefault, b.stateOf(adminChat))
	require.Contains(t, s.last(t).Text, "отменена")
}

func TestTodayOverview(t *testing.T) {
	b, s, f := newTestBot(t)
	ana, bea := f.Person(t, "Ana"), f.Person(t, "Bea")
	f.Session(t, f.Space(t, 2).ID, models.Monday, ana.ID, bea.ID)
	f.Session(t, f.Space(t, 2).ID, models.Tuesday, ana.ID)

	b.handleMessage(context.Background(), command(adminChat, "/today"))
	got := s.last(t).Text
	require.Contains(t, got, "01.07.2024 (понедельник)")
	require.Contains(t, got, "18:00 Pilates")
	require.Contains(t, got, "👥 2/2 · мест нет")
	require.Contains(t, got, "Итого: 2/2")
}

func TestSessionRoster(t *testing.T) {
	b, s, f := newTestBot(t)
	ctx := context.Background()
	ana := f.Person(t, "Ana")
	bea := f.Person(t, "Bea", servicetest.OnVacation(monday, monday))
	session := f.Session(t, f.Space(t, 3).ID, models.Monday, ana.ID, bea.ID)
	require.NoError(t, f.Store.Sessions().AddWaitlistEntry(ctx, &models.WaitlistEntry{
		ID: "w1", SessionID: session.ID, Name: "Prospect", Phone: "+7911",
	}))

	b.handleMessage(ctx, command(adminChat, "/session "+session.ID))
	got := s.last(t).Text
	require.Contains(t, got, "1. ✅ Ana")
	require.Contains(t, got, "2. 🏖 Bea")
	require.Contains(t, got, "⏳ Лист ожидания:\n1. Prospect")

	b.handleMessage(ctx, command(adminChat, "/session ghost"))
	require.Contains(t, s.last(t).Text, "не найдено")

	b.handleMessage(ctx, command(adminChat, "/session"))
	require.Contains(t, s.last(t).Text, "Использование")
}

func TestNotifySlotOpened_SendsToEveryAdmin(t *testing.T) {
	b, s, f := newTestBot(t)
	session := f.Session(t, f.Space(t, 3).ID, models.Wednesday)

	b.NotifySlotOpened(events.NewSlotOpened(session.ID, 1, 2))

	require.Len(t, s.sent, 2)
	chats := []int64{s.sent[0].ChatID, s.sent[1].ChatID}
	require.ElementsMatch(t, []int64{adminChat, 1002}, chats)
	require.Contains(t, s.sent[0].Text, "среда")
	require.Contains(t, s.sent[0].Text, "в листе ожидания: 2")

	s.sent = nil
	b.NotifySlotOpened(events.NewSlotOpened("ghost", 1, 1))
	require.Empty(t, s.sent)
}

func TestFormatOverview_EmptyDay(t *testing.T) {
	got := formatOverview(servicetest.Day(2024, time.July, 7), &service.DailyOverview{}, nil)
	require.Equal(t, "📅 Занятия на 07.07.2024 (воскресенье)\n\nЗанятий нет", got)
}
