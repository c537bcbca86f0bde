package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"studio-desk/internal/events"
	"studio-desk/internal/models"
	"studio-desk/internal/occupancy"
	"studio-desk/internal/service"
)

const welcomeText = `👋 Панель администратора студии

/today - загрузка занятий на сегодня
/session <id> - состав занятия на сегодня
/credits - отработки ученика по телефону`

var weekdayNames = map[models.Weekday]string{
	models.Monday:    "понедельник",
	models.Tuesday:   "вторник",
	models.Wednesday: "среда",
	models.Thursday:  "четверг",
	models.Friday:    "пятница",
	models.Saturday:  "суббота",
	models.Sunday:    "воскресенье",
}

var statusLabels = map[occupancy.RosterStatus]string{
	occupancy.FixedPresent:   "✅",
	occupancy.FixedAbsent:    "❌",
	occupancy.FixedJustified: "📝",
	occupancy.OneTimePresent: "🔄",
	occupancy.Vacation:       "🏖",
}

func sessionTitle(s models.Session) string {
	title := s.Time
	if s.ActivityName != "" {
		title += " " + s.ActivityName
	}
	if s.InstructorName != "" {
		title += " · " + s.InstructorName
	}
	return title
}

func formatOverview(date time.Time, overview *service.DailyOverview, sessions []models.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Занятия на %s (%s)\n", date.Format("02.01.2006"), weekdayNames[models.WeekdayOf(date)])

	if len(overview.Sessions) == 0 {
		sb.WriteString("\nЗанятий нет")
		return sb.String()
	}

	byID := make(map[string]models.Session, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
	}

	snapshots := append([]occupancy.Snapshot(nil), overview.Sessions...)
	sort.SliceStable(snapshots, func(i, j int) bool {
		return byID[snapshots[i].SessionID].Time < byID[snapshots[j].SessionID].Time
	})

	for _, snap := range snapshots {
		title := snap.SessionID
		if s, ok := byID[snap.SessionID]; ok {
			title = sessionTitle(s)
		}
		fmt.Fprintf(&sb, "\n%s\n", title)
		fmt.Fprintf(&sb, "   👥 %d/%d", snap.DailyOccupancy, snap.Capacity)
		if snap.IsFullToday {
			sb.WriteString(" · мест нет")
		} else {
			fmt.Fprintf(&sb, " · свободно: %d", snap.AvailableSlots.Total)
			if snap.AvailableSlots.Temporary > 0 {
				fmt.Fprintf(&sb, " (на сегодня: %d)", snap.AvailableSlots.Temporary)
			}
		}
		sb.WriteString("\n")
		if len(snap.Waitlist) > 0 {
			fmt.Fprintf(&sb, "   ⏳ лист ожидания: %d", len(snap.Waitlist))
			if snap.WaitlistOpportunity {
				sb.WriteString(" ❗ есть постоянное место")
			}
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\nИтого: %d/%d, заполнено занятий: %d",
		overview.TotalOccupancy, overview.TotalCapacity, overview.FullSessions)
	return sb.String()
}

func formatRoster(s models.Session, snap *occupancy.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %s\n", sessionTitle(s), weekdayNames[s.DayOfWeek])
	fmt.Fprintf(&sb, "📅 %s · 👥 %d/%d\n", snap.Date, snap.DailyOccupancy, snap.Capacity)

	if len(snap.Roster) == 0 {
		sb.WriteString("\nНикто не записан")
	}
	for i, entry := range snap.Roster {
		fmt.Fprintf(&sb, "\n%d. %s %s", i+1, statusLabels[entry.Status], entry.Person.Name)
	}

	if len(snap.Waitlist) > 0 {
		sb.WriteString("\n\n⏳ Лист ожидания:")
		for i, c := range snap.Waitlist {
			name := c.Entry.Name
			if c.Person != nil {
				name = c.Person.Name
			}
			fmt.Fprintf(&sb, "\n%d. %s", i+1, name)
		}
	}
	return sb.String()
}

func formatCredits(p models.Person, balance int) string {
	text := fmt.Sprintf("👤 %s (%s)\n🔄 Доступно отработок: %d", p.Name, p.Phone, balance)
	if !p.IsActive() {
		text += "\n⚠️ Ученик неактивен"
	}
	return text
}

func formatSlotOpened(s models.Session, e events.SlotOpenedEvent) string {
	return fmt.Sprintf("🔔 Освободилось место: %s, %s\nСвободно постоянных мест: %d, в листе ожидания: %d",
		sessionTitle(s), weekdayNames[s.DayOfWeek], e.FixedSlots, e.WaitlistSize)
}
