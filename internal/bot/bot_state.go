package bot

type BotState int

const (
	StateDefault BotState = iota
	// Состояние для поиска отработок по телефону
	StateAwaitingPhone
)

type UserSession struct {
	State BotState
}

func (b *Bot) stateOf(chatID int64) BotState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if session, exists := b.userSessions[chatID]; exists {
		return session.State
	}
	return StateDefault
}

func (b *Bot) setState(chatID int64, state BotState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session, exists := b.userSessions[chatID]; exists {
		session.State = state
		return
	}
	b.userSessions[chatID] = &UserSession{State: state}
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.userSessions, chatID)
}
