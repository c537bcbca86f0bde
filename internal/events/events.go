package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	SubjectSlotOpened    = "slot.opened"
	SubjectOneTimeBooked = "attendance.one_time_booked"
)

// SlotOpenedEvent is emitted when a fixed place frees up in a session that
// has people waiting for it.
type SlotOpenedEvent struct {
	EventType    string    `json:"event_type"`
	SessionID    string    `json:"session_id"`
	FixedSlots   int       `json:"fixed_slots"`
	WaitlistSize int       `json:"waitlist_size"`
	OpenedAt     time.Time `json:"opened_at"`
}

type OneTimeBookedEvent struct {
	EventType string    `json:"event_type"`
	SessionID string    `json:"session_id"`
	Date      string    `json:"date"`
	PersonID  string    `json:"person_id"`
	BookedAt  time.Time `json:"booked_at"`
}

type EventPublisher interface {
	PublishSlotOpened(event SlotOpenedEvent) error
	PublishOneTimeBooked(event OneTimeBookedEvent) error
}

type SlotOpenedHandler func(event SlotOpenedEvent)

type Subscriber interface {
	SubscribeSlotOpened(handler SlotOpenedHandler) error
	Close()
}

func NewSlotOpened(sessionID string, fixedSlots, waitlistSize int) SlotOpenedEvent {
	return SlotOpenedEvent{
		EventType:    SubjectSlotOpened,
		SessionID:    sessionID,
		FixedSlots:   fixedSlots,
		WaitlistSize: waitlistSize,
		OpenedAt:     time.Now(),
	}
}

func NewOneTimeBooked(sessionID, date, personID string) OneTimeBookedEvent {
	return OneTimeBookedEvent{
		EventType: SubjectOneTimeBooked,
		SessionID: sessionID,
		Date:      date,
		PersonID:  personID,
		BookedAt:  time.Now(),
	}
}

func DecodeSlotOpened(data []byte) (SlotOpenedEvent, error) {
	var event SlotOpenedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return SlotOpenedEvent{}, fmt.Errorf("decode %s event: %w", SubjectSlotOpened, err)
	}
	if event.SessionID == "" {
		return SlotOpenedEvent{}, fmt.Errorf("decode %s event: missing session_id", SubjectSlotOpened)
	}
	return event, nil
}
