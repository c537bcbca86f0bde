package events_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"studio-desk/internal/events"

	"github.com/stretchr/testify/require"
)

func TestSlotOpenedEvent_Marshal(t *testing.T) {
	ev := events.NewSlotOpened("s1", 1, 3)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "slot.opened", decoded["event_type"])
	require.Equal(t, "s1", decoded["session_id"])
	require.EqualValues(t, 3, decoded["waitlist_size"])
}

func TestOneTimeBookedEvent_Marshal(t *testing.T) {
	ev := events.NewOneTimeBooked("s1", "2024-07-01", "p1")

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "attendance.one_time_booked", decoded["event_type"])
	require.Equal(t, "2024-07-01", decoded["date"])
}

func TestDecodeSlotOpened(t *testing.T) {
	b, err := json.Marshal(events.NewSlotOpened("s1", 2, 1))
	require.NoError(t, err)

	ev, err := events.DecodeSlotOpened(b)
	require.NoError(t, err)
	require.Equal(t, "s1", ev.SessionID)
	require.Equal(t, 2, ev.FixedSlots)

	_, err = events.DecodeSlotOpened([]byte(`{"event_type":"slot.opened"}`))
	require.Error(t, err)

	_, err = events.DecodeSlotOpened([]byte(`not json`))
	require.Error(t, err)
}

func TestLocalBus_DeliversToSubscribers(t *testing.T) {
	bus := events.NewLocalBus()

	var (
		mu  sync.Mutex
		got []string
	)
	record := func(prefix string) events.SlotOpenedHandler {
		return func(e events.SlotOpenedEvent) {
			mu.Lock()
			got = append(got, prefix+e.SessionID)
			mu.Unlock()
		}
	}
	require.NoError(t, bus.SubscribeSlotOpened(record("a:")))
	require.NoError(t, bus.SubscribeSlotOpened(record("b:")))

	require.NoError(t, bus.PublishSlotOpened(events.NewSlotOpened("s1", 1, 1)))
	bus.Wait()
	require.ElementsMatch(t, []string{"a:s1", "b:s1"}, got)

	bus.Close()
	require.NoError(t, bus.PublishSlotOpened(events.NewSlotOpened("s2", 1, 1)))
	bus.Wait()
	require.Len(t, got, 2)
}

func TestLocalBus_PublishDoesNotWaitForHandlers(t *testing.T) {
	bus := events.NewLocalBus()
	release := make(chan struct{})
	done := make(chan struct{})
	require.NoError(t, bus.SubscribeSlotOpened(func(events.SlotOpenedEvent) {
		<-release
		close(done)
	}))

	require.NoError(t, bus.PublishSlotOpened(events.NewSlotOpened("s1", 1, 1)))
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
	bus.Close()
}
