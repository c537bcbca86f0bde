package service

import (
	"context"

	"studio-desk/internal/cache"
	"studio-desk/internal/events"
	"studio-desk/internal/occupancy"

	"go.uber.org/zap"
)

// Notifier runs the side effects of a committed mutation. Failures are
// logged and never reach the caller.
type Notifier struct {
	cache     cache.SnapshotCache
	publisher events.EventPublisher
	logger    *zap.Logger
}

func NewNotifier(c cache.SnapshotCache, p events.EventPublisher, logger *zap.Logger) *Notifier {
	return &Notifier{cache: c, publisher: p, logger: logger}
}

func (n *Notifier) SessionChanged(ctx context.Context, sessionID string) {
	if err := n.cache.InvalidateSession(ctx, sessionID); err != nil {
		n.logger.Warn("snapshot cache invalidation failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// InvalidateAll drops every cached snapshot. People and spaces feed many sessions.
func (n *Notifier) InvalidateAll(ctx context.Context) {
	if err := n.cache.InvalidateAll(ctx); err != nil {
		n.logger.Warn("snapshot cache invalidation failed", zap.Error(err))
	}
}

// SlotOpened publishes only when the snapshot shows a waitlist opportunity.
func (n *Notifier) SlotOpened(snap *occupancy.Snapshot) {
	if snap == nil || !snap.WaitlistOpportunity {
		return
	}
	event := events.NewSlotOpened(snap.SessionID, snap.AvailableSlots.Fixed, len(snap.Waitlist))
	if err := n.publisher.PublishSlotOpened(event); err != nil {
		n.logger.Warn("slot.opened publish failed", zap.String("session_id", snap.SessionID), zap.Error(err))
	}
}

// SlotCheckFailed logs a session whose availability could not be resolved
// after a commit, so no slot.opened event went out for it.
func (n *Notifier) SlotCheckFailed(sessionID string, err error) {
	n.logger.Warn("slot availability check failed", zap.String("session_id", sessionID), zap.Error(err))
}

func (n *Notifier) OneTimeBooked(sessionID, dateKey, personID string) {
	if err := n.publisher.PublishOneTimeBooked(events.NewOneTimeBooked(sessionID, dateKey, personID)); err != nil {
		n.logger.Warn("one-time booking publish failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
