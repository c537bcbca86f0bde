package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

func Connect(natsURL string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("studio-desk"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	logger.Info("connected to NATS", zap.String("url", natsURL))
	return nc, nil
}

type NatsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNatsPublisher(conn *nats.Conn, logger *zap.Logger) EventPublisher {
	return &NatsPublisher{conn: conn, logger: logger}
}

func (p *NatsPublisher) PublishSlotOpened(event SlotOpenedEvent) error {
	return p.publish(SubjectSlotOpened, event)
}

func (p *NatsPublisher) PublishOneTimeBooked(event OneTimeBookedEvent) error {
	return p.publish(SubjectOneTimeBooked, event)
}

func (p *NatsPublisher) publish(subject string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		p.logger.Error("publish to NATS failed", zap.String("subject", subject), zap.Error(err))
		return err
	}

	p.logger.Debug("published event", zap.String("subject", subject))
	return nil
}

type NatsSubscriber struct {
	conn   *nats.Conn
	logger *zap.Logger
	subs   []*nats.Subscription
}

func NewNatsSubscriber(conn *nats.Conn, logger *zap.Logger) Subscriber {
	return &NatsSubscriber{conn: conn, logger: logger}
}

func (s *NatsSubscriber) SubscribeSlotOpened(handler SlotOpenedHandler) error {
	sub, err := s.conn.Subscribe(SubjectSlotOpened, func(msg *nats.Msg) {
		event, err := DecodeSlotOpened(msg.Data)
		if err != nil {
			s.logger.Warn("dropping malformed event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		handler(event)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", SubjectSlotOpened, err)
	}

	s.subs = append(s.subs, sub)
	s.logger.Info("listening to events", zap.String("subject", SubjectSlotOpened))
	return nil
}

func (s *NatsSubscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}
