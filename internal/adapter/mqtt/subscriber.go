// Package mqtt ingests observation cards published by field stations over MQTT.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/synop-etl/internal/config"
	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/couchcryptid/synop-etl/internal/observability"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// Message outcomes recorded on the mqtt_messages_total counter.
const (
	outcomeAccepted = "accepted"
	outcomePending  = "pending"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// CardHandler receives every valid card. complete reports whether the card
// finished its station's pair.
type CardHandler func(ctx context.Context, card domain.ObservationCard) (complete bool, err error)

// Subscriber consumes cards from the configured topic filter with QoS 1.
type Subscriber struct {
	client    paho.Client
	topic     string
	logger    *slog.Logger
	metrics   *observability.Metrics
	handler   CardHandler
	timeout   time.Duration
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSubscriber builds an auto-reconnecting client for cfg.MQTTBroker.
// Nothing is dialled until Connect.
func NewSubscriber(cfg *config.Config, handler CardHandler, logger *slog.Logger, metrics *observability.Metrics) *Subscriber {
	s := &Subscriber{
		topic:   cfg.MQTTTopic,
		logger:  logger,
		metrics: metrics,
		handler: handler,
		timeout: 10 * time.Second,
		stopCh:  make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Resubscribe on every (re)connect; the broker may have dropped the session.
	opts.SetOnConnectHandler(func(c paho.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
		if err := s.subscribe(c); err != nil {
			logger.Error("mqtt subscribe failed", "topic", s.topic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = paho.NewClient(opts)
	return s
}

// Connect dials the broker and waits until the first connection succeeds,
// ctx is cancelled, or Disconnect is called.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return errors.New("subscriber stopped")
	default:
	}
	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return errors.New("subscriber stopped")
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe(c paho.Client) error {
	token := c.Subscribe(s.topic, 1, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", 1)
	return nil
}

// handleMessage parses one payload and hands it to the handler. It returns the
// outcome label it recorded.
func (s *Subscriber) handleMessage(topic string, payload []byte) string {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	card, err := domain.ParseObservationCard(domain.RawEvent{
		Value:     payload,
		Topic:     topic,
		Timestamp: domain.Now(),
	})
	if err == nil {
		err = checkTopicStation(topic, card.StationNumber)
	}
	if err != nil {
		s.logger.Warn("invalid observation card", "topic", topic, "error", err)
		return s.record(outcomeRejected)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	complete, err := s.handler(ctx, card)
	if err != nil {
		s.logger.Error("card handler failed",
			"topic", topic,
			"station", card.StationNumber,
			"error", err,
		)
		return s.record(outcomeError)
	}
	if !complete {
		return s.record(outcomePending)
	}
	s.logger.Debug("card completed report", "station", card.StationNumber, "observing_time", card.ObservingTime())
	return s.record(outcomeAccepted)
}

func (s *Subscriber) record(outcome string) string {
	s.metrics.MQTTMessages.WithLabelValues(outcome).Inc()
	return outcome
}

// checkTopicStation rejects cards published under another station's topic.
// Topics without a station level, or with a non-numeric one, are not checked.
func checkTopicStation(topic, station string) error {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return nil
	}
	ts, err := domain.NormalizeStationNumber(parts[1])
	if err != nil {
		return nil //nolint:nilerr // topic level is not a station number
	}
	if ts != station {
		return fmt.Errorf("%w: topic station %s, card station %s", domain.ErrInvalidCard, ts, station)
	}
	return nil
}

// IsConnected reports whether the client currently holds a broker connection.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect unsubscribes and closes the connection. Safe to call more than once.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.IsConnected() {
		s.client.Unsubscribe(s.topic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
