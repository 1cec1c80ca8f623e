package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"udhaar-bot/internal/config"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	reconnectDelay       = 5 * time.Second
	maxReconnectAttempts = 10
)

// LedgerEvent describes one applied balance change, published for
// downstream consumers (analytics, audit). Amount is the signed delta.
type LedgerEvent struct {
	EventID    string          `json:"event_id"`
	ChatID     int64           `json:"chat_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	Action     string          `json:"action"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewLedgerEvent stamps a fresh event with an ID and timestamp.
func NewLedgerEvent(chatID int64, name string, amount, balance decimal.Decimal, action string) LedgerEvent {
	return LedgerEvent{
		EventID:    uuid.NewString(),
		ChatID:     chatID,
		Name:       name,
		Amount:     amount,
		Balance:    balance,
		Action:     action,
		OccurredAt: time.Now(),
	}
}

// Publisher fans ledger events out to an AMQP exchange. Publishing is
// best-effort: the ledger write has already succeeded by the time an
// event exists, so failures here are logged and swallowed by callers.
type Publisher struct {
	cfg config.RabbitConfig
	log *logrus.Logger

	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg config.RabbitConfig, log *logrus.Logger) (*Publisher, error) {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Publisher{
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := p.connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return p, nil
}

func (p *Publisher) connect() error {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		p.cfg.User, p.cfg.Password, p.cfg.Host, p.cfg.Port, p.cfg.VHost)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.cfg.Exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.channel = ch
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{
		"host":     p.cfg.Host,
		"exchange": p.cfg.Exchange,
	}).Info("connected to RabbitMQ")

	go p.monitorConnection()

	return nil
}

func (p *Publisher) monitorConnection() {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()

	if conn == nil {
		return
	}

	notifyClose := conn.NotifyClose(make(chan *amqp.Error))

	select {
	case err := <-notifyClose:
		if err != nil {
			p.log.WithError(err).Error("RabbitMQ connection closed unexpectedly")
			p.reconnect()
		}
	case <-p.ctx.Done():
		return
	}
}

func (p *Publisher) reconnect() {
	p.mu.Lock()
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.mu.Unlock()

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		p.log.WithField("attempt", attempt).Info("attempting to reconnect to RabbitMQ")

		if err := p.connect(); err == nil {
			p.log.Info("successfully reconnected to RabbitMQ")
			return
		}

		delay := reconnectDelay * time.Duration(attempt)
		p.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).Warn("reconnection failed, retrying")

		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			return
		}
	}

	p.log.Error("max reconnection attempts reached, giving up")
}

// Publish sends one event to the exchange.
func (p *Publisher) Publish(ctx context.Context, event LedgerEvent) error {
	p.mu.RLock()
	channel := p.channel
	p.mu.RUnlock()

	if channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = channel.PublishWithContext(ctx,
		p.cfg.Exchange,
		"",    // routing key (fanout)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   event.EventID,
			Timestamp:   event.OccurredAt,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"chat_id":  event.ChatID,
		"action":   event.Action,
	}).Debug("ledger event published")

	return nil
}

func (p *Publisher) Close() {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}

	p.log.Info("publisher closed")
}
