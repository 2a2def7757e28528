package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const dialTimeout = 10 * time.Second

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close()
}

// Producer publishes JSON messages to one durable topic exchange.
type Producer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// Fallback drops messages. It stands in when the broker is unreachable at
// startup so callers never need a nil check.
type Fallback struct {
	logger *zap.Logger
}

func NewFallback(logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{logger: logger}
}

func (f *Fallback) Publish(_ context.Context, routingKey string, _ any) error {
	f.logger.Debug("rabbitmq publish skipped", zap.String("routing_key", routingKey))
	return nil
}

func (f *Fallback) Close() {}

func NewProducer(rawURL, exchange string, logger *zap.Logger) (*Producer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		return nil, fmt.Errorf("rabbitmq exchange is required")
	}
	cleanURL, err := sanitizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	p := &Producer{conn: conn, exchange: exchange, logger: logger}
	if err := p.reopen(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

func (p *Producer) Publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode rabbitmq message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publishLocked(ctx, routingKey, payload)
	if err == nil {
		return nil
	}

	p.logger.Warn("rabbitmq publish failed, reopening channel",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
		zap.Error(err),
	)
	if reopenErr := p.reopen(); reopenErr != nil {
		return errors.Join(err, reopenErr)
	}
	return p.publishLocked(ctx, routingKey, payload)
}

func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *Producer) publishLocked(ctx context.Context, routingKey string, payload []byte) error {
	if p.channel == nil {
		return fmt.Errorf("rabbitmq channel is nil")
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
}

func (p *Producer) reopen() error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange %q: %w", p.exchange, err)
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	p.channel = ch
	return nil
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parse rabbitmq url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("rabbitmq url scheme must be amqp or amqps")
	}
	return clean, nil
}
