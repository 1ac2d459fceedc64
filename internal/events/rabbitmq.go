package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"storefront-api/internal/config"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

const defaultDialTimeout = 5 * time.Second

// session is one open channel together with the connection that carries it.
type session struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	closed     chan *amqp.Error
}

func (s *session) open() bool {
	return s != nil && !s.connection.IsClosed() && channelOpen(s.closed)
}

// channelOpen reports whether no close notification has been delivered yet.
func channelOpen(closed <-chan *amqp.Error) bool {
	select {
	case <-closed:
		return false
	default:
		return true
	}
}

type rabbitPublisher struct {
	cfg    config.RabbitMQ
	logger *slog.Logger

	mu      sync.Mutex
	current *session
}

// NewRabbitPublisher dials the broker and declares a durable topic exchange.
func NewRabbitPublisher(cfg config.RabbitMQ, logger *slog.Logger) (Publisher, error) {
	p := &rabbitPublisher{
		cfg:    cfg,
		logger: logger,
	}
	if _, err := p.session(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

// session returns the open session, reopening the channel or redialing the
// broker outside the lock when it has gone away.
func (p *rabbitPublisher) session(ctx context.Context) (*session, error) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()
	if current.open() {
		return current, nil
	}

	var conn *amqp.Connection
	if current != nil && !current.connection.IsClosed() {
		conn = current.connection
	}
	fresh, err := p.openSession(ctx, conn)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != current && p.current.open() {
		// another publisher reconnected first
		fresh.close(fresh.connection != conn)
		return p.current, nil
	}
	if current != nil && current.connection != fresh.connection {
		current.close(true)
	}
	p.current = fresh
	return fresh, nil
}

func (p *rabbitPublisher) openSession(ctx context.Context, conn *amqp.Connection) (*session, error) {
	dialed := false
	if conn == nil {
		timeout, err := dialTimeout(ctx, p.cfg.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		conn, err = amqp.DialConfig(p.cfg.URL, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(timeout),
		})
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		dialed = true
	}

	ch, err := conn.Channel()
	if err != nil {
		if dialed {
			conn.Close()
		}
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.cfg.Exchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		if dialed {
			conn.Close()
		}
		return nil, fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}

	if !dialed {
		p.logger.Info("rabbitmq channel reopened")
	}
	return &session{
		connection: conn,
		channel:    ch,
		closed:     ch.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

// dialTimeout bounds the dial by the configured timeout and the context deadline.
func dialTimeout(ctx context.Context, configured time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := configured
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}

func (s *session) close(withConnection bool) error {
	err := s.channel.Close()
	if withConnection && !s.connection.IsClosed() {
		err = errors.Join(err, s.connection.Close())
	}
	return err
}

func (p *rabbitPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s, err := p.session(ctx)
	if err != nil {
		return err
	}

	err = s.channel.Publish(
		p.cfg.Exchange,
		string(event.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Headers: amqp.Table{
				"order_id":   event.OrderID,
				"event_type": string(event.Type),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.DebugContext(ctx, "event published", "type", event.Type, "order_id", event.OrderID)
	return nil
}

func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	err := p.current.close(true)
	p.current = nil
	if err != nil {
		return fmt.Errorf("close rabbitmq: %w", err)
	}
	return nil
}
