package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	IsClosed() bool
	Close() error
}

type brokerConnection struct {
	*amqp.Connection
}

func (c brokerConnection) Channel() (amqpChannel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialBroker(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return brokerConnection{conn}, nil
}

// AMQPPublisher publishes JSON messages to a RabbitMQ topic exchange,
// reopening the channel or redialing when either drops.
type AMQPPublisher struct {
	url      string
	exchange string
	dial     func(url string) (amqpConnection, error)

	mu      sync.Mutex
	conn    amqpConnection
	channel amqpChannel
}

// NewAMQPPublisher dials url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	return newAMQPPublisher(url, exchange, dialBroker)
}

func newAMQPPublisher(url, exchange string, dial func(string) (amqpConnection, error)) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, exchange: exchange, dial: dial}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect replaces the connection, closing the previous one first.
func (p *AMQPPublisher) connect() error {
	p.closeConnection()

	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	if err := p.openChannel(conn); err != nil {
		_ = conn.Close()
		return err
	}
	p.conn = conn
	return nil
}

func (p *AMQPPublisher) openChannel(conn amqpConnection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	p.channel = ch
	return nil
}

func (p *AMQPPublisher) ensureConnection() error {
	if p.conn == nil || p.conn.IsClosed() {
		slog.Warn("reconnecting to RabbitMQ", "exchange", p.exchange)
		return p.connect()
	}
	if p.channel == nil || p.channel.IsClosed() {
		slog.Warn("reopening RabbitMQ channel", "exchange", p.exchange)
		if err := p.openChannel(p.conn); err != nil {
			return p.connect()
		}
	}
	return nil
}

func (p *AMQPPublisher) closeConnection() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnection(); err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
