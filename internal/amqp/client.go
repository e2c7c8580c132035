package amqp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/log"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// ErrConsumerClosed is returned when the broker closes the delivery channel.
var ErrConsumerClosed = errors.New("delivery channel closed")

// Client publishes ledger events to a topic exchange, routed by event type,
// and consumes them from one durable queue bound to every event.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	logger   *log.Logger
}

// NewClient dials url and declares the exchange, the queue and its binding.
func NewClient(url, exchange, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		queue:    queue,
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentAMQP),
	}
	if err := c.declare(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) declare() error {
	if err := c.channel.ExchangeDeclare(c.exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	if err := c.channel.QueueBind(c.queue, BindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}
	// One unacked event at a time keeps mirror writes in publish order.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	return nil
}

// PublishLedgerEvent sends event as a persistent JSON message routed by
// its type.
func (c *Client) PublishLedgerEvent(ctx context.Context, event *LedgerEvent) error {
	msg, err := publishing(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := c.channel.PublishWithContext(ctx, c.exchange, RoutingKey(event), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	c.logger.DebugContext(ctx, "Published ledger event",
		log.FieldEventID, event.ID,
		log.FieldEventType, event.Type,
		"exchange", c.exchange)
	return nil
}

func publishing(event *LedgerEvent) (amqp091.Publishing, error) {
	body, err := event.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    event.Timestamp,
		Body:         body,
	}, nil
}

// ConsumeLedgerEvents delivers events to handler until ctx is done.
// Undecodable messages are dropped. A failed delivery is requeued once.
func (c *Client) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *LedgerEvent) error) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.InfoContext(ctx, "Consuming ledger events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrConsumerClosed
			}
			c.handle(ctx, d, handler)
		}
	}
}

func (c *Client) handle(ctx context.Context, d amqp091.Delivery, handler func(context.Context, *LedgerEvent) error) {
	event, err := LedgerEventFromJSON(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Dropping undecodable event",
			log.FieldError, err,
			"message_id", d.MessageId)
		d.Nack(false, false)
		return
	}

	if err := handler(ctx, event); err != nil {
		requeue := !d.Redelivered
		c.logger.ErrorContext(ctx, "Failed to handle ledger event",
			log.FieldError, err,
			log.FieldEventID, event.ID,
			log.FieldEventType, event.Type,
			"requeue", requeue)
		d.Nack(false, requeue)
		return
	}

	d.Ack(false)
	c.logger.DebugContext(ctx, "Processed ledger event",
		log.FieldEventID, event.ID,
		log.FieldEventType, event.Type)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
