package mq

import (
	"Go_Vault/config"
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeNotify = "share.notify.exchange"
	ExchangeRetry  = "share.notify.retry.exchange"
	ExchangeDLQ    = "share.notify.dlq.exchange"

	QueueNotify = "share.notify.queue"
	QueueRetry  = "share.notify.retry.queue"
	QueueDLQ    = "share.notify.dlq.queue"

	RoutingNotify = "share.notify"
	RoutingRetry  = "share.notify.retry"
	RoutingDLQ    = "share.notify.dlq"

	messageType = "share.notification"
	appID       = "go-vault"
)

// lane is one exchange bound to one durable queue by a single routing key.
type lane struct {
	exchange string
	queue    string
	key      string
	args     amqp.Table
}

// Parked retries dead-letter back into the notify lane when their per-message TTL runs out.
var lanes = []lane{
	{exchange: ExchangeNotify, queue: QueueNotify, key: RoutingNotify},
	{exchange: ExchangeRetry, queue: QueueRetry, key: RoutingRetry, args: amqp.Table{
		"x-dead-letter-exchange":    ExchangeNotify,
		"x-dead-letter-routing-key": RoutingNotify,
	}},
	{exchange: ExchangeDLQ, queue: QueueDLQ, key: RoutingDLQ},
}

// Client wraps one AMQP connection and channel. Publishes are serialised on the channel.
type Client struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	publishMu sync.Mutex
}

var publisherMu sync.Mutex
var publisher *Client

// Dial opens a connection and channel to the configured broker.
func Dial() (*Client, error) {
	conn, err := amqp.Dial(config.AppConfig.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, Channel: ch}, nil
}

// GetPublisher returns the shared publishing client, redialing once the old one has closed.
func GetPublisher() (*Client, error) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if publisher != nil && !publisher.Conn.IsClosed() && !publisher.Channel.IsClosed() {
		return publisher, nil
	}
	publisher.Close()
	publisher = nil

	client, err := Dial()
	if err != nil {
		return nil, err
	}
	if err := client.DeclareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	publisher = client
	return publisher, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// DeclareTopology declares the notify, retry and dead-letter lanes. It is idempotent.
func (c *Client) DeclareTopology() error {
	for _, l := range lanes {
		if err := c.Channel.ExchangeDeclare(l.exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return err
		}
		if _, err := c.Channel.QueueDeclare(l.queue, true, false, false, false, l.args); err != nil {
			return err
		}
		if err := c.Channel.QueueBind(l.queue, l.key, l.exchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeNotifications starts manual-ack delivery from the notify queue with the given prefetch.
func (c *Client) ConsumeNotifications(prefetch int) (<-chan amqp.Delivery, error) {
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := c.Channel.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.Channel.Consume(QueueNotify, "", false, false, false, false, nil)
}

// PublishNotify enqueues a share notification for delivery.
func (c *Client) PublishNotify(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeNotify, RoutingNotify, body, 0)
}

// PublishRetry parks a notification in the retry queue for delay.
func (c *Client) PublishRetry(ctx context.Context, body []byte, delay time.Duration) error {
	return c.publish(ctx, ExchangeRetry, RoutingRetry, body, max(delay, 0))
}

// PublishDLQ stores a notification that exhausted its retries.
func (c *Client) PublishDLQ(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeDLQ, RoutingDLQ, body, 0)
}

func (c *Client) publish(ctx context.Context, exchange, key string, body []byte, ttl time.Duration) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Type:         messageType,
		AppId:        appID,
		MessageId:    uuid.NewString(),
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}
	if exchange == ExchangeRetry {
		msg.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	return c.Channel.PublishWithContext(ctx, exchange, key, false, false, msg)
}
