package rmqconsumer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"user-registry-api/config"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

var actions = map[string]string{
	http.MethodPost:   "UserCreated",
	http.MethodPut:    "UserUpdated",
	http.MethodDelete: "UserDeleted",
}

type Consumer struct {
	cfg        config.MQ
	log        *zap.Logger
	out        io.Writer
	conn       *amqp091.Connection
	chConsume  *amqp091.Channel
	chDelivery <-chan amqp091.Delivery
}

// lifecycleEvent is the part of a published user event the tail prints.
type lifecycleEvent struct {
	ID     string `json:"event_id"`
	Action string `json:"event_action"`
	UserID string `json:"user_id"`
}

func New(cfg config.MQ, logger *zap.Logger) *Consumer {
	return &Consumer{
		cfg: cfg,
		log: logger,
		out: os.Stdout,
	}
}

func (c *Consumer) Connect(dsn string) error {
	conn, err := amqp091.Dial(dsn)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}

	c.conn, c.chConsume = conn, ch
	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for rk := range actions {
		if err := c.chConsume.QueueBind(c.cfg.QueueName, rk, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.chDelivery = deliveries

	return nil
}

// DeliveryWorker prints deliveries until ctx is done or the channel closes.
func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) Close() error {
	if c.chConsume != nil {
		_ = c.chConsume.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	var e lifecycleEvent
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode event %s: %w", msg.MessageId, err)
	}

	// events shoveled through another exchange lose their key
	action, ok := actions[msg.RoutingKey]
	if !ok {
		action = actions[e.Action]
	}

	_, err := fmt.Fprintf(c.out,
		"Action=%s UserID=%s EventID=%s EventBody=%s\n",
		action,
		e.UserID,
		e.ID,
		string(msg.Body),
	)

	return err
}
