package mq

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"user-registry-api/config"
	"user-registry-api/internal/interface/api/rest/dto/user"
)

const publishTimeout = 5 * time.Second

var ErrNotConnected = errors.New("rabbitmq: not connected")

// RoutingKeys are the lifecycle actions events are published under.
var RoutingKeys = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
}

type (
	channel interface {
		PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
		Close() error
	}
	RabbitMQ struct {
		cfg  config.MQ
		log  *zap.Logger
		conn *amqp091.Connection

		// amqp channels are not safe for concurrent publishing
		mu    sync.Mutex
		pubCh channel
	}
	Event struct {
		Id      uuid.UUID `json:"event_id"`
		TS      time.Time `json:"time_stamp"`
		Method  string    `json:"event_action"`
		UserID  string    `json:"user_id"`
		Payload user.User `json:"user_payload"`
	}
)

func New(cfg config.MQ, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		cfg: cfg,
		log: logger,
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	amqpCfg := amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "userregistryapi",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	}

	conn, err := amqp091.DialConfig(dsn, amqpCfg)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	r.conn = conn
	r.pubCh = ch
	r.log.Info("rabbitmq connected successfully")

	return nil
}

// Init declares the exchange and the lifecycle queue bound to every routing key.
func (r *RabbitMQ) Init() error {
	ch, ok := r.pubCh.(*amqp091.Channel)
	if !ok {
		return ErrNotConnected
	}

	if err := ch.ExchangeDeclare(r.cfg.Exchange, r.cfg.ExchangeType, true, false, false, false, nil); err != nil {
		return err
	}
	q, err := ch.QueueDeclare(r.cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	for _, rk := range RoutingKeys {
		if err = ch.QueueBind(q.Name, rk, r.cfg.Exchange, false, nil); err != nil {
			return err
		}
	}

	return nil
}

// Publish sends one event and waits for the broker write to finish.
func (r *RabbitMQ) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pub := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.Id.String(),
		Timestamp:    e.TS,
		Type:         e.Method,
		Body:         b,
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pubCh == nil {
		return ErrNotConnected
	}

	return r.pubCh.PublishWithContext(ctx, r.cfg.Exchange, e.Method, false, false, pub)
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.pubCh != nil {
		errs = append(errs, r.pubCh.Close())
		r.pubCh = nil
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
		r.conn = nil
	}

	return errors.Join(errs...)
}

// NopPublisher drops events. It stands in when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
