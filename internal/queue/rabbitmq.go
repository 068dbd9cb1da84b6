package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/config"
)

// RabbitMQQueue is the durable, at-least-once backend. The lease maps
// to the queue's consumer timeout: a delivery held past it by a dead
// worker is requeued by the broker and becomes claimable again.
type RabbitMQQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     config.RabbitMQConfig
	pool    *Pool
	logger  zerolog.Logger
}

func NewRabbitMQQueue(cfg config.RabbitMQConfig, lease time.Duration, logger zerolog.Logger) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &RabbitMQQueue{
		conn:    conn,
		channel: channel,
		cfg:     cfg,
		logger:  logger,
	}

	if err := q.setup(lease); err != nil {
		q.Close()
		return nil, err
	}

	logger.Info().
		Str("exchange", cfg.Exchange).
		Str("queue", cfg.QueueName).
		Msg("Connected to RabbitMQ")

	return q, nil
}

func (q *RabbitMQQueue) setup(lease time.Duration) error {
	err := q.channel.ExchangeDeclare(
		q.cfg.Exchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	args := amqp.Table{}
	if lease > 0 {
		args["x-consumer-timeout"] = lease.Milliseconds()
	}

	declared, err := q.channel.QueueDeclare(
		q.cfg.QueueName, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		args,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = q.channel.QueueBind(
		declared.Name,
		q.cfg.RoutingKey,
		q.cfg.Exchange,
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

func (q *RabbitMQQueue) Enqueue(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return q.channel.PublishWithContext(
		publishCtx,
		q.cfg.Exchange,
		q.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func (q *RabbitMQQueue) RegisterHandler(ctx context.Context, h Handler, concurrency int) error {
	// Prefetch matches pool size: the broker never hands this consumer
	// more jobs than it can actually run.
	if err := q.channel.Qos(concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		q.cfg.QueueName,
		q.cfg.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	q.pool = NewPool(concurrency, q.logger)
	q.pool.Start()

	go q.dispatch(ctx, h, msgs)

	q.logger.Info().
		Str("queue", q.cfg.QueueName).
		Int("concurrency", concurrency).
		Msg("RabbitMQ consumer started")

	return nil
}

func (q *RabbitMQQueue) dispatch(ctx context.Context, h Handler, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			q.logger.Info().Msg("Stopping RabbitMQ dispatch")
			return
		case msg, ok := <-msgs:
			if !ok {
				q.logger.Warn().Msg("RabbitMQ message channel closed")
				return
			}

			q.pool.Submit(func() {
				q.handleDelivery(ctx, h, msg)
			})
		}
	}
}

func (q *RabbitMQQueue) handleDelivery(ctx context.Context, h Handler, msg amqp.Delivery) {
	var p Payload
	if err := json.Unmarshal(msg.Body, &p); err != nil {
		q.logger.Error().Err(err).Msg("Dropping malformed job payload")
		if ackErr := msg.Ack(false); ackErr != nil {
			q.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		return
	}

	err := h(ctx, p)
	switch {
	case err == nil, IsPermanent(err):
		if err != nil {
			q.logger.Warn().Err(err).Str("analysis_id", p.AnalysisID).Msg("Job settled with permanent error")
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			q.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
	default:
		q.logger.Error().Err(err).Str("analysis_id", p.AnalysisID).Msg("Job failed, requeueing")
		if nackErr := msg.Nack(false, true); nackErr != nil {
			q.logger.Error().Err(nackErr).Msg("Failed to nack message")
		}
	}
}

func (q *RabbitMQQueue) Mode() string {
	return "rabbitmq"
}

func (q *RabbitMQQueue) Close() error {
	if q.channel != nil {
		if err := q.channel.Cancel(q.cfg.ConsumerTag, false); err != nil {
			q.logger.Error().Err(err).Msg("Failed to cancel RabbitMQ consumer")
		}
	}

	if q.pool != nil {
		q.pool.Stop()
	}

	if q.channel != nil {
		if err := q.channel.Close(); err != nil {
			q.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if q.conn != nil {
		if err := q.conn.Close(); err != nil {
			q.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
