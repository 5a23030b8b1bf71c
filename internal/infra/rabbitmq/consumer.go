package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/toksz/rep0st/internal/domain/entity"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, body []byte) error

const maxBackoff = 60 * time.Second

// Consumer pulls indexing messages through a fixed worker pool. Retry
// accounting lives in the job row, not the broker: a failed attempt comes
// back as an entity.RetryableError carrying the job's attempt counter, and
// the redelivery backoff is derived from that. Requeued messages therefore
// need no broker-side death headers.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	workerCount int
	baseDelay   time.Duration
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	URL         string
	Queue       string
	Exchange    string
	DLQ         string
	StatusQueue string
	Prefetch    int
	WorkerCount int
	BaseDelayMs int
}

// NewConsumer connects and declares the full topology: the media exchange,
// the indexing, status and dead-letter queues, and the bindings. Queue names
// double as routing keys on the topic exchange.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{cfg.Queue, cfg.DLQ, cfg.StatusQueue} {
		_, err = ch.QueueDeclare(q, true, false, false, false, nil)
		if err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	for _, q := range []string{cfg.Queue, cfg.StatusQueue} {
		if err := ch.QueueBind(q, q, cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	err = ch.Qos(cfg.Prefetch, 0, false)
	if err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.Queue,
		workerCount: cfg.WorkerCount,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:     handler,
		logger:      logger,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",
		false, // autoAck=false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

// processDelivery acks handled messages. A returned error means the attempt
// may be repeated; the message is requeued after a backoff sized by the
// job's attempt counter. Permanent failures never reach this path, the
// handler parks them in the DLQ itself and returns nil.
func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	err := c.handler(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	delay := c.backoffFor(err)
	log.Warn("indexing attempt failed, requeueing",
		zap.Error(err),
		zap.Duration("backoff", delay),
		zap.Uint64("delivery_tag", d.DeliveryTag),
	)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}

	_ = d.Nack(false, true) // requeue=true
}

// backoffFor doubles the base delay per recorded attempt, capped at
// maxBackoff. Errors without attempt information get the base delay.
func (c *Consumer) backoffFor(err error) time.Duration {
	attempt := 1
	var retryErr *entity.RetryableError
	if errors.As(err, &retryErr) && retryErr.Attempt > 0 {
		attempt = retryErr.Attempt
	}
	if attempt > 16 {
		attempt = 16
	}

	delay := c.baseDelay * time.Duration(1<<(attempt-1))
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
