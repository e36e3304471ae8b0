package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rewindlabs/rewind/internal/domain"
)

// RabbitMQConsumer implements Consumer
type RabbitMQConsumer struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	prefetch   int
	consumerID string
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	URL        string
	Prefetch   int    // Number of messages to prefetch (default: 10)
	ConsumerID string // Unique consumer identifier
}

// NewConsumer creates a RabbitMQ consumer
func NewConsumer(cfg ConsumerConfig) (*RabbitMQConsumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel failed: %w", err)
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos failed: %w", err)
	}

	if _, err := ch.QueueDeclare(
		QueueMatches,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("queue declare %s failed: %w", QueueMatches, err)
	}

	consumerID := cfg.ConsumerID
	if consumerID == "" {
		consumerID = fmt.Sprintf("worker-%d", time.Now().UnixNano())
	}

	return &RabbitMQConsumer{
		conn:       conn,
		channel:    ch,
		prefetch:   prefetch,
		consumerID: consumerID,
	}, nil
}

// Consume delivers match messages to handler until the context ends.
// Failed messages are republished with an incremented retry header and
// dead-lettered once the retry budget is spent.
func (c *RabbitMQConsumer) Consume(ctx context.Context, handler func(context.Context, *domain.MatchMessage) error) error {
	deliveries, err := c.channel.Consume(
		QueueMatches,
		c.consumerID,
		false, // auto-ack (we manually ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("consume from %s failed: %w", QueueMatches, err)
	}

	const (
		initialBackoff = 1 * time.Second
		maxBackoff     = 30 * time.Second
		maxRetries     = 5
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			var msg domain.MatchMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Printf("[Consumer] Failed to unmarshal message: %v", err)
				// Reject and don't requeue malformed messages
				d.Reject(false)
				continue
			}

			retryCount := retryCountFromHeaders(d.Headers)

			if err := handler(ctx, &msg); err != nil {
				log.Printf("[Consumer] Handler failed for match %s (retry %d/%d): %v", msg.MatchID, retryCount, maxRetries, err)

				if retryCount >= maxRetries {
					log.Printf("[Consumer] Max retries exceeded for match %s, rejecting without requeue", msg.MatchID)
					d.Reject(false)
					continue
				}

				backoff := initialBackoff * time.Duration(1<<uint(retryCount))
				if backoff > maxBackoff {
					backoff = maxBackoff
				}

				log.Printf("[Consumer] Waiting %v before republishing match %s (retry %d)", backoff, msg.MatchID, retryCount+1)

				select {
				case <-ctx.Done():
					d.Reject(false)
					return ctx.Err()
				case <-time.After(backoff):
					// Native requeue doesn't preserve headers, so we
					// republish manually with the incremented count
					headers := amqp.Table{
						"x-retry-count": int64(retryCount + 1),
					}

					err := c.channel.PublishWithContext(ctx,
						"",           // exchange (use default)
						QueueMatches, // routing key = queue name
						false,        // mandatory
						false,        // immediate
						amqp.Publishing{
							ContentType:  "application/json",
							DeliveryMode: amqp.Persistent,
							Headers:      headers,
							Body:         d.Body,
						},
					)
					if err != nil {
						log.Printf("[Consumer] Failed to republish match %s: %v, rejecting without requeue", msg.MatchID, err)
						d.Reject(false)
					} else {
						d.Ack(false)
					}
				}
				continue
			}

			if err := d.Ack(false); err != nil {
				log.Printf("[Consumer] Ack failed for match %s: %v", msg.MatchID, err)
			}
		}
	}
}

// Close closes the consumer connection
func (c *RabbitMQConsumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func retryCountFromHeaders(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	if count, ok := headers["x-retry-count"].(int64); ok {
		return int(count)
	}
	if count, ok := headers["x-retry-count"].(int32); ok {
		return int(count)
	}
	return 0
}
