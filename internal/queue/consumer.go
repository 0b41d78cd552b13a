package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/portafacil/access-control/internal/observability"
)

// AckPolicy decides what happens to a delivery whose processing failed.
type AckPolicy int

const (
	// AckOnSuccess rejects failed deliveries without requeue.  The default:
	// a processing error should not be silently confirmed.
	AckOnSuccess AckPolicy = iota
	// AckAlways acknowledges even failed deliveries, silently dropping
	// them.  This reproduces the original system's behavior and exists for
	// deployments that migrated from it and rely on the queue never
	// backing up.
	AckAlways
)

// ParseAckPolicy maps the CONSUMER_ACK_POLICY config value.
func ParseAckPolicy(s string) AckPolicy {
	if s == "always" {
		return AckAlways
	}
	return AckOnSuccess
}

// ProfileStore is the slice of the repository the consumer needs: an
// idempotent upsert of the actor/profile read model.
type ProfileStore interface {
	Sync(ctx context.Context, userID uint64, username, role string) error
}

// UserEventConsumer is the long-running loop that applies user_events to
// the persistence read model.  One message is fully processed before
// acknowledgment and before the next is fetched; there is no concurrent
// processing.
type UserEventConsumer struct {
	URL      string
	Profiles ProfileStore
	Logger   *zap.Logger
	Policy   AckPolicy
}

// reconnectDelay is the fixed backoff between broker connection attempts.
const reconnectDelay = 5 * time.Second

// Run connects, declares the durable user_events queue, and consumes until
// ctx is cancelled.  On connection loss it reconnects with a fixed 5s
// backoff indefinitely.
func (c *UserEventConsumer) Run(ctx context.Context) error {
	url := c.URL
	if url == "" {
		url = brokerURL()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			c.Logger.Warn("broker dial failed, retrying",
				zap.Duration("backoff", reconnectDelay),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
			}
			continue
		}
		if err := c.consumeLoop(ctx, conn); err != nil {
			c.Logger.Warn("consume loop ended, reconnecting", zap.Error(err))
		}
		_ = conn.Close()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *UserEventConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(UserEventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(UserEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery applies one message.  Malformed payloads are acknowledged
// and discarded: redelivering them can never succeed.  Processing errors
// follow the configured ack policy.
func (c *UserEventConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	err := c.Process(ctx, d.Body)
	switch {
	case err == nil:
		observability.EventsConsumed.WithLabelValues("ok").Inc()
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformedEvent):
		c.Logger.Warn("discarding malformed event", zap.ByteString("body", d.Body))
		observability.EventsConsumed.WithLabelValues("malformed").Inc()
		_ = d.Ack(false)
	default:
		c.Logger.Error("event processing failed", zap.Error(err))
		observability.EventsConsumed.WithLabelValues("failed").Inc()
		if c.Policy == AckAlways {
			_ = d.Ack(false)
		} else {
			_ = d.Nack(false, false) // no requeue: avoid a hot retry loop
		}
	}
}

// Process parses and applies a single event body.  Exported so tests can
// exercise the processing path without a broker.
func (c *UserEventConsumer) Process(ctx context.Context, body []byte) error {
	var ev UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return err
	}

	switch ev.EventType {
	case EventUserCreated, EventUserUpdated:
		dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Profiles.Sync(dbCtx, ev.UserID, ev.Username, ev.Role); err != nil {
			return fmt.Errorf("sync profile: %w", err)
		}
		c.Logger.Info("profile synced",
			zap.Uint64("user_id", ev.UserID),
			zap.String("role", ev.Role))
	case EventUserLoggedIn:
		// Login notifications without a role carry nothing to materialize.
		if ev.Role != "" {
			dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := c.Profiles.Sync(dbCtx, ev.UserID, ev.Username, ev.Role); err != nil {
				return fmt.Errorf("sync profile: %w", err)
			}
		}
	}
	return nil
}
