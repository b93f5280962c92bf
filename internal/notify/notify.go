// Package notify publishes reservation change signals so views showing
// reservations can refresh.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/config"
)

// Event is the JSON message published for every reservation change.
type Event struct {
	Kind          string    `json:"kind"`
	ReservationID string    `json:"reservationId"`
	ResourceID    string    `json:"resourceId"`
	UserID        string    `json:"userId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// EventFromChange converts a service level change into its wire form.
func EventFromChange(change application.ReservationChange) Event {
	return Event{
		Kind:          string(change.Kind),
		ReservationID: change.ReservationID,
		ResourceID:    change.ResourceID,
		UserID:        change.UserID,
		Start:         change.Start.UTC(),
		End:           change.End.UTC(),
		Status:        string(change.Status),
		OccurredAt:    change.OccurredAt.UTC(),
	}
}

// Decode parses a published message.
func Decode(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("decode reservation event: %w", err)
	}
	return event, nil
}

// publisher is the subset of *redis.Client used to send events.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes changes on a Redis pub/sub channel.
type RedisNotifier struct {
	client  publisher
	channel string
	logger  *slog.Logger
}

// NewRedisNotifier returns a notifier publishing on channel.
func NewRedisNotifier(client publisher, channel string, logger *slog.Logger) *RedisNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

// NotifyReservationChange publishes the change as JSON.
func (n *RedisNotifier) NotifyReservationChange(ctx context.Context, change application.ReservationChange) error {
	if n == nil || n.client == nil {
		return errors.New("redis notifier not configured")
	}
	payload, err := json.Marshal(EventFromChange(change))
	if err != nil {
		return fmt.Errorf("encode reservation event: %w", err)
	}
	receivers, err := n.client.Publish(ctx, n.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish reservation event: %w", err)
	}
	n.logger.DebugContext(ctx, "reservation change published",
		"channel", n.channel,
		"kind", change.Kind,
		"reservation_id", change.ReservationID,
		"receivers", receivers,
	)
	return nil
}

// Dial connects to Redis and verifies the connection with PING.
func Dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("can't ping redis: %w", err)
	}
	return client, nil
}

// Listen decodes every message received on msgs and passes it to handle
// until ctx ends or msgs is closed. Malformed messages are logged and
// skipped; an error from handle stops the loop.
func Listen(ctx context.Context, msgs <-chan *redis.Message, handle func(Event) error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			event, err := Decode([]byte(msg.Payload))
			if err != nil {
				logger.WarnContext(ctx, "skipping malformed reservation event", "channel", msg.Channel, "error", err)
				continue
			}
			if err := handle(event); err != nil {
				return err
			}
		}
	}
}

// LogNotifier records changes in the log when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// NotifyReservationChange logs the change.
func (n *LogNotifier) NotifyReservationChange(ctx context.Context, change application.ReservationChange) error {
	n.logger.InfoContext(ctx, "reservation changed",
		"kind", change.Kind,
		"reservation_id", change.ReservationID,
		"resource_id", change.ResourceID,
		"status", change.Status,
	)
	return nil
}
