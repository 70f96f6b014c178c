package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	"user-service/pkg/logger"
)

const (
	exchangeName   = "events"
	publishTimeout = 10 * time.Second
)

// EventType represents the type of user lifecycle event.
type EventType string

const (
	EventUserCreated EventType = "user.created"
	EventUserUpdated EventType = "user.updated"
	EventUserDeleted EventType = "user.deleted"
)

// UserEvent is the message published for each lifecycle event. The event
// type doubles as the routing key on the topic exchange.
type UserEvent struct {
	EventID   string    `json:"event_id"`
	RequestID string    `json:"request_id,omitempty"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventUser `json:"data"`
}

// EventUser is the user payload carried by events. Deletion events carry
// only the id.
type EventUser struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Surname  string `json:"surname,omitempty"`
	Email    string `json:"email,omitempty"`
	JobTitle string `json:"jobTitle,omitempty"`
}

func eventUserFrom(u *domain.User) EventUser {
	return EventUser{
		ID:       u.ID,
		Name:     u.Name,
		Surname:  u.Surname,
		Email:    u.Email,
		JobTitle: u.JobTitle,
	}
}

// Publisher emits user lifecycle events. Publishing is fire-and-forget:
// implementations log failures and never surface them to the caller, so a
// lost event cannot fail the operation that produced it.
type Publisher interface {
	UserCreated(ctx context.Context, u *domain.User)
	UserUpdated(ctx context.Context, u *domain.User)
	UserDeleted(ctx context.Context, id string)
	Close() error
}

// AMQPPublisher publishes user events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	channel *amqp.Channel
	log     *zap.Logger
}

// NewAMQPPublisher opens a channel on the connection and declares the
// topic exchange.
func NewAMQPPublisher(conn *amqp.Connection, log *zap.Logger) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	// Declare topic exchange
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, err
	}

	return &AMQPPublisher{channel: ch, log: log}, nil
}

// UserCreated publishes a user.created event.
func (p *AMQPPublisher) UserCreated(ctx context.Context, u *domain.User) {
	p.publish(ctx, EventUserCreated, eventUserFrom(u))
}

// UserUpdated publishes a user.updated event.
func (p *AMQPPublisher) UserUpdated(ctx context.Context, u *domain.User) {
	p.publish(ctx, EventUserUpdated, eventUserFrom(u))
}

// UserDeleted publishes a user.deleted event carrying only the id.
func (p *AMQPPublisher) UserDeleted(ctx context.Context, id string) {
	p.publish(ctx, EventUserDeleted, EventUser{ID: id})
}

func (p *AMQPPublisher) publish(ctx context.Context, eventType EventType, data EventUser) {
	evt := UserEvent{
		EventID:   uuid.NewString(),
		RequestID: logger.GetRequestID(ctx),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	body, err := json.Marshal(evt)
	if err != nil {
		p.log.Warn("failed to marshal user event",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return
	}

	// Publish on a fresh timeout context so a cancelled request cannot
	// abort delivery of an event for work that already happened.
	pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		exchangeName,
		string(eventType),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: evt.RequestID,
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     evt.Timestamp,
		},
	)
	if err != nil {
		// Event is lost but the request it belongs to must not fail
		p.log.Warn("failed to publish user event",
			zap.String("event_type", string(eventType)),
			zap.String("user_id", data.ID),
			zap.Error(err),
		)
		return
	}

	p.log.Debug("published user event",
		zap.String("event_type", string(eventType)),
		zap.String("event_id", evt.EventID),
		zap.String("user_id", data.ID),
	)
}

// Close closes the publisher channel.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

// NoopPublisher discards all events. It is wired when no AMQP URL is
// configured.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

// UserCreated implements Publisher.
func (*NoopPublisher) UserCreated(context.Context, *domain.User) {}

// UserUpdated implements Publisher.
func (*NoopPublisher) UserUpdated(context.Context, *domain.User) {}

// UserDeleted implements Publisher.
func (*NoopPublisher) UserDeleted(context.Context, string) {}

// Close implements Publisher.
func (*NoopPublisher) Close() error { return nil }
