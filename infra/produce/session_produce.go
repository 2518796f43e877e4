package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/uploadkit/upload-gateway/session"
)

const (
	SessionEventsExchange = "upload.events"

	SessionCompletedQueue      = "upload.session.completed"
	SessionCompletedRoutingKey = "upload.session.completed"

	SessionErroredQueue      = "upload.session.errored"
	SessionErroredRoutingKey = "upload.session.errored"
)

// SessionEventMessage carries a terminal session transition to the consumers
// that deliver webhooks and record stored objects.
type SessionEventMessage struct {
	SessionID  string               `json:"session_id"`
	RouteID    string               `json:"route_id"`
	UserID     string               `json:"user_id"`
	Status     string               `json:"status"`
	Results    []session.FileResult `json:"results,omitempty"`
	Error      string               `json:"error,omitempty"`
	WebhookURL string               `json:"webhook_url,omitempty"`
	Timestamp  int64                `json:"timestamp"`
}

// SessionEventService publishes session lifecycle events
type SessionEventService struct {
	channel *amqp.Channel
}

func InitSessionEventService(channel *amqp.Channel) *SessionEventService {
	service := &SessionEventService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		SessionEventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Session Events exchange: " + err.Error())
	}

	for queue, key := range map[string]string{
		SessionCompletedQueue: SessionCompletedRoutingKey,
		SessionErroredQueue:   SessionErroredRoutingKey,
	} {
		_, err = channel.QueueDeclare(
			queue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			panic("Failed to declare queue " + queue + ": " + err.Error())
		}

		err = channel.QueueBind(
			queue,
			key,
			SessionEventsExchange,
			false,
			nil,
		)
		if err != nil {
			panic("Failed to bind queue " + queue + ": " + err.Error())
		}
	}

	return service
}

// PublishSessionCompleted publishes a completed-session event.
func (s *SessionEventService) PublishSessionCompleted(ctx context.Context, msg SessionEventMessage) error {
	return s.publish(ctx, SessionCompletedRoutingKey, msg)
}

// PublishSessionErrored publishes an errored-session event.
func (s *SessionEventService) PublishSessionErrored(ctx context.Context, msg SessionEventMessage) error {
	return s.publish(ctx, SessionErroredRoutingKey, msg)
}

func (s *SessionEventService) publish(ctx context.Context, routingKey string, msg SessionEventMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		SessionEventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
