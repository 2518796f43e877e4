package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/uploadkit/upload-gateway/config"
	"github.com/uploadkit/upload-gateway/entity"
	"github.com/uploadkit/upload-gateway/infra"
	"github.com/uploadkit/upload-gateway/infra/produce"
	"github.com/uploadkit/upload-gateway/repository"
	"github.com/uploadkit/upload-gateway/utils"
)

const (
	webhookTimeout    = 10 * time.Second
	webhookMaxRetries = 3
)

// SessionConsumer delivers signed webhooks for terminal session transitions
// and records the stored objects of completed sessions.
type SessionConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
	config     *config.Config
	httpClient *http.Client
}

func NewSessionConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository, cfg *config.Config) *SessionConsumer {
	return &SessionConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
		config:     cfg,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

func (c *SessionConsumer) Start(ctx context.Context) error {
	if err := c.startQueueConsumer(ctx, produce.SessionCompletedQueue, c.handleCompleted); err != nil {
		return fmt.Errorf("failed to start session completed consumer: %w", err)
	}
	if err := c.startQueueConsumer(ctx, produce.SessionErroredQueue, c.handleErrored); err != nil {
		return fmt.Errorf("failed to start session errored consumer: %w", err)
	}
	return nil
}

func (c *SessionConsumer) startQueueConsumer(ctx context.Context, queue string, handle func(context.Context, amqp.Delivery)) error {
	msgs, err := c.channel.Consume(
		queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer on queue %s: %w", queue, err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Session Consumer] Started listening on queue: %s", queue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Session Consumer] Shutting down queue %s...", queue)
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Session Consumer] Channel closed for queue %s", queue)
					return
				}
				handle(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *SessionConsumer) handleCompleted(ctx context.Context, msg amqp.Delivery) {
	var payload produce.SessionEventMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Session Consumer - Completed] Failed to unmarshal message")
		_ = msg.Nack(false, false)
		return
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Session Consumer - Completed] Invalid session ID: %s", payload.SessionID)
		_ = msg.Nack(false, false)
		return
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Session Consumer - Completed] Processing session %s with %d results", sessionID, len(payload.Results))

	if err := c.recordStoredObjects(sessionID, payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Session Consumer - Completed] Failed to record stored objects for session %s", sessionID)
		_ = msg.Nack(false, true)
		return
	}

	if payload.WebhookURL != "" {
		if err := c.deliverWebhook(ctx, payload); err != nil {
			c.infra.Logger.ErrorWithContextf(ctx, err, "[Session Consumer - Completed] Webhook delivery failed for session %s", sessionID)
			_ = msg.Nack(false, true)
			return
		}
	}

	_ = msg.Ack(false)
}

func (c *SessionConsumer) handleErrored(ctx context.Context, msg amqp.Delivery) {
	var payload produce.SessionEventMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Session Consumer - Errored] Failed to unmarshal message")
		_ = msg.Nack(false, false)
		return
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Session Consumer - Errored] Session %s errored: %s", payload.SessionID, payload.Error)

	if payload.WebhookURL != "" {
		if err := c.deliverWebhook(ctx, payload); err != nil {
			c.infra.Logger.ErrorWithContextf(ctx, err, "[Session Consumer - Errored] Webhook delivery failed for session %s", payload.SessionID)
			_ = msg.Nack(false, true)
			return
		}
	}

	_ = msg.Ack(false)
}

// recordStoredObjects mirrors the completed session's results into the
// stored_objects table. Re-delivery is safe: existing rows for the session
// are replaced wholesale.
func (c *SessionConsumer) recordStoredObjects(sessionID uuid.UUID, payload produce.SessionEventMessage) error {
	existing, err := c.repository.ObjectRepo.FindBySessionID(sessionID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	return c.repository.ObjectRepo.CreateBatch(storedObjectsFromEvent(sessionID, payload))
}

// storedObjectsFromEvent maps the event's per-file results onto stored object
// rows.
func storedObjectsFromEvent(sessionID uuid.UUID, payload produce.SessionEventMessage) []entity.StoredObject {
	objects := make([]entity.StoredObject, 0, len(payload.Results))
	for _, result := range payload.Results {
		objects = append(objects, entity.StoredObject{
			ID:          uuid.New(),
			SessionID:   sessionID,
			RouteID:     payload.RouteID,
			Bucket:      result.Bucket,
			Key:         result.Key,
			SizeBytes:   result.Size,
			ContentType: result.ContentType,
			URL:         result.URL,
		})
	}
	return objects
}

// deliverWebhook posts the event to the route's webhook with an HMAC
// signature over METHOD, PATH, TIMESTAMP and the body hash. Retries with
// linear backoff before giving the message back to the queue.
func (c *SessionConsumer) deliverWebhook(ctx context.Context, payload produce.SessionEventMessage) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook body: %w", err)
	}

	target, err := url.Parse(payload.WebhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL %q: %w", payload.WebhookURL, err)
	}

	var lastErr error
	for attempt := 1; attempt <= webhookMaxRetries; attempt++ {
		timestamp := time.Now().Unix()
		stringToSign := utils.BuildStringToSign(http.MethodPost, target.Path, timestamp, utils.HashBodySHA256(body))
		signature := utils.ComputeHMACSHA256(c.config.EnvConfig.PrivateKey, stringToSign)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Upload-Signature", signature)
		req.Header.Set("X-Upload-Timestamp", strconv.FormatInt(timestamp, 10))

		resp, err := c.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				c.infra.Logger.InfoWithContextf(ctx, "[Session Consumer] Webhook delivered for session %s (attempt %d)", payload.SessionID, attempt)
				return nil
			}
			lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		c.infra.Logger.WarningWithContextf(ctx, "[Session Consumer] Webhook attempt %d/%d failed for session %s: %v", attempt, webhookMaxRetries, payload.SessionID, lastErr)

		if attempt < webhookMaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", webhookMaxRetries, lastErr)
}
