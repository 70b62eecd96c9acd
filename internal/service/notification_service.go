package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/config"
	"github.com/creatorlane/discount-agent/internal/events"
)

// NotificationService forwards noteworthy pipeline events to the CRM. When
// no webhook URL is configured it degrades to structured log output, which
// is enough for the demo deployment.
type NotificationService struct {
	cfg        config.CRMConfig
	dispatcher events.Dispatcher
	client     *http.Client
	logger     *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.CRMConfig, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		cfg:        cfg,
		dispatcher: dispatcher,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// RegisterHandlers subscribes the service to the pipeline events it forwards.
func (n *NotificationService) RegisterHandlers() {
	n.dispatcher.Subscribe(events.EventCodeIssued, n.HandleCodeIssued)
	n.dispatcher.Subscribe(events.EventCreatorMismatch, n.HandleCreatorMismatch)
}

// HandleCodeIssued pushes a lead record for every first-time issuance.
// Potential influencers are flagged so the CRM can route them to outreach.
func (n *NotificationService) HandleCodeIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CodeIssuedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s event", event.Type)
	}

	if payload.IsPotentialInfluencer {
		n.logger.Info("potential influencer identified",
			zap.String("platform", string(event.Platform)),
			zap.String("user_id", event.UserID),
			zap.Int("follower_count", payload.FollowerCount))
	}

	if n.cfg.WebhookURL == "" {
		n.logger.Info("crm notification (no webhook configured)",
			zap.String("user_id", event.UserID),
			zap.String("creator", payload.CreatorID),
			zap.String("code", payload.Code))
		return nil
	}
	return n.post(ctx, event)
}

// HandleCreatorMismatch alerts the CRM that a user asked about a second
// creator after their code was already issued.
func (n *NotificationService) HandleCreatorMismatch(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CreatorMismatchPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s event", event.Type)
	}

	n.logger.Warn("creator mismatch reported",
		zap.String("platform", string(event.Platform)),
		zap.String("user_id", event.UserID),
		zap.String("issued_creator", payload.IssuedCreatorID),
		zap.String("detected_creator", payload.DetectedCreatorID))

	if n.cfg.WebhookURL == "" {
		return nil
	}
	return n.post(ctx, event)
}

func (n *NotificationService) post(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal crm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("crm webhook delivery failed", zap.Error(err), zap.String("event_id", event.ID))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Error("crm webhook rejected event",
			zap.Int("status", resp.StatusCode), zap.String("event_id", event.ID))
		return fmt.Errorf("crm webhook returned status %d", resp.StatusCode)
	}
	return nil
}
