package dto

import (
	"time"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// SimulateRequest carries a direct message for the pipeline without going
// through a platform webhook.
type SimulateRequest struct {
	Platform string `json:"platform"`
	UserID   string `json:"user_id"`
	Text     string `json:"text"`
	Explain  bool   `json:"explain"`
}

// SimulateResponse reports how the message resolved. Trace is only populated
// when the request asked for an explanation.
type SimulateResponse struct {
	Reply      string                `json:"reply"`
	Row        domain.InteractionRow `json:"row"`
	Method     string                `json:"detection_method"`
	Confidence float64               `json:"confidence"`
	Trace      []string              `json:"trace,omitempty"`
}

// WebhookResponse acknowledges an inbound platform event.
type WebhookResponse struct {
	Reply  string `json:"reply"`
	RowID  string `json:"row_id"`
	Status string `json:"status"`
}

// AdminLoginRequest exchanges the admin API key for a bearer token.
type AdminLoginRequest struct {
	APIKey string `json:"api_key"`
}

// AdminLoginResponse carries the signed token.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
