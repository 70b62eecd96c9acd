package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorlane/discount-agent/internal/api/dto"
	"github.com/creatorlane/discount-agent/internal/domain"
	"github.com/creatorlane/discount-agent/internal/platform"
	"github.com/creatorlane/discount-agent/internal/service"
	apperrors "github.com/creatorlane/discount-agent/pkg/util"
)

// WebhookHandler receives provider callbacks, verifies their signatures and
// feeds the extracted message into the pipeline.
type WebhookHandler struct {
	agent    *service.AgentService
	verifier *platform.Verifier
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(agentService *service.AgentService, verifier *platform.Verifier) *WebhookHandler {
	return &WebhookHandler{agent: agentService, verifier: verifier}
}

// Receive handles POST /webhook/:platform.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	p := domain.Platform(c.Params("platform"))
	if !p.Valid() {
		return fiber.NewError(http.StatusNotFound, "unknown platform")
	}

	body := c.Body()
	signature := c.Get(platform.SignatureHeader(p))
	if !h.verifier.Verify(p, signature, body) {
		return apperrors.NewSignatureInvalid(string(p))
	}

	msg, err := platform.NormalizePayload(p, body)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	result, err := h.agent.ProcessMessage(c.UserContext(), service.ProcessInput{
		Platform: p,
		UserID:   msg.UserID,
		RawText:  msg.RawText,
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.WebhookResponse{
		Reply:  result.Reply,
		RowID:  result.Row.ID,
		Status: string(result.Row.ConversationStatus),
	})
}
