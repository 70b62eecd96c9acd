package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorlane/discount-agent/internal/api/dto"
	"github.com/creatorlane/discount-agent/internal/domain"
	"github.com/creatorlane/discount-agent/internal/service"
)

// AgentHandler exposes the direct simulation endpoint used by the CLI and
// integration tooling.
type AgentHandler struct {
	agent *service.AgentService
}

// NewAgentHandler constructs handler.
func NewAgentHandler(agentService *service.AgentService) *AgentHandler {
	return &AgentHandler{agent: agentService}
}

// Simulate handles POST /simulate.
func (h *AgentHandler) Simulate(c *fiber.Ctx) error {
	var req dto.SimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.agent.ProcessMessage(c.UserContext(), service.ProcessInput{
		Platform: domain.Platform(req.Platform),
		UserID:   req.UserID,
		RawText:  req.Text,
	})
	if err != nil {
		return err
	}

	resp := dto.SimulateResponse{
		Reply:      result.Reply,
		Row:        result.Row,
		Method:     string(result.Method),
		Confidence: result.Confidence,
	}
	if req.Explain {
		resp.Trace = result.Trace
	}
	return c.JSON(resp)
}
