package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/creatorlane/discount-agent/internal/service"
	apperrors "github.com/creatorlane/discount-agent/pkg/util"
)

// AnalyticsHandler serves the campaign-wide aggregation.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analyticsService}
}

// Summary handles GET /analytics.
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.analytics.Summary(c.UserContext())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": summary})
}
