package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/api/dto"
	"github.com/creatorlane/discount-agent/internal/auth"
	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/config"
	"github.com/creatorlane/discount-agent/internal/observability"
	"github.com/creatorlane/discount-agent/internal/repository"
	apperrors "github.com/creatorlane/discount-agent/pkg/util"
)

// AdminHandler exposes the operator endpoints: login, campaign reload and
// the demo-only data reset.
type AdminHandler struct {
	cfg          config.AdminConfig
	tokens       *auth.TokenManager
	registry     *campaign.Registry
	interactions repository.InteractionRepository
	issuances    repository.IssuanceRepository
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewAdminHandler constructs handler.
func NewAdminHandler(cfg config.AdminConfig, tokens *auth.TokenManager, registry *campaign.Registry, interactions repository.InteractionRepository, issuances repository.IssuanceRepository, metrics *observability.Metrics, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		cfg:          cfg,
		tokens:       tokens,
		registry:     registry,
		interactions: interactions,
		issuances:    issuances,
		metrics:      metrics,
		logger:       logger,
	}
}

// Login handles POST /auth/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.APIKey)) != 1 {
		return apperrors.NewUnauthorized("invalid api key")
	}

	token, exp, err := h.tokens.GenerateAdminToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.AdminLoginResponse{Token: token, ExpiresAt: exp}})
}

// Reload handles POST /admin/reload. The previous campaign snapshot stays
// active when the new files fail validation.
func (h *AdminHandler) Reload(c *fiber.Ctx) error {
	if err := h.registry.Reload(); err != nil {
		return apperrors.NewConfigInvalid(err)
	}
	snap := h.registry.Current()
	h.logger.Info("campaign reloaded", zap.Int("creators", len(snap.CreatorIDs())))
	return c.JSON(fiber.Map{"data": fiber.Map{
		"status":   "reloaded",
		"creators": len(snap.CreatorIDs()),
	}})
}

// Reset handles POST /admin/reset. Durable backends refuse the wipe.
func (h *AdminHandler) Reset(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := h.interactions.Clear(ctx); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	if err := h.issuances.Clear(ctx); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	h.logger.Info("demo data reset")
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "reset"}})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"detections": h.metrics.DetectionCounts(),
	}})
}
