package integrity

import (
	"change-monitor/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/integrity", h.HandleCheck)
}

// HandleCheck runs every check and optionally fixes what it can.
func (h *Handler) HandleCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.Check(c.UserContext())
	if err != nil {
		l.Error("Integrity check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if fix {
		l.Info("Attempting to fix snapshot")
		if err := h.service.Fix(report); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":  "Failed to fix snapshot",
				"detail": err.Error(),
				"report": report,
			})
		}
	}

	return c.JSON(fiber.Map{
		"healthy": report.Healthy(),
		"report":  report,
	})
}
