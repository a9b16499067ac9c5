package monitor

import (
	"context"
	"errors"
	"strings"

	"change-monitor/core/logger"
	"change-monitor/feature/modules"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the run endpoints.
type Handler struct {
	service *Service
	ctx     context.Context
}

// NewHandler creates a new HTTP handler. Background runs inherit ctx.
func NewHandler(ctx context.Context, service *Service) *Handler {
	return &Handler{service: service, ctx: ctx}
}

// RegisterRoutes registers the monitor routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/runs")
	group.Post("/", h.HandleTrigger)
	group.Get("/last", h.HandleLast)
}

// HandleTrigger starts a run. The optional "modules" query parameter is a
// comma separated module list. With wait=true the run completes before the
// response is written.
func (h *Handler) HandleTrigger(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	names := splitNames(c.Query("modules"))

	if c.QueryBool("wait") {
		res, err := h.service.Run(c.UserContext(), names)
		if err != nil {
			return h.fail(c, l, err)
		}
		return c.JSON(res.Summary())
	}

	if err := h.service.Start(h.ctx, names); err != nil {
		return h.fail(c, l, err)
	}
	l.Info("Triggered run", zap.Strings("modules", names))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
}

// HandleLast returns the latest run.
func (h *Handler) HandleLast(c *fiber.Ctx) error {
	res := h.service.Last()
	if res == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no run completed yet"})
	}
	return c.JSON(res.Summary())
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, modules.ErrUnknownModule):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	l.Error("Run failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func splitNames(raw string) []string {
	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
