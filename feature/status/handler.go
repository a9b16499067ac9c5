package status

import (
	"errors"

	"change-monitor/core/history"
	"change-monitor/core/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Handler serves the status routes.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	if h.service.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.service.Metrics))
	}

	group := app.Group("/history")
	group.Get("/", h.HandleList)
	group.Get("/:id", h.HandleGet)
	group.Get("/:id/report", h.HandleObject(storage.ReportObject, fiber.MIMEApplicationJSON))
	group.Get("/:id/log", h.HandleObject(storage.LogObject, fiber.MIMETextPlainCharsetUTF8))
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(h.service.Health())
}

// HandleList returns the latest runs.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	if h.service.History == nil {
		return unavailable(c, "history")
	}
	runs, err := h.service.History.ListRuns(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}

// HandleGet returns one run.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	if h.service.History == nil {
		return unavailable(c, "history")
	}
	run, err := h.service.History.GetRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(run)
}

// HandleObject returns a handler streaming one archived object of a run.
func (h *Handler) HandleObject(object, contentType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.service.History == nil {
			return unavailable(c, "history")
		}
		if h.service.Archive == nil {
			return unavailable(c, "storage")
		}
		content, err := h.service.ArchivedObject(c.UserContext(), c.Params("id"), object)
		if err != nil {
			return failure(c, err)
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(content)
	}
}

func unavailable(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": what + " is not configured"})
}

func failure(c *fiber.Ctx, err error) error {
	if errors.Is(err, history.ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
