package modules

import (
	"github.com/gofiber/fiber/v2"
)

// Info describes one module for listings.
type Info struct {
	Name   string   `json:"name"`
	API    string   `json:"api"`
	Mode   string   `json:"mode"`
	Path   string   `json:"path"`
	Detail string   `json:"detail,omitempty"`
	Units  []string `json:"units"`
}

// Describe returns the listing of every module in name order.
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.modules))
	for _, name := range r.Names() {
		m := r.modules[name]
		q := m.Query.WithDefaults()
		out = append(out, Info{
			Name:   m.Name,
			API:    string(q.API),
			Mode:   string(q.Mode),
			Path:   q.Path,
			Detail: q.DetailPath,
			Units:  m.Units(),
		})
	}
	return out
}

// Handler serves the module listing.
type Handler struct {
	registry *Registry
}

// NewHandler creates a new HTTP handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes registers the module routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/modules", h.HandleList)
}

// HandleList returns every configured module.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	return c.JSON(h.registry.Describe())
}
