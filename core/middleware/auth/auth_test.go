package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	newApp := func(cfg Config) *fiber.App {
		app := fiber.New()
		app.Use(New(cfg))
		app.Get("/*", func(c *fiber.Ctx) error { return c.SendString("ok") })
		return app
	}

	tests := []struct {
		name   string
		cfg    Config
		path   string
		header map[string]string
		want   int
	}{
		{"Disabled", Config{}, "/runs", nil, fiber.StatusOK},
		{"Missing", Config{ApiKey: "secret"}, "/runs", nil, fiber.StatusUnauthorized},
		{"Wrong", Config{ApiKey: "secret"}, "/runs", map[string]string{Header: "nope"}, fiber.StatusUnauthorized},
		{"Header", Config{ApiKey: "secret"}, "/runs", map[string]string{Header: "secret"}, fiber.StatusOK},
		{"Bearer", Config{ApiKey: "secret"}, "/runs", map[string]string{"Authorization": "Bearer secret"}, fiber.StatusOK},
		{"Public", Config{ApiKey: "secret", Public: []string{"/health"}}, "/health", nil, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			resp, err := newApp(tt.cfg).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
