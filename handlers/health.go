package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-timeline/database"
	"github.com/sahilchouksey/campus-timeline/utils/response"
)

// HandleCheckHealth reports process health and, when the store exposes
// one, the store connection state.
func HandleCheckHealth(store database.DocumentStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hc, ok := store.(database.HealthChecker); ok {
			if err := hc.HealthCheck(); err != nil {
				return response.ServiceUnavailable(c, "Document store unreachable")
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
