package health

import (
	"github.com/gofiber/fiber/v2"
)

type FiberHandler struct {
	service *Service
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes mounts the probes plus their /healthz and /readyz aliases.
func (h *FiberHandler) RegisterRoutes(router fiber.Router) {
	for _, path := range []string{"/health/live", "/healthz"} {
		router.Get(path, h.live)
	}
	for _, path := range []string{"/health/ready", "/readyz"} {
		router.Get(path, h.ready)
	}
}

func (h *FiberHandler) live(c *fiber.Ctx) error {
	return c.JSON(h.service.Health(c.UserContext()))
}

func (h *FiberHandler) ready(c *fiber.Ctx) error {
	resp := h.service.Ready(c.UserContext())
	if !resp.Ready {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(resp)
}
