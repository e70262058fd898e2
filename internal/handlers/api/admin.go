package api

import (
	"github.com/gofiber/fiber/v3"

	"tweetwatch/internal/manage"
	"tweetwatch/internal/models"
)

const statusRecentRuns = 10

// AdminHandler serves index and monitor status operations.
type AdminHandler struct {
	svc *manage.Service
}

// NewAdminHandler creates a new API admin handler.
func NewAdminHandler(svc *manage.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// RefreshIndex rebuilds the keyword index on demand.
func (h *AdminHandler) RefreshIndex(c fiber.Ctx) error {
	n, err := h.svc.RefreshIndex(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "index refresh failed")
	}
	return jsonSuccess(c, models.RefreshResponse{Keywords: n})
}

// Status reports the watermark, index size and the latest poll runs.
func (h *AdminHandler) Status(c fiber.Ctx) error {
	st, err := h.svc.Status(c.Context(), statusRecentRuns)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to read status")
	}
	return jsonSuccess(c, st)
}

// Healthz is the liveness probe.
func Healthz(c fiber.Ctx) error {
	return jsonSuccess(c, fiber.Map{"healthy": true})
}
