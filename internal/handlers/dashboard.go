package handlers

import (
	"github.com/gofiber/fiber/v3"

	"tweetwatch/internal/manage"
)

// DashboardHandler renders the admin dashboard.
type DashboardHandler struct {
	svc *manage.Service
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *manage.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Show renders mappings grouped by keyword plus every keyword and recipient.
func (h *DashboardHandler) Show(c fiber.Ctx) error {
	groups, err := h.svc.GroupedMappings(c.Context())
	if err != nil {
		return err
	}
	keywords, err := h.svc.ListKeywords(c.Context())
	if err != nil {
		return err
	}
	recipients, err := h.svc.ListRecipients(c.Context())
	if err != nil {
		return err
	}
	status, err := h.svc.Status(c.Context(), 0)
	if err != nil {
		return err
	}

	return c.Render("dashboard", fiber.Map{
		"Title":           "Dashboard",
		"GroupedMappings": groups,
		"Keywords":        keywords,
		"Recipients":      recipients,
		"APITier":         status.APITier,
		"Watermark":       status.Watermark,
		"IndexKeywords":   status.IndexKeywords,
	})
}
