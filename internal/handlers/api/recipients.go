package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"tweetwatch/internal/manage"
	"tweetwatch/internal/models"
)

// RecipientHandler handles recipient administration via JSON API.
type RecipientHandler struct {
	svc *manage.Service
}

// NewRecipientHandler creates a new API recipient handler.
func NewRecipientHandler(svc *manage.Service) *RecipientHandler {
	return &RecipientHandler{svc: svc}
}

// List returns all recipients.
func (h *RecipientHandler) List(c fiber.Ctx) error {
	recipients, err := h.svc.ListRecipients(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to list recipients")
	}
	if recipients == nil {
		recipients = []models.Recipient{}
	}
	return jsonSuccess(c, recipients)
}

// Create adds a recipient.
func (h *RecipientHandler) Create(c fiber.Ctx) error {
	var body manage.RecipientInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	r, err := h.svc.CreateRecipient(c.Context(), body)
	if err != nil {
		return storeError(c, err, "failed to create recipient")
	}
	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, r)
}

// Update changes the fields present in the body.
func (h *RecipientHandler) Update(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipient id")
	}

	var body manage.RecipientInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	r, err := h.svc.UpdateRecipient(c.Context(), id, body)
	if err != nil {
		return storeError(c, err, "failed to update recipient")
	}
	return jsonSuccess(c, r)
}

// Delete removes a recipient.
func (h *RecipientHandler) Delete(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipient id")
	}

	if err := h.svc.DeleteRecipient(c.Context(), id); err != nil {
		return storeError(c, err, "failed to delete recipient")
	}
	return jsonSuccess(c, fiber.Map{
		"message": "recipient deleted successfully",
	})
}
