package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"tweetwatch/internal/manage"
	"tweetwatch/internal/models"
)

// MappingHandler handles keyword/recipient mappings via JSON API.
type MappingHandler struct {
	svc *manage.Service
}

// NewMappingHandler creates a new API mapping handler.
func NewMappingHandler(svc *manage.Service) *MappingHandler {
	return &MappingHandler{svc: svc}
}

// List returns all mappings with keyword and recipient details.
func (h *MappingHandler) List(c fiber.Ctx) error {
	mappings, err := h.svc.ListMappings(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to list mappings")
	}
	if mappings == nil {
		mappings = []models.KeywordRecipient{}
	}
	return jsonSuccess(c, mappings)
}

// Create maps a keyword to a recipient.
func (h *MappingHandler) Create(c fiber.Ctx) error {
	var body struct {
		KeywordID   int64 `json:"keyword_id"`
		RecipientID int64 `json:"recipient_id"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.CreateMapping(c.Context(), body.KeywordID, body.RecipientID); err != nil {
		return storeError(c, err, "failed to create mapping")
	}
	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, models.Mapping{KeywordID: body.KeywordID, RecipientID: body.RecipientID})
}

// Delete removes a mapping.
func (h *MappingHandler) Delete(c fiber.Ctx) error {
	keywordID, ok := paramID(c, "keywordId")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid keyword id")
	}
	recipientID, ok := paramID(c, "recipientId")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipient id")
	}

	if err := h.svc.DeleteMapping(c.Context(), keywordID, recipientID); err != nil {
		return storeError(c, err, "failed to delete mapping")
	}
	return jsonSuccess(c, fiber.Map{
		"message": "mapping deleted successfully",
	})
}
