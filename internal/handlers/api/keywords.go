package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"tweetwatch/internal/manage"
	"tweetwatch/internal/models"
)

// KeywordHandler handles keyword administration via JSON API.
type KeywordHandler struct {
	svc *manage.Service
}

// NewKeywordHandler creates a new API keyword handler.
func NewKeywordHandler(svc *manage.Service) *KeywordHandler {
	return &KeywordHandler{svc: svc}
}

// List returns all keywords.
func (h *KeywordHandler) List(c fiber.Ctx) error {
	keywords, err := h.svc.ListKeywords(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to list keywords")
	}
	if keywords == nil {
		keywords = []models.Keyword{}
	}
	return jsonSuccess(c, keywords)
}

// Create adds a keyword.
func (h *KeywordHandler) Create(c fiber.Ctx) error {
	var body manage.KeywordInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	k, err := h.svc.CreateKeyword(c.Context(), body)
	if err != nil {
		return storeError(c, err, "failed to create keyword")
	}
	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, k)
}

// Update changes a keyword's text or active flag.
func (h *KeywordHandler) Update(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid keyword id")
	}

	var body manage.KeywordInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	k, err := h.svc.UpdateKeyword(c.Context(), id, body)
	if err != nil {
		return storeError(c, err, "failed to update keyword")
	}
	return jsonSuccess(c, k)
}

// Delete removes a keyword.
func (h *KeywordHandler) Delete(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid keyword id")
	}

	if err := h.svc.DeleteKeyword(c.Context(), id); err != nil {
		return storeError(c, err, "failed to delete keyword")
	}
	return jsonSuccess(c, fiber.Map{
		"message": "keyword deleted successfully",
	})
}
