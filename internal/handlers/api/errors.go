package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"tweetwatch/internal/manage"
	"tweetwatch/internal/models"
)

// storeError maps service errors to JSON responses.
func storeError(c fiber.Ctx, err error, fallback string) error {
	var verr *manage.ValidationError
	switch {
	case errors.As(err, &verr):
		return jsonError(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, models.ErrKeywordNotFound),
		errors.Is(err, models.ErrRecipientNotFound),
		errors.Is(err, models.ErrMappingNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrDuplicate):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidReference):
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return jsonError(c, fiber.StatusInternalServerError, fallback)
}

func paramID(c fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
