package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"country-atlas-service/internal/apperr"
)

// StatusOf maps an error returned by a service to an HTTP status code.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(StatusOf(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
