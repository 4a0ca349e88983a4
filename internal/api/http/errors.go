package httpapi

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/view"
)

// respondError renders err as a retry prompt with a status matching its kind.
func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrInvalidCity) || errors.Is(err, store.ErrInvalidTheme) {
		return badRequest(c, err)
	}

	ev := view.NewErrorView(err)

	code := fiber.StatusInternalServerError
	switch ev.Kind {
	case "invalid_input":
		code = fiber.StatusBadRequest
	case "not_found":
		code = fiber.StatusNotFound
	case "request", "decode":
		code = fiber.StatusBadGateway
	}

	log.Printf("ERROR: %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(code).JSON(ev)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(view.ErrorView{
		Error:   true,
		Kind:    "invalid_input",
		Message: err.Error(),
	})
}
