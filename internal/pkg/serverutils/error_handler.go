package serverutils

import (
	"errors"

	"memex-be/internal/pkg/logger"
	"memex-be/pkg/search"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error returned by a handler in the response
// envelope. Client mistakes map to 400, unknown failures to 500.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		var validationErr *ValidationError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.As(err, &validationErr), errors.Is(err, search.ErrInvalidSearchType):
			code = fiber.StatusBadRequest
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("SERVER", "Request failed", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
