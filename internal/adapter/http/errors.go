package http

import (
	"errors"
	"log/slog"
	"runtime/debug"

	"cv-builder/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler maps handler errors onto the response envelope. Details of
// unexpected errors are only exposed when production is false.
func NewErrorHandler(production bool, log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		resp := ErrorResponse{Message: "Internal server error"}

		var fe *fiber.Error
		if appErr, ok := apperror.As(err); ok {
			code = appErr.Code
			resp.Message = appErr.Message
			resp.Errors = appErr.Errors
			if appErr.Err != nil && !production {
				resp.Error = appErr.Err.Error()
			}
		} else if errors.As(err, &fe) {
			code = fe.Code
			resp.Message = fe.Message
		} else if !production {
			resp.Error = err.Error()
			resp.Stack = string(debug.Stack())
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"session", SessionID(c),
				"status", code,
				"error", err,
			)
		}
		return c.Status(code).JSON(resp)
	}
}

// NotFound answers routes that matched nothing.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Message: "Route " + c.OriginalURL() + " not found",
	})
}
