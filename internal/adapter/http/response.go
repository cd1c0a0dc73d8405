package http

import (
	"github.com/gofiber/fiber/v2"
)

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	// Error and Stack are only filled outside production.
	Error string `json:"error,omitempty"`
	Stack string `json:"stack,omitempty"`
}

func respond(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(SuccessResponse{Success: true, Message: message, Data: data})
}

func ok(c *fiber.Ctx, message string, data any) error {
	return respond(c, fiber.StatusOK, message, data)
}
