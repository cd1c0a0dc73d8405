package http

import (
	"time"

	"cv-builder/internal/model"
	"cv-builder/internal/session"

	"github.com/gofiber/fiber/v2"
)

type SystemHandler struct {
	store   session.Store
	started time.Time
	env     string
}

func NewSystemHandler(store session.Store, env string) *SystemHandler {
	return &SystemHandler{store: store, started: time.Now(), env: env}
}

func (h *SystemHandler) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":     "CV Builder API",
		"version":     "1.0.0",
		"description": "Session-based CV builder with HTML and PDF export",
		"endpoints": fiber.Map{
			"cv": fiber.Map{
				"GET /api/cv":                             "Get current CV",
				"POST /api/cv":                            "Save CV",
				"PUT /api/cv":                             "Save CV",
				"DELETE /api/cv":                          "Delete CV",
				"GET /api/cv/template":                    "Get empty CV template",
				"PUT /api/cv/section/:section":            "Replace a section",
				"POST /api/cv/section/:section":           "Add item to section",
				"PUT /api/cv/section/:section/:itemId":    "Update section item",
				"DELETE /api/cv/section/:section/:itemId": "Remove section item",
			},
			"export": fiber.Map{
				"GET /api/export/templates":      "List templates",
				"GET /api/export/preview":        "Preview CV as HTML",
				"GET /api/export/pdf":            "Download CV as PDF",
				"POST /api/export/share":         "Create a share link",
				"GET /api/export/share/:shareId": "View shared CV",
			},
			"health": "/health",
		},
	})
}

// Health reports storage status. A degraded store still answers 200 since
// requests keep working on the fallback.
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()
	redis := h.store.Health(ctx)
	status := "OK"
	if !redis.Connected {
		status = "Degraded"
	}
	return c.JSON(fiber.Map{
		"status":      status,
		"timestamp":   model.FormatTime(time.Now()),
		"uptime":      int(time.Since(h.started).Seconds()),
		"redis":       redis,
		"sessions":    h.store.Stats(ctx),
		"environment": h.env,
	})
}
