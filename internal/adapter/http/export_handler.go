package http

import (
	"cv-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type ExportHandler struct {
	exporter *usecase.Exporter
	cv       *usecase.CVService
}

func NewExportHandler(e *usecase.Exporter, cv *usecase.CVService) *ExportHandler {
	return &ExportHandler{exporter: e, cv: cv}
}

// RegisterRoutes mounts the export endpoints. Shared snapshots are public,
// so only the session-bound routes go through the session middleware.
func (h *ExportHandler) RegisterRoutes(r fiber.Router, session fiber.Handler) {
	r.Get("/templates", h.Templates)
	r.Get("/share/:shareId", h.ViewShared)
	r.Get("/preview", session, h.Preview)
	r.Get("/pdf", session, h.PDF)
	r.Post("/share", session, h.Share)
}

func (h *ExportHandler) Templates(c *fiber.Ctx) error {
	return ok(c, "", h.exporter.Templates())
}

func (h *ExportHandler) Preview(c *fiber.Ctx) error {
	doc := h.cv.GetDocument(c.UserContext(), SessionID(c))
	html, err := h.exporter.HTML(doc, c.Query("template"))
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(html)
}

func (h *ExportHandler) PDF(c *fiber.Ctx) error {
	doc := h.cv.GetDocument(c.UserContext(), SessionID(c))
	pdf, err := h.exporter.PDF(c.UserContext(), doc, c.Query("template"))
	if err != nil {
		return err
	}
	c.Attachment("cv.pdf")
	c.Type("pdf")
	return c.Send(pdf)
}

type shareReq struct {
	Template string `json:"template"`
}

func (h *ExportHandler) Share(c *fiber.Ctx) error {
	var req shareReq
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
	}
	doc := h.cv.GetDocument(c.UserContext(), SessionID(c))
	snap, err := h.exporter.Share(c.UserContext(), doc, req.Template)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Share link created", fiber.Map{
		"shareId":  snap.ID.String(),
		"template": snap.Template,
		"url":      c.BaseURL() + "/api/export/share/" + snap.ID.String(),
	})
}

func (h *ExportHandler) ViewShared(c *fiber.Ctx) error {
	html, err := h.exporter.SharedHTML(c.UserContext(), c.Params("shareId"))
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(html)
}
