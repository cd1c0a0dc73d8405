package http

import (
	"encoding/json"
	"fmt"

	"cv-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type CVHandler struct {
	svc *usecase.CVService
}

func NewCVHandler(svc *usecase.CVService) *CVHandler {
	return &CVHandler{svc: svc}
}

func (h *CVHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/", h.GetCV)
	r.Post("/", h.SaveCV)
	r.Put("/", h.SaveCV)
	r.Delete("/", h.DeleteCV)
	r.Get("/template", h.GetTemplate)
	r.Put("/section/:section", h.UpdateSection)
	r.Post("/section/:section", h.AddItem)
	r.Put("/section/:section/:itemId", h.UpdateItem)
	r.Delete("/section/:section/:itemId", h.RemoveItem)
}

func (h *CVHandler) GetCV(c *fiber.Ctx) error {
	return ok(c, "", h.svc.GetDocument(c.UserContext(), SessionID(c)))
}

func (h *CVHandler) SaveCV(c *fiber.Ctx) error {
	doc, err := h.svc.ReplaceDocument(c.UserContext(), SessionID(c), c.Body())
	if err != nil {
		return err
	}
	return ok(c, "CV saved successfully", doc)
}

func (h *CVHandler) DeleteCV(c *fiber.Ctx) error {
	h.svc.DeleteDocument(c.UserContext(), SessionID(c))
	return ok(c, "CV deleted successfully", nil)
}

func (h *CVHandler) GetTemplate(c *fiber.Ctx) error {
	return ok(c, "", h.svc.EmptyTemplate())
}

func (h *CVHandler) UpdateSection(c *fiber.Ctx) error {
	section := c.Params("section")
	doc, err := h.svc.UpdateSection(c.UserContext(), SessionID(c), section, json.RawMessage(c.Body()))
	if err != nil {
		return err
	}
	return ok(c, fmt.Sprintf("%s updated successfully", section), doc)
}

func (h *CVHandler) AddItem(c *fiber.Ctx) error {
	section := c.Params("section")
	fields, err := usecase.ItemFields(c.Body())
	if err != nil {
		return err
	}
	item, err := h.svc.AddItem(c.UserContext(), SessionID(c), section, fields)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, fmt.Sprintf("Item added to %s successfully", section), item)
}

func (h *CVHandler) UpdateItem(c *fiber.Ctx) error {
	patch, err := usecase.ItemFields(c.Body())
	if err != nil {
		return err
	}
	item, err := h.svc.UpdateItem(c.UserContext(), SessionID(c), c.Params("section"), c.Params("itemId"), patch)
	if err != nil {
		return err
	}
	return ok(c, "Item updated successfully", item)
}

func (h *CVHandler) RemoveItem(c *fiber.Ctx) error {
	if err := h.svc.RemoveItem(c.UserContext(), SessionID(c), c.Params("section"), c.Params("itemId")); err != nil {
		return err
	}
	return ok(c, "Item removed successfully", nil)
}
