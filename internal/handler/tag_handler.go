package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/tag"
)

type TagHandler struct {
	tagService tag.Service
}

func NewTagHandler(tagService tag.Service) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) List(c *fiber.Ctx) error {
	tags, err := h.tagService.List(c.Context())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tags)
}

func (h *TagHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "tag")
	if err != nil {
		return err
	}

	t, err := h.tagService.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(t)
}

func (h *TagHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var input domain.TagInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	t, err := h.tagService.Create(c.Context(), p, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *TagHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "tag")
	if err != nil {
		return err
	}

	var input domain.TagInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	t, err := h.tagService.Update(c.Context(), p, id, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(t)
}

func (h *TagHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "tag")
	if err != nil {
		return err
	}

	if err := h.tagService.Delete(c.Context(), p, id); err != nil {
		return err
	}

	return noContent(c)
}
