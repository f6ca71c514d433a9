package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/attachment"
)

type AttachmentHandler struct {
	attachmentService attachment.Service
}

func NewAttachmentHandler(attachmentService attachment.Service) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

func (h *AttachmentHandler) Upload(kind domain.TargetKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}

		target, err := targetFromParams(c, kind)
		if err != nil {
			return err
		}

		header, err := c.FormFile("file")
		if err != nil {
			return middleware.BadRequest("File is required")
		}

		f, err := header.Open()
		if err != nil {
			return middleware.BadRequest("Failed to read file")
		}
		defer f.Close()

		created, err := h.attachmentService.Upload(c.Context(), p, target, attachment.File{
			Upload: domain.Upload{
				FileName:    header.Filename,
				Size:        header.Size,
				ContentType: header.Header.Get(fiber.HeaderContentType),
			},
			Reader: f,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func (h *AttachmentHandler) List(kind domain.TargetKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}

		target, err := targetFromParams(c, kind)
		if err != nil {
			return err
		}

		attachments, err := h.attachmentService.List(c.Context(), p, target)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusOK).JSON(attachments)
	}
}

func (h *AttachmentHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "attachment")
	if err != nil {
		return err
	}

	if err := h.attachmentService.Delete(c.Context(), p, id); err != nil {
		return err
	}

	return noContent(c)
}
