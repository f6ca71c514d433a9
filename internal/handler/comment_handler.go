package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/comment"
)

type CommentHandler struct {
	commentService comment.Service
}

func NewCommentHandler(commentService comment.Service) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// targetFromParams reads the parent task or complaint id from the ":id" route param.
func targetFromParams(c *fiber.Ctx, kind domain.TargetKind) (domain.CommentTarget, error) {
	id, err := parseID(c, "id", string(kind))
	if err != nil {
		return domain.CommentTarget{}, err
	}
	return domain.CommentTarget{Kind: kind, ID: id}, nil
}

func (h *CommentHandler) List(kind domain.TargetKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}

		target, err := targetFromParams(c, kind)
		if err != nil {
			return err
		}

		comments, err := h.commentService.List(c.Context(), p, target)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusOK).JSON(comments)
	}
}

func (h *CommentHandler) Create(kind domain.TargetKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}

		target, err := targetFromParams(c, kind)
		if err != nil {
			return err
		}

		var input domain.CreateCommentInput
		if err := c.BodyParser(&input); err != nil {
			return middleware.BadRequest("Invalid request body")
		}

		created, err := h.commentService.Create(c.Context(), p, target, input)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}

	if err := h.commentService.Delete(c.Context(), p, id); err != nil {
		return err
	}

	return noContent(c)
}
