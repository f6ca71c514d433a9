package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/user"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	u, err := h.userService.GetProfile(c.Context(), p)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var input domain.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	u, err := h.userService.UpdateProfile(c.Context(), p, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		return middleware.BadRequest("Avatar file is required")
	}

	f, err := header.Open()
	if err != nil {
		return middleware.BadRequest("Failed to read file")
	}
	defer f.Close()

	u, err := h.userService.SetAvatar(c.Context(), p.ID(), attachment.File{
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

	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *UserHandler) ListAssignable(c *fiber.Ctx) error {
	users, err := h.userService.ListAssignable(c.Context())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(users)
}

// List is the admin user list.
func (h *UserHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	result, err := h.userService.List(c.Context(), p, c.Query("search"), getPage(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	u, err := h.userService.Create(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(u)
}
