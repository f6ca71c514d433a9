package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/reminder"
)

type ReminderHandler struct {
	reminderService reminder.Service
}

func NewReminderHandler(reminderService reminder.Service) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

func (h *ReminderHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	result, err := h.reminderService.List(c.Context(), p, reminder.ListInput{
		Search:    c.Query("search"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Page:      getPage(c),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ReminderHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "reminder")
	if err != nil {
		return err
	}

	r, err := h.reminderService.GetByID(c.Context(), p, id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(r)
}

func (h *ReminderHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var input domain.ReminderInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	r, err := h.reminderService.Create(c.Context(), p, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(r)
}

func (h *ReminderHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "reminder")
	if err != nil {
		return err
	}

	var input domain.ReminderInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	r, err := h.reminderService.Update(c.Context(), p, id, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(r)
}

func (h *ReminderHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "reminder")
	if err != nil {
		return err
	}

	if err := h.reminderService.Delete(c.Context(), p, id); err != nil {
		return err
	}

	return noContent(c)
}

// Due is polled by the page layer; it fires the caller's due reminders.
func (h *ReminderHandler) Due(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	due, err := h.reminderService.CheckDue(c.Context(), p)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(due)
}
