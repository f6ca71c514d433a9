package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/service/notification"
)

type NotificationHandler struct {
	notifService notification.Service
}

func NewNotificationHandler(notifService notification.Service) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	result, err := h.notifService.List(c.Context(), p.ID(), notification.ListInput{
		Status:    domain.ReadStatus(c.Query("status")),
		Category:  domain.NotificationCategory(c.Query("category")),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Page:      getPage(c),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// Poll reports whether notifications arrived since the previous poll.
func (h *NotificationHandler) Poll(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	result, err := h.notifService.Poll(c.Context(), p.ID())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	count, err := h.notifService.GetUnreadCount(c.Context(), p.ID())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": count,
	})
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	notifID, err := parseID(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notifService.MarkAsRead(c.Context(), p.ID(), notifID); err != nil {
		return err
	}

	return noContent(c)
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.notifService.MarkAllAsRead(c.Context(), p.ID()); err != nil {
		return err
	}

	return noContent(c)
}
