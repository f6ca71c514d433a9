package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/service/dashboard"
)

type DashboardHandler struct {
	dashboardService dashboard.Service
}

func NewDashboardHandler(dashboardService dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	stats, err := h.dashboardService.GetStats(c.Context(), p)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}
