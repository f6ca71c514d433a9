package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/service/export"
)

type ExportHandler struct {
	exportSvc export.Service
}

func NewExportHandler(exportSvc export.Service) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

func (h *ExportHandler) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	history, err := h.exportSvc.History(c.Context(), p)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(history)
}

func (h *ExportHandler) ExportCSV(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.exportSvc.WriteCSV(c.Context(), p, &buf); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="history_log.csv"`)
	c.Set(fiber.HeaderContentType, "text/csv")

	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
