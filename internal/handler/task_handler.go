package handler

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/task"
)

type TaskHandler struct {
	taskService task.Service
}

func NewTaskHandler(taskService task.Service) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	result, err := h.taskService.List(c.Context(), p, task.ListInput{
		Search:    c.Query("search"),
		Tag:       c.Query("tag"),
		Status:    domain.TaskStatusFilter(c.Query("status")),
		Role:      domain.TaskRoleFilter(c.Query("role")),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Page:      getPage(c),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "task")
	if err != nil {
		return err
	}

	t, err := h.taskService.GetByID(c.Context(), p, id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(t)
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var input domain.TaskInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	t, err := h.taskService.Create(c.Context(), p, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *TaskHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "task")
	if err != nil {
		return err
	}

	var input domain.TaskInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	t, err := h.taskService.Update(c.Context(), p, id, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(t)
}

func (h *TaskHandler) Complete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "task")
	if err != nil {
		return err
	}

	t, err := h.taskService.Complete(c.Context(), p, id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(t)
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "task")
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Context(), p, id); err != nil {
		return err
	}

	return noContent(c)
}

func (h *TaskHandler) AddStep(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	taskID, err := parseID(c, "id", "task")
	if err != nil {
		return err
	}

	var input domain.TaskStepInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	step, err := h.taskService.AddStep(c.Context(), p, taskID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

func (h *TaskHandler) UpdateStep(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	stepID, err := parseID(c, "stepId", "step")
	if err != nil {
		return err
	}

	var input domain.UpdateTaskStepInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	step, err := h.taskService.UpdateStep(c.Context(), p, stepID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(step)
}

func (h *TaskHandler) DeleteStep(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	stepID, err := parseID(c, "stepId", "step")
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteStep(c.Context(), p, stepID); err != nil {
		return err
	}

	return noContent(c)
}
