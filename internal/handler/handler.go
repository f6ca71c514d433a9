package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service"
)

type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Task         *TaskHandler
	Tag          *TagHandler
	Reminder     *ReminderHandler
	Complaint    *ComplaintHandler
	Comment      *CommentHandler
	Attachment   *AttachmentHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
	Audit        *AuditHandler
}

func NewHandlers(services *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(services.Auth, services.User, cfg.IsProduction()),
		User:         NewUserHandler(services.User),
		Task:         NewTaskHandler(services.Task),
		Tag:          NewTagHandler(services.Tag),
		Reminder:     NewReminderHandler(services.Reminder),
		Complaint:    NewComplaintHandler(services.Complaint),
		Comment:      NewCommentHandler(services.Comment),
		Attachment:   NewAttachmentHandler(services.Attachment),
		Notification: NewNotificationHandler(services.Notification),
		Dashboard:    NewDashboardHandler(services.Dashboard),
		Export:       NewExportHandler(services.Export),
		Audit:        NewAuditHandler(services.Audit),
	}
}

// principal returns the authenticated caller. Routes behind AuthRequired always have one.
func principal(c *fiber.Ctx) (*domain.Principal, error) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		return nil, middleware.Unauthorized("User not authenticated")
	}
	return p, nil
}

func parseID(c *fiber.Ctx, param, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid " + label + " ID")
	}
	return id, nil
}

func getPage(c *fiber.Ctx) int {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return page
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.PaginationParams{
		Page:     getPage(c),
		PageSize: c.QueryInt("page_size", 20),
	}
	params.Validate()
	return params
}

func noContent(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNoContent).SendString("")
}
