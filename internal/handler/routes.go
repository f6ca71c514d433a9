package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/access"
)

func SetupRoutes(app *fiber.App, h *Handlers, authenticator middleware.Authenticator) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/login", middleware.OptionalAuth(authenticator), h.Auth.Login)

	protected := v1.Group("", middleware.AuthRequired(authenticator))

	protected.Post("/auth/logout", h.Auth.Logout)
	protected.Get("/auth/me", h.Auth.Me)
	protected.Post("/auth/change-password", h.Auth.ChangePassword)
	protected.Post("/auth/switch-back", h.Auth.SwitchBack)

	users := protected.Group("/users")
	users.Get("/me", h.User.GetProfile)
	users.Put("/me", h.User.UpdateProfile)
	users.Post("/me/avatar", h.User.UploadAvatar)
	users.Get("/assignable", h.User.ListAssignable)

	admin := protected.Group("/admin", middleware.RequireSuperuser(access.ResourceUser))
	admin.Get("/users", h.User.List)
	admin.Post("/users", h.User.Create)
	admin.Post("/users/:id/login-as", h.Auth.LoginAs)

	protected.Get("/dashboard", h.Dashboard.GetStats)

	tasks := protected.Group("/tasks")
	tasks.Get("/", h.Task.List)
	tasks.Post("/", h.Task.Create)
	tasks.Get("/:id", h.Task.Get)
	tasks.Put("/:id", h.Task.Update)
	tasks.Post("/:id/complete", h.Task.Complete)
	tasks.Delete("/:id", h.Task.Delete)
	tasks.Post("/:id/steps", h.Task.AddStep)
	tasks.Get("/:id/comments", h.Comment.List(domain.TargetTask))
	tasks.Post("/:id/comments", h.Comment.Create(domain.TargetTask))
	tasks.Get("/:id/attachments", h.Attachment.List(domain.TargetTask))
	tasks.Post("/:id/attachments", h.Attachment.Upload(domain.TargetTask))

	steps := protected.Group("/steps")
	steps.Patch("/:stepId", h.Task.UpdateStep)
	steps.Delete("/:stepId", h.Task.DeleteStep)

	tags := protected.Group("/tags")
	tags.Get("/", h.Tag.List)
	tags.Post("/", h.Tag.Create)
	tags.Get("/:id", h.Tag.Get)
	tags.Put("/:id", h.Tag.Update)
	tags.Delete("/:id", h.Tag.Delete)

	reminders := protected.Group("/reminders")
	reminders.Get("/", h.Reminder.List)
	reminders.Post("/", h.Reminder.Create)
	reminders.Get("/due", h.Reminder.Due)
	reminders.Get("/:id", h.Reminder.Get)
	reminders.Put("/:id", h.Reminder.Update)
	reminders.Delete("/:id", h.Reminder.Delete)

	complaints := protected.Group("/complaints")
	complaints.Get("/", h.Complaint.List)
	complaints.Post("/", h.Complaint.Create)
	complaints.Get("/:id", h.Complaint.Get)
	complaints.Put("/:id", h.Complaint.Update)
	complaints.Post("/:id/resolve", h.Complaint.Resolve)
	complaints.Delete("/:id", h.Complaint.Delete)
	complaints.Get("/:id/comments", h.Comment.List(domain.TargetComplaint))
	complaints.Post("/:id/comments", h.Comment.Create(domain.TargetComplaint))
	complaints.Get("/:id/attachments", h.Attachment.List(domain.TargetComplaint))
	complaints.Post("/:id/attachments", h.Attachment.Upload(domain.TargetComplaint))

	protected.Delete("/comments/:id", h.Comment.Delete)
	protected.Delete("/attachments/:id", h.Attachment.Delete)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/new", h.Notification.Poll)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)

	history := protected.Group("/history")
	history.Get("/", h.Export.History)
	history.Get("/export", h.Export.ExportCSV)

	audit := protected.Group("/audit", middleware.RequireSuperuser(access.ResourceAudit))
	audit.Get("/", h.Audit.List)
	audit.Get("/recent", h.Audit.GetRecentActivities)
	audit.Get("/:type/:id", h.Audit.ListByEntity)
}
