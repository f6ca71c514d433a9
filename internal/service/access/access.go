// Package access holds the ownership, assignment and superuser rules applied by every service.
package access

import (
	"github.com/google/uuid"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/metrics"
)

const (
	ResourceTask       = "task"
	ResourceComplaint  = "complaint"
	ResourceReminder   = "reminder"
	ResourceComment    = "comment"
	ResourceUser       = "user"
	ResourceTag        = "tag"
	ResourceAttachment = "attachment"
	ResourceAudit      = "audit"
)

func deny(resource string) error {
	metrics.PermissionDenials.WithLabelValues(resource).Inc()
	return domain.ErrForbidden
}

// Superuser allows only superusers.
func Superuser(p *domain.Principal, resource string) error {
	if p.IsSuperuser() {
		return nil
	}
	return deny(resource)
}

// Task allows the creator, any assignee and superusers. The task must have its assignees loaded.
func Task(p *domain.Principal, task *domain.Task) error {
	if p.IsSuperuser() || task.CreatedBy == p.ID() || task.IsAssignee(p.ID()) {
		return nil
	}
	return deny(ResourceTask)
}

// TaskOwner allows only the creator and superusers.
func TaskOwner(p *domain.Principal, task *domain.Task) error {
	if p.IsSuperuser() || task.CreatedBy == p.ID() {
		return nil
	}
	return deny(ResourceTask)
}

// Complaint allows the owner and superusers to read and comment.
func Complaint(p *domain.Principal, complaint *domain.Complaint) error {
	if p.IsSuperuser() || complaint.UserID == p.ID() {
		return nil
	}
	return deny(ResourceComplaint)
}

// Reminder allows the reminder's creator, assignees of its task and superusers.
func Reminder(p *domain.Principal, reminder *domain.Reminder, taskAssignees []uuid.UUID) error {
	if p.IsSuperuser() || isCreator(p, reminder) {
		return nil
	}
	for _, id := range taskAssignees {
		if id == p.ID() {
			return nil
		}
	}
	return deny(ResourceReminder)
}

// CanEditReminder reports whether p may edit or delete the reminder.
func CanEditReminder(p *domain.Principal, reminder *domain.Reminder) bool {
	return p.IsSuperuser() || isCreator(p, reminder)
}

func ReminderEdit(p *domain.Principal, reminder *domain.Reminder) error {
	if CanEditReminder(p, reminder) {
		return nil
	}
	return deny(ResourceReminder)
}

// CommentAuthor allows the author and superusers.
func CommentAuthor(p *domain.Principal, comment *domain.Comment) error {
	if p.IsSuperuser() || comment.UserID == p.ID() {
		return nil
	}
	return deny(ResourceComment)
}

func isCreator(p *domain.Principal, reminder *domain.Reminder) bool {
	return reminder.CreatedBy != nil && *reminder.CreatedBy == p.ID()
}

// Uploader allows the uploader of an attachment and superusers to remove it.
func Uploader(p *domain.Principal, attachment *domain.Attachment) error {
	if p.IsSuperuser() || (attachment.UploadedBy != nil && *attachment.UploadedBy == p.ID()) {
		return nil
	}
	return deny(ResourceAttachment)
}
