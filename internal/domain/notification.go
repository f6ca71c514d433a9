package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationCategory string

const (
	CategoryTask      NotificationCategory = "task"
	CategoryComplaint NotificationCategory = "complaint"
	CategoryReminder  NotificationCategory = "reminder"
	CategorySystem    NotificationCategory = "system"
)

func (c NotificationCategory) IsValid() bool {
	switch c {
	case CategoryTask, CategoryComplaint, CategoryReminder, CategorySystem:
		return true
	default:
		return false
	}
}

type Notification struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	UserID    uuid.UUID            `json:"user_id" db:"user_id"`
	Message   string               `json:"message" db:"message"`
	Category  NotificationCategory `json:"category" db:"category"`
	RelatedID *uuid.UUID           `json:"related_id,omitempty" db:"related_id"`
	SendEmail bool                 `json:"send_email" db:"send_email"`
	IsRead    bool                 `json:"is_read" db:"is_read"`
	IsPopped  bool                 `json:"is_popped" db:"is_popped"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

type ReadStatus string

const (
	ReadStatusAll    ReadStatus = "all"
	ReadStatusUnread ReadStatus = "unread"
	ReadStatusRead   ReadStatus = "read"
)

// NotificationFilter is always scoped to a single user. created_at is matched against [From, To).
type NotificationFilter struct {
	UserID   uuid.UUID
	Status   ReadStatus
	Category NotificationCategory
	From     *time.Time
	To       *time.Time
	Page     PaginationParams
}

type NotificationPage struct {
	PaginatedResponse[Notification]
	UnreadCount int64 `json:"unread_count"`
}

// NotificationPoll is the payload of the new-notification poll.
type NotificationPoll struct {
	HasNew   bool                 `json:"has_new"`
	Count    int64                `json:"count,omitempty"`
	Title    string               `json:"title,omitempty"`
	Message  string               `json:"message,omitempty"`
	Category NotificationCategory `json:"category,omitempty"`
}

const PollTitleLength = 50

// PollTitle truncates message to PollTitleLength runes.
func PollTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= PollTitleLength {
		return message
	}
	return string(runes[:PollTitleLength])
}
