package domain

import (
	"time"

	"github.com/google/uuid"
)

type Reminder struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TaskID      uuid.UUID  `json:"task_id" db:"task_id"`
	Title       string     `json:"title" db:"title"`
	FireAt      time.Time  `json:"reminder_time" db:"fire_at"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	IsTriggered bool       `json:"is_triggered" db:"is_triggered"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	TaskTitle string `json:"task_title,omitempty" db:"task_title"`
	CanEdit   bool   `json:"can_edit" db:"-"`
}

type ReminderInput struct {
	TaskID uuid.UUID `json:"task_id" validate:"required"`
	Title  string    `json:"title" validate:"max=100"`
	FireAt time.Time `json:"reminder_time" validate:"required"`
}

// ReminderFilter scopes to reminders the viewer created or whose task they are assigned to,
// unless AllUsers is set. fire_at is matched against [From, To).
type ReminderFilter struct {
	ViewerID uuid.UUID
	AllUsers bool
	Search   string
	From     *time.Time
	To       *time.Time
	Page     PaginationParams
}

// DueReminder is one entry of the due-reminder poll response.
type DueReminder struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Task  string    `json:"task"`
}

type DueReminders struct {
	HasDue    bool          `json:"has_due"`
	Reminders []DueReminder `json:"reminders"`
}

// ReminderSource labels which path fired a reminder.
type ReminderSource string

const (
	ReminderSourceWrite ReminderSource = "write"
	ReminderSourcePoll  ReminderSource = "poll"
	ReminderSourceSweep ReminderSource = "sweep"
)
