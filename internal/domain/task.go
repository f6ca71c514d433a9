package domain

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedBy   uuid.UUID  `json:"created_by" db:"created_by"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Creator    *UserSummary  `json:"creator,omitempty" db:"-"`
	AssignedTo []UserSummary `json:"assigned_to" db:"-"`
	Tags       []Tag         `json:"tags" db:"-"`
	Steps      []TaskStep    `json:"steps,omitempty" db:"-"`
}

// IsAssignee reports whether userID is among the loaded assignees.
func (t *Task) IsAssignee(userID uuid.UUID) bool {
	for _, u := range t.AssignedTo {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func (t *Task) StatusLabel() string {
	if t.IsCompleted {
		return "Completed"
	}
	return "Pending"
}

type TaskStep struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TaskID      uuid.UUID  `json:"task_id" db:"task_id"`
	Title       string     `json:"title" db:"title"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" db:"assigned_to"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	Position    int        `json:"order" db:"position"`
}

type TaskStepInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	Position    int        `json:"order" validate:"min=0"`
}

type UpdateTaskStepInput struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,max=255"`
	AssignedTo  **uuid.UUID `json:"assigned_to,omitempty"`
	IsCompleted *bool       `json:"is_completed,omitempty"`
	Position    *int        `json:"order,omitempty" validate:"omitempty,min=0"`
}

// TaskInput is shared by create and edit; edit replaces assignees, tags and (when provided) steps.
type TaskInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	DueDate     *time.Time      `json:"due_date"`
	AssignedTo  []uuid.UUID     `json:"assigned_to" validate:"min=1,dive,required"`
	TagIDs      []uuid.UUID     `json:"tags" validate:"dive,required"`
	NewTags     string          `json:"new_tags"`
	Steps       []TaskStepInput `json:"steps,omitempty" validate:"dive"`
}

type TaskStatusFilter string

const (
	TaskStatusAll       TaskStatusFilter = ""
	TaskStatusCompleted TaskStatusFilter = "completed"
	TaskStatusPending   TaskStatusFilter = "pending"
)

type TaskRoleFilter string

const (
	TaskRoleAny          TaskRoleFilter = ""
	TaskRoleAssignedToMe TaskRoleFilter = "assigned_to_me"
	TaskRoleCreatedByMe  TaskRoleFilter = "created_by_me"
)

// TaskFilter narrows the task list. ViewerID scopes to created-or-assigned unless AllUsers is set.
// due_date is matched against [DueFrom, DueTo).
type TaskFilter struct {
	ViewerID uuid.UUID
	AllUsers bool
	Search   string
	Tag      string
	Status   TaskStatusFilter
	Role     TaskRoleFilter
	DueFrom  *time.Time
	DueTo    *time.Time
	Page     PaginationParams
}
