package domain

import (
	"time"

	"github.com/google/uuid"
)

// Comment belongs to exactly one of a task or a complaint.
type Comment struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	TaskID      *uuid.UUID `json:"task_id,omitempty" db:"task_id"`
	ComplaintID *uuid.UUID `json:"complaint_id,omitempty" db:"complaint_id"`
	ParentID    *uuid.UUID `json:"parent_id" db:"parent_id"`
	Content     string     `json:"content" db:"content"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Username string    `json:"username" db:"username"`
	Replies  []Comment `json:"replies,omitempty" db:"-"`
}

type CreateCommentInput struct {
	ParentID *uuid.UUID `json:"parent_id"`
	Content  string     `json:"content" validate:"required,min=1,max=2000"`
}

// CommentTarget names the parent object of a comment thread or attachment list.
type CommentTarget struct {
	Kind TargetKind
	ID   uuid.UUID
}

type TargetKind string

const (
	TargetTask      TargetKind = "task"
	TargetComplaint TargetKind = "complaint"
)

// BuildCommentTree nests replies under their parents, keeping the input order at each level.
func BuildCommentTree(flat []Comment) []Comment {
	children := make(map[uuid.UUID][]Comment)
	var roots []Comment
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var attach func(c Comment) Comment
	attach = func(c Comment) Comment {
		for _, child := range children[c.ID] {
			c.Replies = append(c.Replies, attach(child))
		}
		return c
	}

	out := make([]Comment, 0, len(roots))
	for _, r := range roots {
		out = append(out, attach(r))
	}
	return out
}
