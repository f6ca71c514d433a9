package domain

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Color       string    `json:"color" db:"color"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

const DefaultTagColor = "#FFFFFF"

type TagInput struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description,omitempty"`
	Color       string  `json:"color" validate:"omitempty,hexcolor,len=7"`
}
