package domain

import (
	"time"

	"github.com/google/uuid"
)

type ComplaintType string

const (
	ComplaintIT             ComplaintType = "IT Support"
	ComplaintHR             ComplaintType = "Human Resources"
	ComplaintFacility       ComplaintType = "Facility Management"
	ComplaintPayroll        ComplaintType = "Payroll/Finance"
	ComplaintOperations     ComplaintType = "Operations"
	ComplaintCompliance     ComplaintType = "Compliance"
	ComplaintSoftware       ComplaintType = "Software Issue"
	ComplaintFeatureRequest ComplaintType = "Feature Request"
	ComplaintOther          ComplaintType = "Other"
)

var ComplaintTypes = []ComplaintType{
	ComplaintIT, ComplaintHR, ComplaintFacility, ComplaintPayroll, ComplaintOperations,
	ComplaintCompliance, ComplaintSoftware, ComplaintFeatureRequest, ComplaintOther,
}

func (t ComplaintType) IsValid() bool {
	for _, v := range ComplaintTypes {
		if v == t {
			return true
		}
	}
	return false
}

type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "Pending"
	ComplaintInProgress ComplaintStatus = "In Progress"
	ComplaintResolved   ComplaintStatus = "Resolved"
)

func (s ComplaintStatus) IsValid() bool {
	switch s {
	case ComplaintPending, ComplaintInProgress, ComplaintResolved:
		return true
	default:
		return false
	}
}

type Complaint struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	ComplaintType ComplaintType   `json:"complaint_type" db:"complaint_type"`
	Subject       string          `json:"subject" db:"subject"`
	Message       string          `json:"message" db:"message"`
	Status        ComplaintStatus `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Owner *UserSummary `json:"user,omitempty" db:"-"`
	Tags  []Tag        `json:"tags" db:"-"`
}

type CreateComplaintInput struct {
	ComplaintType ComplaintType `json:"complaint_type" validate:"omitempty,complaint_type"`
	Subject       string        `json:"subject" validate:"required,max=200"`
	Message       string        `json:"message" validate:"required"`
	TagIDs        []uuid.UUID   `json:"tags" validate:"dive,required"`
}

type UpdateComplaintInput struct {
	ComplaintType *ComplaintType   `json:"complaint_type,omitempty" validate:"omitempty,complaint_type"`
	Subject       *string          `json:"subject,omitempty" validate:"omitempty,max=200"`
	Message       *string          `json:"message,omitempty" validate:"omitempty,min=1"`
	Status        *ComplaintStatus `json:"status,omitempty" validate:"omitempty,oneof=Pending 'In Progress' Resolved"`
	TagIDs        *[]uuid.UUID     `json:"tags,omitempty"`
}

type ComplaintFilter struct {
	ViewerID uuid.UUID
	AllUsers bool
	Search   string
	Status   ComplaintStatus
	Type     ComplaintType
	Tag      string
	Page     PaginationParams
}

type ComplaintStats struct {
	Total      int64 `json:"total" db:"total"`
	Pending    int64 `json:"pending" db:"pending"`
	InProgress int64 `json:"in_progress" db:"in_progress"`
	Resolved   int64 `json:"resolved" db:"resolved"`
}
