package domain

import (
	"time"

	"github.com/google/uuid"
)

type HistoryKind string

const (
	HistoryTask      HistoryKind = "Task"
	HistoryComplaint HistoryKind = "Complaint"
	HistoryReminder  HistoryKind = "Reminder"
)

// HistoryEntry is one row of the caller's activity history and of the CSV export.
type HistoryEntry struct {
	Kind   HistoryKind `json:"type"`
	ID     uuid.UUID   `json:"id"`
	Title  string      `json:"title"`
	Status string      `json:"status"`
	At     time.Time   `json:"date"`
}

type History struct {
	Tasks      []Task      `json:"tasks"`
	Complaints []Complaint `json:"complaints"`
	Reminders  []Reminder  `json:"reminders"`
}
