// Package export assembles a user's activity history and renders it as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

const csvTimeLayout = "02-01-2006 15:04"

var csvHeader = []string{"Type", "Title/Subject", "Status", "Date/Time"}

type Service interface {
	History(ctx context.Context, actor *domain.Principal) (*domain.History, error)
	// Entries flattens the history into tasks, then complaints, then reminders.
	Entries(ctx context.Context, actor *domain.Principal) ([]domain.HistoryEntry, error)
	WriteCSV(ctx context.Context, actor *domain.Principal, w io.Writer) error
}

type service struct {
	repos    *repository.Repositories
	location *time.Location
}

func NewService(repos *repository.Repositories, location *time.Location) Service {
	if location == nil {
		location = time.UTC
	}
	return &service{repos: repos, location: location}
}

func (s *service) History(ctx context.Context, actor *domain.Principal) (*domain.History, error) {
	tasks, err := s.repos.Task.ListCreatedBy(ctx, actor.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	complaints, err := s.repos.Complaint.ListByUser(ctx, actor.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	reminders, err := s.repos.Reminder.ListCreatedBy(ctx, actor.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	return &domain.History{
		Tasks:      tasks,
		Complaints: complaints,
		Reminders:  reminders,
	}, nil
}

// Entries lists tasks, then complaints, then reminders. Tasks and complaints come newest
// created first and reminders latest fire time first, as the repositories return them.
func (s *service) Entries(ctx context.Context, actor *domain.Principal) ([]domain.HistoryEntry, error) {
	history, err := s.History(ctx, actor)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(history.Tasks)+len(history.Complaints)+len(history.Reminders))
	for _, t := range history.Tasks {
		entries = append(entries, domain.HistoryEntry{
			Kind: domain.HistoryTask, ID: t.ID, Title: t.Title, Status: t.StatusLabel(), At: t.CreatedAt,
		})
	}
	for _, c := range history.Complaints {
		entries = append(entries, domain.HistoryEntry{
			Kind: domain.HistoryComplaint, ID: c.ID, Title: c.Subject, Status: string(c.Status), At: c.CreatedAt,
		})
	}
	for _, r := range history.Reminders {
		entries = append(entries, domain.HistoryEntry{
			Kind: domain.HistoryReminder, ID: r.ID, Title: r.Title, At: r.FireAt,
		})
	}
	return entries, nil
}

func (s *service) WriteCSV(ctx context.Context, actor *domain.Principal, w io.Writer) error {
	entries, err := s.Entries(ctx, actor)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{string(e.Kind), e.Title, e.Status, e.At.In(s.location).Format(csvTimeLayout)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
