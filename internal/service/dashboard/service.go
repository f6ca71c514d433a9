package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/cache"
)

const (
	statsTTL       = 5 * time.Minute
	upcomingWindow = 7 * 24 * time.Hour
)

type Stats struct {
	TotalTasks        int64                  `json:"total_tasks"`
	CompletedTasks    int64                  `json:"completed_tasks"`
	PendingTasks      int64                  `json:"pending_tasks"`
	CreatedByMe       int64                  `json:"created_by_me"`
	AssignedToMe      int64                  `json:"assigned_to_me"`
	TaskProgress      int                    `json:"task_progress"`
	UpcomingReminders int64                  `json:"upcoming_reminders"`
	Complaints        *domain.ComplaintStats `json:"complaints"`
	ComplaintProgress int                    `json:"complaint_progress"`
	UnreadCount       int64                  `json:"notifications_unread"`
}

type Service interface {
	GetStats(ctx context.Context, actor *domain.Principal) (*Stats, error)
}

type service struct {
	repos *repository.Repositories
	cache *cache.Cache
	now   func() time.Time
}

func NewService(repos *repository.Repositories, c *cache.Cache) Service {
	return &service{
		repos: repos,
		cache: c,
		now:   time.Now,
	}
}

// GetStats serves task, reminder and complaint figures from cache for a few minutes.
// The unread count is always read live.
func (s *service) GetStats(ctx context.Context, actor *domain.Principal) (*Stats, error) {
	cacheKey := "dashboard:" + actor.ID().String()

	var stats Stats
	if !s.cache.Get(ctx, cacheKey, &stats) {
		computed, err := s.compute(ctx, actor)
		if err != nil {
			return nil, err
		}
		stats = *computed
		s.cache.Set(ctx, cacheKey, stats, statsTTL)
	}

	unread, err := s.repos.Notification.CountUnread(ctx, actor.ID())
	if err != nil {
		return nil, err
	}
	stats.UnreadCount = unread
	return &stats, nil
}

func (s *service) compute(ctx context.Context, actor *domain.Principal) (*Stats, error) {
	tasks, err := s.repos.Task.Stats(ctx, actor.ID())
	if err != nil {
		return nil, err
	}

	now := s.now()
	upcoming, err := s.repos.Reminder.CountUpcomingAssigned(ctx, actor.ID(), now, now.Add(upcomingWindow))
	if err != nil {
		return nil, err
	}

	// superusers see every complaint
	var owner *uuid.UUID
	if !actor.IsSuperuser() {
		id := actor.ID()
		owner = &id
	}
	complaints, err := s.repos.Complaint.Stats(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalTasks:        tasks.Total,
		CompletedTasks:    tasks.Completed,
		PendingTasks:      tasks.Total - tasks.Completed,
		CreatedByMe:       tasks.CreatedByMe,
		AssignedToMe:      tasks.AssignedToMe,
		TaskProgress:      percent(tasks.Completed, tasks.Total),
		UpcomingReminders: upcoming,
		Complaints:        complaints,
		ComplaintProgress: percent(complaints.Resolved, complaints.Total),
	}, nil
}

func percent(part, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
