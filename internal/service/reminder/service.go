package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/i18n"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/pkg/metrics"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
	"taskdesk/internal/service/cache"
	"taskdesk/internal/service/email"
	"taskdesk/internal/service/notification"
)

const sweepBatch = 200

// Kicker wakes the outbox dispatcher after a reminder queued an email.
type Kicker interface {
	Kick()
}

type ListInput struct {
	Search    string
	StartDate string
	EndDate   string
	Page      int
}

type Options struct {
	Locale   string
	Location *time.Location
}

type Service interface {
	Create(ctx context.Context, actor *domain.Principal, input domain.ReminderInput) (*domain.Reminder, error)
	Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.ReminderInput) (*domain.Reminder, error)
	Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error
	GetByID(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Reminder, error)
	List(ctx context.Context, actor *domain.Principal, input ListInput) (domain.PaginatedResponse[domain.Reminder], error)

	// OnSaved runs right after a reminder write, inside the writer's transaction, and fires the
	// reminder when it is due. It reports whether this call fired it.
	OnSaved(ctx context.Context, repos *repository.Repositories, reminder *domain.Reminder, created bool) (bool, error)
	// CheckDue fires the caller's due reminders and returns the ones this call fired.
	CheckDue(ctx context.Context, actor *domain.Principal) (*domain.DueReminders, error)
	// Sweep fires due reminders of every user.
	Sweep(ctx context.Context) (int, error)
}

type service struct {
	repos    *repository.Repositories
	notifier notification.Service
	emailSvc email.Service
	kicker   Kicker
	cache    *cache.Cache
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repos *repository.Repositories, notifier notification.Service, emailSvc email.Service, kicker Kicker, c *cache.Cache, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &service{
		repos:    repos,
		notifier: notifier,
		emailSvc: emailSvc,
		kicker:   kicker,
		cache:    c,
		opts:     opts,
		log:      logger.WithModule("reminder"),
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, actor *domain.Principal, input domain.ReminderInput) (*domain.Reminder, error) {
	task, err := s.validate(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	creator := actor.ID()
	reminder := &domain.Reminder{
		ID:        uuid.New(),
		TaskID:    task.ID,
		Title:     strings.TrimSpace(input.Title),
		FireAt:    input.FireAt.UTC(),
		CreatedBy: &creator,
	}

	var fired bool
	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Reminder.Create(ctx, reminder); err != nil {
			return err
		}
		var saveErr error
		fired, saveErr = s.OnSaved(ctx, tx, reminder, true)
		return saveErr
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, domain.ReminderSourceWrite, boolCount(fired))
	reminder.IsTriggered = fired
	reminder.TaskTitle = task.Title
	reminder.CanEdit = true
	return reminder, nil
}

func (s *service) Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.ReminderInput) (*domain.Reminder, error) {
	reminder, err := s.repos.Reminder.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.ReminderEdit(actor, reminder); err != nil {
		return nil, err
	}

	task, err := s.validate(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	reminder.TaskID = task.ID
	reminder.Title = strings.TrimSpace(input.Title)
	reminder.FireAt = input.FireAt.UTC()
	reminder.IsTriggered = false

	var fired bool
	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Reminder.Update(ctx, reminder); err != nil {
			return err
		}
		var saveErr error
		fired, saveErr = s.OnSaved(ctx, tx, reminder, false)
		return saveErr
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, domain.ReminderSourceWrite, boolCount(fired))
	reminder.IsTriggered = fired
	reminder.TaskTitle = task.Title
	reminder.CanEdit = true
	return reminder, nil
}

func (s *service) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error {
	reminder, err := s.repos.Reminder.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.ReminderEdit(actor, reminder); err != nil {
		return err
	}
	if err := s.repos.Reminder.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, "dashboard:*")
	return nil
}

func (s *service) GetByID(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Reminder, error) {
	reminder, err := s.repos.Reminder.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assignees, err := s.repos.Task.AssigneeIDs(ctx, reminder.TaskID)
	if err != nil {
		return nil, err
	}
	if err := access.Reminder(actor, reminder, assignees); err != nil {
		return nil, err
	}
	reminder.CanEdit = access.CanEditReminder(actor, reminder)
	return reminder, nil
}

func (s *service) List(ctx context.Context, actor *domain.Principal, input ListInput) (domain.PaginatedResponse[domain.Reminder], error) {
	from, to, err := domain.ParseDateRange(input.StartDate, input.EndDate, s.opts.Location)
	if err != nil {
		return domain.PaginatedResponse[domain.Reminder]{}, err
	}

	params := domain.FixedPage(input.Page)
	reminders, total, err := s.repos.Reminder.List(ctx, domain.ReminderFilter{
		ViewerID: actor.ID(),
		AllUsers: actor.IsSuperuser(),
		Search:   input.Search,
		From:     from,
		To:       to,
		Page:     params,
	})
	if err != nil {
		return domain.PaginatedResponse[domain.Reminder]{}, err
	}
	for i := range reminders {
		reminders[i].CanEdit = access.CanEditReminder(actor, &reminders[i])
	}
	return domain.NewPaginatedResponse(reminders, params.Page, params.PageSize, total), nil
}

func (s *service) OnSaved(ctx context.Context, repos *repository.Repositories, reminder *domain.Reminder, created bool) (bool, error) {
	if !created && reminder.IsTriggered {
		return false, nil
	}
	if reminder.FireAt.After(s.now()) {
		return false, nil
	}
	return s.fire(ctx, repos, reminder.ID)
}

func (s *service) CheckDue(ctx context.Context, actor *domain.Principal) (*domain.DueReminders, error) {
	due, err := s.repos.Reminder.ListDueForUser(ctx, actor.ID(), s.now())
	if err != nil {
		return nil, err
	}

	result := &domain.DueReminders{Reminders: []domain.DueReminder{}}
	for _, r := range due {
		fired, err := s.fire(ctx, s.repos, r.ID)
		if err != nil {
			return nil, err
		}
		if !fired {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.TaskTitle
		}
		result.Reminders = append(result.Reminders, domain.DueReminder{ID: r.ID, Title: title, Task: r.TaskTitle})
	}

	result.HasDue = len(result.Reminders) > 0
	s.afterWrite(ctx, domain.ReminderSourcePoll, len(result.Reminders))
	return result, nil
}

func (s *service) Sweep(ctx context.Context) (int, error) {
	due, err := s.repos.Reminder.ListDue(ctx, s.now(), sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	var (
		count int
		errs  error
	)
	for _, r := range due {
		fired, err := s.fire(ctx, s.repos, r.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reminder %s: %w", r.ID, err))
			continue
		}
		if fired {
			count++
		}
	}

	s.afterWrite(ctx, domain.ReminderSourceSweep, count)
	return count, errs
}

// fire flips the reminder with a compare-and-set and, only when this call won, notifies the
// task creator in the same transaction.
func (s *service) fire(ctx context.Context, repos *repository.Repositories, id uuid.UUID) (bool, error) {
	var fired bool
	err := repos.WithTx(ctx, func(tx *repository.Repositories) error {
		won, err := tx.Reminder.MarkTriggered(ctx, id, s.now())
		if err != nil || !won {
			return err
		}

		reminder, err := tx.Reminder.GetByID(ctx, id)
		if err != nil {
			return err
		}
		task, err := tx.Task.GetByID(ctx, reminder.TaskID)
		if err != nil {
			return err
		}

		taskID := task.ID
		_, err = s.notifier.Notify(ctx, tx, notification.Notice{
			UserID:    task.CreatedBy,
			Category:  domain.CategoryReminder,
			Message:   i18n.Format(s.opts.Locale, "reminder.notification", task.Title),
			RelatedID: &taskID,
			Email: func(recipient *domain.User) (email.Content, error) {
				return s.emailSvc.ReminderDue(recipient, task.Title)
			},
		})
		if err != nil {
			return err
		}
		fired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return fired, nil
}

func (s *service) afterWrite(ctx context.Context, source domain.ReminderSource, fired int) {
	s.cache.Invalidate(ctx, "dashboard:*")
	if fired == 0 {
		return
	}
	metrics.RemindersTriggered.WithLabelValues(string(source)).Add(float64(fired))
	s.log.Info("reminders fired", zap.String("source", string(source)), zap.Int("count", fired))
	if s.kicker != nil {
		s.kicker.Kick()
	}
}

func (s *service) validate(ctx context.Context, actor *domain.Principal, input domain.ReminderInput) (*domain.Task, error) {
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}

	task, err := s.repos.Task.GetByID(ctx, input.TaskID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, pkgvalidator.Field("task_id", "exists")
	}
	if err != nil {
		return nil, err
	}
	if err := access.Task(actor, task); err != nil {
		return nil, err
	}

	if !actor.IsSuperuser() && !input.FireAt.After(s.now()) {
		return nil, pkgvalidator.Field("reminder_time", "future")
	}
	return task, nil
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
