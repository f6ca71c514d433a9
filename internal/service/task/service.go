package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/i18n"
	"taskdesk/internal/pkg/logger"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/cache"
	"taskdesk/internal/service/email"
	"taskdesk/internal/service/notification"
)

type ListInput struct {
	Search    string
	Tag       string
	Status    domain.TaskStatusFilter
	Role      domain.TaskRoleFilter
	StartDate string
	EndDate   string
	Page      int
}

type Options struct {
	Locale   string
	Location *time.Location
}

type Service interface {
	List(ctx context.Context, actor *domain.Principal, input ListInput) (domain.PaginatedResponse[domain.Task], error)
	GetByID(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Task, error)
	Create(ctx context.Context, actor *domain.Principal, input domain.TaskInput) (*domain.Task, error)
	Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.TaskInput) (*domain.Task, error)
	Complete(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Task, error)
	Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error

	AddStep(ctx context.Context, actor *domain.Principal, taskID uuid.UUID, input domain.TaskStepInput) (*domain.TaskStep, error)
	UpdateStep(ctx context.Context, actor *domain.Principal, stepID uuid.UUID, input domain.UpdateTaskStepInput) (*domain.TaskStep, error)
	DeleteStep(ctx context.Context, actor *domain.Principal, stepID uuid.UUID) error
}

type service struct {
	repos       *repository.Repositories
	notifier    notification.Service
	emailSvc    email.Service
	attachments attachment.Service
	cache       *cache.Cache
	opts        Options
	log         *zap.Logger
}

func NewService(repos *repository.Repositories, notifier notification.Service, emailSvc email.Service, attachments attachment.Service, c *cache.Cache, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &service{
		repos:       repos,
		notifier:    notifier,
		emailSvc:    emailSvc,
		attachments: attachments,
		cache:       c,
		opts:        opts,
		log:         logger.WithModule("task"),
	}
}

func (s *service) List(ctx context.Context, actor *domain.Principal, input ListInput) (domain.PaginatedResponse[domain.Task], error) {
	from, to, err := domain.ParseDateRange(input.StartDate, input.EndDate, s.opts.Location)
	if err != nil {
		return domain.PaginatedResponse[domain.Task]{}, err
	}

	params := domain.FixedPage(input.Page)
	tasks, total, err := s.repos.Task.List(ctx, domain.TaskFilter{
		ViewerID: actor.ID(),
		AllUsers: actor.IsSuperuser() && input.Role == domain.TaskRoleAny,
		Search:   input.Search,
		Tag:      input.Tag,
		Status:   input.Status,
		Role:     input.Role,
		DueFrom:  from,
		DueTo:    to,
		Page:     params,
	})
	if err != nil {
		return domain.PaginatedResponse[domain.Task]{}, err
	}
	return domain.NewPaginatedResponse(tasks, params.Page, params.PageSize, total), nil
}

func (s *service) GetByID(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Task, error) {
	task, err := s.repos.Task.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Task(actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) Create(ctx context.Context, actor *domain.Principal, input domain.TaskInput) (*domain.Task, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		CreatedBy:   actor.ID(),
	}

	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Task.Create(ctx, task); err != nil {
			return err
		}
		if err := s.writeRelations(ctx, tx, task.ID, input, true); err != nil {
			return err
		}
		return s.notifyAssignees(ctx, tx, actor, task, nil, input.AssignedTo)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, "dashboard:*")
	return s.repos.Task.GetByID(ctx, task.ID)
}

// Update replaces the task's fields and relations and always reopens it.
func (s *service) Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.TaskInput) (*domain.Task, error) {
	task, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	previous := make([]uuid.UUID, 0, len(task.AssignedTo))
	for _, a := range task.AssignedTo {
		previous = append(previous, a.ID)
	}

	task.Title = strings.TrimSpace(input.Title)
	task.Description = input.Description
	task.DueDate = input.DueDate
	task.IsCompleted = false

	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Task.Update(ctx, task); err != nil {
			return err
		}
		if err := s.writeRelations(ctx, tx, task.ID, input, input.Steps != nil); err != nil {
			return err
		}
		return s.notifyAssignees(ctx, tx, actor, task, previous, input.AssignedTo)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, "dashboard:*")
	return s.repos.Task.GetByID(ctx, task.ID)
}

func (s *service) Complete(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Task, error) {
	task, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Task.SetCompleted(ctx, id, true, time.Now()); err != nil {
		return nil, err
	}
	task.IsCompleted = true
	s.cache.Invalidate(ctx, "dashboard:*")
	return task, nil
}

func (s *service) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error {
	task, err := s.repos.Task.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.TaskOwner(actor, task); err != nil {
		return err
	}

	attachments, err := s.repos.Attachment.ListByTarget(ctx, domain.CommentTarget{Kind: domain.TargetTask, ID: id})
	if err != nil {
		return err
	}
	if err := s.repos.Task.Delete(ctx, id); err != nil {
		return err
	}

	keys := make([]string, 0, len(attachments))
	for _, a := range attachments {
		keys = append(keys, a.StorageKey)
	}
	if s.attachments != nil {
		s.attachments.PurgeObjects(ctx, keys)
	}
	s.cache.Invalidate(ctx, "dashboard:*")
	s.cache.Invalidate(ctx, "comments:task:"+id.String())
	return nil
}

func (s *service) AddStep(ctx context.Context, actor *domain.Principal, taskID uuid.UUID, input domain.TaskStepInput) (*domain.TaskStep, error) {
	if _, err := s.GetByID(ctx, actor, taskID); err != nil {
		return nil, err
	}
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := s.checkStepAssignee(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	step := &domain.TaskStep{
		ID:          uuid.New(),
		TaskID:      taskID,
		Title:       strings.TrimSpace(input.Title),
		AssignedTo:  input.AssignedTo,
		IsCompleted: input.IsCompleted,
		Position:    input.Position,
	}
	if err := s.repos.Task.AddStep(ctx, step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *service) UpdateStep(ctx context.Context, actor *domain.Principal, stepID uuid.UUID, input domain.UpdateTaskStepInput) (*domain.TaskStep, error) {
	step, err := s.repos.Task.GetStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetByID(ctx, actor, step.TaskID); err != nil {
		return nil, err
	}
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}

	if input.Title != nil {
		step.Title = strings.TrimSpace(*input.Title)
	}
	if input.AssignedTo != nil {
		if err := s.checkStepAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
		step.AssignedTo = *input.AssignedTo
	}
	if input.IsCompleted != nil {
		step.IsCompleted = *input.IsCompleted
	}
	if input.Position != nil {
		step.Position = *input.Position
	}

	if err := s.repos.Task.UpdateStep(ctx, step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *service) DeleteStep(ctx context.Context, actor *domain.Principal, stepID uuid.UUID) error {
	step, err := s.repos.Task.GetStep(ctx, stepID)
	if err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, actor, step.TaskID); err != nil {
		return err
	}
	return s.repos.Task.DeleteStep(ctx, stepID)
}

func (s *service) validate(ctx context.Context, input domain.TaskInput) error {
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return err
	}

	users, err := s.repos.User.GetByIDs(ctx, input.AssignedTo)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range input.AssignedTo {
		u, ok := byID[id]
		if !ok || !u.IsActive || u.IsSuperuser {
			return pkgvalidator.Field("assigned_to", "assignable")
		}
	}

	if len(input.TagIDs) > 0 {
		n, err := s.repos.Tag.CountExisting(ctx, input.TagIDs)
		if err != nil {
			return err
		}
		if n != len(uniqueIDs(input.TagIDs)) {
			return pkgvalidator.Field("tags", "exists")
		}
	}

	for _, step := range input.Steps {
		if err := s.checkStepAssignee(ctx, step.AssignedTo); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) checkStepAssignee(ctx context.Context, userID *uuid.UUID) error {
	if userID == nil {
		return nil
	}
	_, err := s.repos.User.GetByID(ctx, *userID)
	if errors.Is(err, domain.ErrNotFound) {
		return pkgvalidator.Field("assigned_to", "exists")
	}
	return err
}

func (s *service) writeRelations(ctx context.Context, tx *repository.Repositories, taskID uuid.UUID, input domain.TaskInput, replaceSteps bool) error {
	if err := tx.Task.SetAssignees(ctx, taskID, input.AssignedTo); err != nil {
		return err
	}

	tagIDs := append([]uuid.UUID{}, input.TagIDs...)
	for _, name := range splitTags(input.NewTags) {
		tag, err := tx.Tag.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	if err := tx.Task.SetTags(ctx, taskID, tagIDs); err != nil {
		return err
	}

	if !replaceSteps {
		return nil
	}
	if err := tx.Task.DeleteSteps(ctx, taskID); err != nil {
		return err
	}
	for i, in := range input.Steps {
		position := in.Position
		if position == 0 {
			position = i + 1
		}
		step := &domain.TaskStep{
			ID:          uuid.New(),
			TaskID:      taskID,
			Title:       strings.TrimSpace(in.Title),
			AssignedTo:  in.AssignedTo,
			IsCompleted: in.IsCompleted,
			Position:    position,
		}
		if err := tx.Task.AddStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// notifyAssignees tells users who were not assigned before. The actor is never notified.
func (s *service) notifyAssignees(ctx context.Context, tx *repository.Repositories, actor *domain.Principal, task *domain.Task, previous, current []uuid.UUID) error {
	before := make(map[uuid.UUID]bool, len(previous))
	for _, id := range previous {
		before[id] = true
	}

	assigner := actor.User.FullName()
	taskID := task.ID
	for _, id := range uniqueIDs(current) {
		if before[id] || id == actor.ID() {
			continue
		}
		_, err := s.notifier.Notify(ctx, tx, notification.Notice{
			UserID:    id,
			Category:  domain.CategoryTask,
			Message:   i18n.Format(s.opts.Locale, "task.assigned.notification", task.Title),
			RelatedID: &taskID,
			Email: func(recipient *domain.User) (email.Content, error) {
				return s.emailSvc.TaskAssigned(recipient, assigner, task.Title)
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func splitTags(raw string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
