package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/i18n"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
	"taskdesk/internal/service/cache"
	"taskdesk/internal/service/notification"
)

const threadTTL = 10 * time.Minute

type Service interface {
	Create(ctx context.Context, actor *domain.Principal, target domain.CommentTarget, input domain.CreateCommentInput) (*domain.Comment, error)
	// List returns the thread of target as a tree of root comments with nested replies.
	List(ctx context.Context, actor *domain.Principal, target domain.CommentTarget) ([]domain.Comment, error)
	Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error
}

type service struct {
	repos    *repository.Repositories
	notifier notification.Service
	cache    *cache.Cache
	locale   string
}

func NewService(repos *repository.Repositories, notifier notification.Service, c *cache.Cache, locale string) Service {
	return &service{
		repos:    repos,
		notifier: notifier,
		cache:    c,
		locale:   locale,
	}
}

// parent describes the object a thread hangs off.
type parent struct {
	ownerID uuid.UUID
	title   string
}

func (s *service) Create(ctx context.Context, actor *domain.Principal, target domain.CommentTarget, input domain.CreateCommentInput) (*domain.Comment, error) {
	owner, err := s.load(ctx, actor, target)
	if err != nil {
		return nil, err
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:       uuid.New(),
		UserID:   actor.ID(),
		ParentID: input.ParentID,
		Content:  input.Content,
		Username: actor.User.Username,
	}
	switch target.Kind {
	case domain.TargetTask:
		comment.TaskID = &target.ID
	case domain.TargetComplaint:
		comment.ComplaintID = &target.ID
	}

	if input.ParentID != nil {
		p, err := s.repos.Comment.GetByID(ctx, *input.ParentID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, pkgvalidator.Field("parent_id", "exists")
		}
		if err != nil {
			return nil, err
		}
		if !sameTarget(p, target) {
			return nil, pkgvalidator.Field("parent_id", "exists")
		}
	}

	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Comment.Create(ctx, comment); err != nil {
			return err
		}
		if owner.ownerID == actor.ID() {
			return nil
		}
		category, key := domain.CategoryTask, "comment.task.notification"
		if target.Kind == domain.TargetComplaint {
			category, key = domain.CategoryComplaint, "comment.complaint.notification"
		}
		targetID := target.ID
		_, err := s.notifier.Notify(ctx, tx, notification.Notice{
			UserID:    owner.ownerID,
			Category:  category,
			Message:   i18n.Format(s.locale, key, actor.User.FullName(), owner.title),
			RelatedID: &targetID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, threadKey(target))
	return comment, nil
}

func (s *service) List(ctx context.Context, actor *domain.Principal, target domain.CommentTarget) ([]domain.Comment, error) {
	if _, err := s.load(ctx, actor, target); err != nil {
		return nil, err
	}

	key := threadKey(target)
	var tree []domain.Comment
	if s.cache.Get(ctx, key, &tree) {
		return tree, nil
	}

	flat, err := s.repos.Comment.ListByTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	tree = domain.BuildCommentTree(flat)
	s.cache.Set(ctx, key, tree, threadTTL)
	return tree, nil
}

func (s *service) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error {
	comment, err := s.repos.Comment.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CommentAuthor(actor, comment); err != nil {
		return err
	}
	if err := s.repos.Comment.Delete(ctx, id); err != nil {
		return err
	}

	target := domain.CommentTarget{Kind: domain.TargetTask}
	if comment.TaskID != nil {
		target.ID = *comment.TaskID
	} else if comment.ComplaintID != nil {
		target = domain.CommentTarget{Kind: domain.TargetComplaint, ID: *comment.ComplaintID}
	}
	s.cache.Invalidate(ctx, threadKey(target))
	return nil
}

func (s *service) load(ctx context.Context, actor *domain.Principal, target domain.CommentTarget) (*parent, error) {
	switch target.Kind {
	case domain.TargetTask:
		task, err := s.repos.Task.GetByID(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		if err := access.Task(actor, task); err != nil {
			return nil, err
		}
		return &parent{ownerID: task.CreatedBy, title: task.Title}, nil
	case domain.TargetComplaint:
		complaint, err := s.repos.Complaint.GetByID(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		if err := access.Complaint(actor, complaint); err != nil {
			return nil, err
		}
		return &parent{ownerID: complaint.UserID, title: complaint.Subject}, nil
	default:
		return nil, domain.ErrNotFound
	}
}

func sameTarget(c *domain.Comment, target domain.CommentTarget) bool {
	switch target.Kind {
	case domain.TargetTask:
		return c.TaskID != nil && *c.TaskID == target.ID
	case domain.TargetComplaint:
		return c.ComplaintID != nil && *c.ComplaintID == target.ID
	}
	return false
}

func threadKey(target domain.CommentTarget) string {
	return fmt.Sprintf("comments:%s:%s", target.Kind, target.ID)
}
