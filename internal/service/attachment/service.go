package attachment

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
	"taskdesk/internal/service/storage"
)

// File is an upload paired with its content.
type File struct {
	domain.Upload
	Reader io.Reader
}

type Service interface {
	Upload(ctx context.Context, actor *domain.Principal, target domain.CommentTarget, file File) (*domain.Attachment, error)
	List(ctx context.Context, actor *domain.Principal, target domain.CommentTarget) ([]domain.Attachment, error)
	Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error
	// Replace removes every attachment of target and stores files in their place.
	Replace(ctx context.Context, actor *domain.Principal, target domain.CommentTarget, files []File) ([]domain.Attachment, error)
	// PurgeObjects removes stored objects whose rows are already gone. Failures are logged.
	PurgeObjects(ctx context.Context, keys []string)
}

type service struct {
	repos *repository.Repositories
	store storage.ObjectStore
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repos *repository.Repositories, store storage.ObjectStore) Service {
	return &service{
		repos: repos,
		store: store,
		log:   logger.WithModule("attachment"),
		now:   time.Now,
	}
}

func (s *service) Upload(ctx context.Context, actor *domain.Principal, target domain.CommentTarget, file File) (*domain.Attachment, error) {
	if err := access.Target(ctx, s.repos, actor, target); err != nil {
		return nil, err
	}
	return s.put(ctx, actor, target, file)
}

func (s *service) put(ctx context.Context, actor *domain.Principal, target domain.CommentTarget, file File) (*domain.Attachment, error) {
	if s.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	if file.Size > domain.MaxAttachmentSize {
		return nil, domain.ErrFileTooLarge
	}

	id := uuid.New()
	key := storage.AttachmentKey(id, s.now())
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.store.Put(ctx, key, file.Reader, file.Size, contentType); err != nil {
		return nil, err
	}

	uploader := actor.ID()
	attachment := &domain.Attachment{
		ID:         id,
		UploadedBy: &uploader,
		FileName:   file.FileName,
		FileSize:   file.Size,
		MimeType:   contentType,
		StorageKey: key,
	}
	switch target.Kind {
	case domain.TargetTask:
		attachment.TaskID = &target.ID
	case domain.TargetComplaint:
		attachment.ComplaintID = &target.ID
	}

	if err := s.repos.Attachment.Create(ctx, attachment); err != nil {
		_ = s.store.Remove(ctx, key)
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	s.withURL(ctx, attachment)
	return attachment, nil
}

func (s *service) List(ctx context.Context, actor *domain.Principal, target domain.CommentTarget) ([]domain.Attachment, error) {
	if err := access.Target(ctx, s.repos, actor, target); err != nil {
		return nil, err
	}

	attachments, err := s.repos.Attachment.ListByTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	for i := range attachments {
		s.withURL(ctx, &attachments[i])
	}
	return attachments, nil
}

func (s *service) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error {
	attachment, err := s.repos.Attachment.GetByID(ctx, id)
	if err != nil {
		return err
	}

	target := targetOf(attachment)
	if err := access.Target(ctx, s.repos, actor, target); err != nil {
		return err
	}
	if err := access.Uploader(actor, attachment); err != nil {
		return err
	}

	if err := s.repos.Attachment.Delete(ctx, id); err != nil {
		return err
	}
	s.PurgeObjects(ctx, []string{attachment.StorageKey})
	return nil
}

func (s *service) Replace(ctx context.Context, actor *domain.Principal, target domain.CommentTarget, files []File) ([]domain.Attachment, error) {
	if err := access.Target(ctx, s.repos, actor, target); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	existing, err := s.repos.Attachment.ListByTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	stored := make([]domain.Attachment, 0, len(files))
	for _, file := range files {
		attachment, err := s.put(ctx, actor, target, file)
		if err != nil {
			return stored, err
		}
		stored = append(stored, *attachment)
	}

	keys := make([]string, 0, len(existing))
	for _, old := range existing {
		if err := s.repos.Attachment.Delete(ctx, old.ID); err != nil {
			return stored, err
		}
		keys = append(keys, old.StorageKey)
	}
	s.PurgeObjects(ctx, keys)
	return stored, nil
}

func (s *service) PurgeObjects(ctx context.Context, keys []string) {
	if s.store == nil {
		return
	}
	for _, key := range keys {
		if err := s.store.Remove(ctx, key); err != nil {
			s.log.Warn("failed to remove object", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *service) withURL(ctx context.Context, attachment *domain.Attachment) {
	if s.store == nil {
		return
	}
	u, err := s.store.URL(ctx, attachment.StorageKey)
	if err != nil {
		s.log.Warn("failed to sign attachment url", zap.String("key", attachment.StorageKey), zap.Error(err))
		return
	}
	attachment.URL = u
}

func targetOf(a *domain.Attachment) domain.CommentTarget {
	if a.TaskID != nil {
		return domain.CommentTarget{Kind: domain.TargetTask, ID: *a.TaskID}
	}
	return domain.CommentTarget{Kind: domain.TargetComplaint, ID: *a.ComplaintID}
}
