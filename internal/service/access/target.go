package access

import (
	"context"

	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

// Target checks that p may read and contribute to the task or complaint a comment or
// attachment hangs off.
func Target(ctx context.Context, repos *repository.Repositories, p *domain.Principal, target domain.CommentTarget) error {
	switch target.Kind {
	case domain.TargetTask:
		task, err := repos.Task.GetByID(ctx, target.ID)
		if err != nil {
			return err
		}
		return Task(p, task)
	case domain.TargetComplaint:
		complaint, err := repos.Complaint.GetByID(ctx, target.ID)
		if err != nil {
			return err
		}
		return Complaint(p, complaint)
	default:
		return domain.ErrNotFound
	}
}
