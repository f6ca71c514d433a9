package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error)
	GetOrCreate(ctx context.Context, name string) (*domain.Tag, error)
	Update(ctx context.Context, tag *domain.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Tag, error)
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}

type tagRepository struct {
	base
}

func NewTagRepository(db sqlx.ExtContext) TagRepository {
	return &tagRepository{base{db: db}}
}

const tagColumns = `id, name, description, color, created_at`

func (r *tagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	if tag.Color == "" {
		tag.Color = domain.DefaultTagColor
	}
	tag.CreatedAt = time.Now().UTC()
	_, err := r.exec(ctx, `INSERT INTO tags (`+tagColumns+`) VALUES (?, ?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.Description, tag.Color, tag.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("tag %q: %w", tag.Name, domain.ErrConflict)
	}
	return err
}

func (r *tagRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	var tag domain.Tag
	if err := r.get(ctx, &tag, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetOrCreate resolves a tag by exact name, inserting it when missing. Concurrent callers
// converge on the same row through ON CONFLICT DO NOTHING.
func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	_, err := r.exec(ctx, `
		INSERT INTO tags (`+tagColumns+`) VALUES (?, ?, NULL, ?, ?)
		ON CONFLICT (name) DO NOTHING`,
		uuid.New(), name, domain.DefaultTagColor, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	var tag domain.Tag
	if err := r.get(ctx, &tag, `SELECT `+tagColumns+` FROM tags WHERE name = ?`, name); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) Update(ctx context.Context, tag *domain.Tag) error {
	err := r.execOne(ctx, `UPDATE tags SET name = ?, description = ?, color = ? WHERE id = ?`,
		tag.Name, tag.Description, tag.Color, tag.ID)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("tag %q: %w", tag.Name, domain.ErrConflict)
	}
	return err
}

func (r *tagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM tags WHERE id = ?`, id)
}

func (r *tagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	err := r.sel(ctx, &tags, `SELECT `+tagColumns+` FROM tags ORDER BY name`)
	return tags, err
}

func (r *tagRepository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := r.in(`SELECT COUNT(*) FROM tags WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.get(ctx, &n, query, args...)
	return n, err
}
