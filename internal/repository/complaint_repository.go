package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Complaint, error)
	List(ctx context.Context, filter domain.ComplaintFilter) ([]domain.Complaint, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Complaint, error)
	SetTags(ctx context.Context, complaintID uuid.UUID, tagIDs []uuid.UUID) error
	// Stats counts every complaint when userID is nil, otherwise only that user's.
	Stats(ctx context.Context, userID *uuid.UUID) (*domain.ComplaintStats, error)
}

type complaintRepository struct {
	base
}

func NewComplaintRepository(db sqlx.ExtContext) ComplaintRepository {
	return &complaintRepository{base{db: db}}
}

const complaintColumns = `c.id, c.user_id, c.complaint_type, c.subject, c.message, c.status, c.created_at, c.updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	now := time.Now().UTC()
	complaint.CreatedAt, complaint.UpdatedAt = now, now
	_, err := r.exec(ctx, `
		INSERT INTO complaints (id, user_id, complaint_type, subject, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		complaint.ID, complaint.UserID, complaint.ComplaintType, complaint.Subject, complaint.Message,
		complaint.Status, complaint.CreatedAt, complaint.UpdatedAt,
	)
	return err
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	complaint.UpdatedAt = time.Now().UTC()
	return r.execOne(ctx, `
		UPDATE complaints SET complaint_type = ?, subject = ?, message = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		complaint.ComplaintType, complaint.Subject, complaint.Message, complaint.Status, complaint.UpdatedAt, complaint.ID,
	)
}

func (r *complaintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM complaints WHERE id = ?`, id)
}

func (r *complaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := r.get(ctx, &complaint, `SELECT `+complaintColumns+` FROM complaints c WHERE c.id = ?`, id); err != nil {
		return nil, err
	}
	list := []domain.Complaint{complaint}
	if err := r.loadRelations(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *complaintRepository) List(ctx context.Context, filter domain.ComplaintFilter) ([]domain.Complaint, int64, error) {
	params := filter.Page
	params.Validate()

	var w where
	if !filter.AllUsers {
		w.add("c.user_id = ?", filter.ViewerID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := likePattern(s)
		w.add(`(LOWER(c.subject) LIKE ? OR LOWER(c.message) LIKE ?
			OR EXISTS (SELECT 1 FROM users u WHERE u.id = c.user_id AND LOWER(u.username) LIKE ?))`, p, p, p)
	}
	if filter.Status != "" {
		w.add("c.status = ?", filter.Status)
	}
	if filter.Type != "" {
		w.add("c.complaint_type = ?", filter.Type)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		if tagID, err := uuid.Parse(tag); err == nil {
			w.add("EXISTS (SELECT 1 FROM complaint_tags ct WHERE ct.complaint_id = c.id AND ct.tag_id = ?)", tagID)
		} else {
			w.add("EXISTS (SELECT 1 FROM complaint_tags ct JOIN tags tg ON tg.id = ct.tag_id WHERE ct.complaint_id = c.id AND LOWER(tg.name) = ?)", strings.ToLower(tag))
		}
	}

	var total int64
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM complaints c`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}

	var complaints []domain.Complaint
	args := append(append([]interface{}{}, w.args...), params.PageSize, params.Offset())
	if err := r.sel(ctx, &complaints, `SELECT `+complaintColumns+` FROM complaints c`+w.String()+` ORDER BY c.created_at DESC, c.id LIMIT ? OFFSET ?`, args...); err != nil {
		return nil, 0, err
	}
	if err := r.loadRelations(ctx, complaints); err != nil {
		return nil, 0, err
	}
	return complaints, total, nil
}

func (r *complaintRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Complaint, error) {
	complaints := []domain.Complaint{}
	err := r.sel(ctx, &complaints, `SELECT `+complaintColumns+` FROM complaints c WHERE c.user_id = ? ORDER BY c.created_at DESC`, userID)
	return complaints, err
}

func (r *complaintRepository) SetTags(ctx context.Context, complaintID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := r.exec(ctx, `DELETE FROM complaint_tags WHERE complaint_id = ?`, complaintID); err != nil {
		return err
	}
	for _, id := range uniqueIDs(tagIDs) {
		if _, err := r.exec(ctx, `INSERT INTO complaint_tags (complaint_id, tag_id) VALUES (?, ?)`, complaintID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *complaintRepository) Stats(ctx context.Context, userID *uuid.UUID) (*domain.ComplaintStats, error) {
	var w where
	if userID != nil {
		w.add("user_id = ?", *userID)
	}

	var stats domain.ComplaintStats
	err := r.get(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'Pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = 'In Progress' THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN status = 'Resolved' THEN 1 ELSE 0 END), 0) AS resolved
		FROM complaints`+w.String(), w.args...)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *complaintRepository) loadRelations(ctx context.Context, complaints []domain.Complaint) error {
	if len(complaints) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(complaints))
	ownerIDs := make([]uuid.UUID, len(complaints))
	index := make(map[uuid.UUID]int, len(complaints))
	for i := range complaints {
		ids[i] = complaints[i].ID
		ownerIDs[i] = complaints[i].UserID
		index[complaints[i].ID] = i
		complaints[i].Tags = []domain.Tag{}
	}

	query, args, err := r.in(`
		SELECT u.id AS task_id, u.id, u.username, u.first_name, u.last_name
		FROM users u WHERE u.id IN (?)`, uniqueIDs(ownerIDs))
	if err != nil {
		return err
	}
	var owners []participantRow
	if err := r.sel(ctx, &owners, query, args...); err != nil {
		return err
	}
	byID := make(map[uuid.UUID]domain.UserSummary, len(owners))
	for _, o := range owners {
		byID[o.ID] = o.summary()
	}
	for i := range complaints {
		if o, ok := byID[complaints[i].UserID]; ok {
			complaints[i].Owner = &o
		}
	}

	query, args, err = r.in(`
		SELECT ct.complaint_id AS owner_id, tg.id, tg.name, tg.description, tg.color, tg.created_at
		FROM complaint_tags ct JOIN tags tg ON tg.id = ct.tag_id
		WHERE ct.complaint_id IN (?) ORDER BY tg.name`, ids)
	if err != nil {
		return err
	}
	var tags []tagRow
	if err := r.sel(ctx, &tags, query, args...); err != nil {
		return err
	}
	for _, t := range tags {
		i := index[t.OwnerID]
		complaints[i].Tags = append(complaints[i].Tags, t.Tag)
	}
	return nil
}
