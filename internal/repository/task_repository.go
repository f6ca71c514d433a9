package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type TaskStats struct {
	Total        int64 `db:"total"`
	Completed    int64 `db:"completed"`
	CreatedByMe  int64 `db:"created_by_me"`
	AssignedToMe int64 `db:"assigned_to_me"`
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int64, error)
	ListCreatedBy(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)
	Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error)

	AssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
	SetAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	SetTags(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error
	IsParticipant(ctx context.Context, taskID, userID uuid.UUID) (bool, error)

	AddStep(ctx context.Context, step *domain.TaskStep) error
	GetStep(ctx context.Context, id uuid.UUID) (*domain.TaskStep, error)
	UpdateStep(ctx context.Context, step *domain.TaskStep) error
	DeleteStep(ctx context.Context, id uuid.UUID) error
	ListSteps(ctx context.Context, taskID uuid.UUID) ([]domain.TaskStep, error)
	DeleteSteps(ctx context.Context, taskID uuid.UUID) error
}

type taskRepository struct {
	base
}

func NewTaskRepository(db sqlx.ExtContext) TaskRepository {
	return &taskRepository{base{db: db}}
}

const taskColumns = `t.id, t.title, t.description, t.due_date, t.created_by, t.is_completed, t.created_at, t.updated_at`

const stepColumns = `id, task_id, title, assigned_to, is_completed, position`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now
	_, err := r.exec(ctx, `
		INSERT INTO tasks (id, title, description, due_date, created_by, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, utcPtr(task.DueDate), task.CreatedBy, task.IsCompleted, task.CreatedAt, task.UpdatedAt,
	)
	return err
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	task.UpdatedAt = time.Now().UTC()
	return r.execOne(ctx, `
		UPDATE tasks SET title = ?, description = ?, due_date = ?, is_completed = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, utcPtr(task.DueDate), task.IsCompleted, task.UpdatedAt, task.ID,
	)
}

func (r *taskRepository) SetCompleted(ctx context.Context, id uuid.UUID, completed bool, at time.Time) error {
	return r.execOne(ctx, `UPDATE tasks SET is_completed = ?, updated_at = ? WHERE id = ?`, completed, at.UTC(), id)
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM tasks WHERE id = ?`, id)
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	if err := r.get(ctx, &task, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id); err != nil {
		return nil, err
	}

	tasks := []domain.Task{task}
	if err := r.loadRelations(ctx, tasks); err != nil {
		return nil, err
	}
	steps, err := r.ListSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks[0].Steps = steps
	return &tasks[0], nil
}

func (r *taskRepository) List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int64, error) {
	params := filter.Page
	params.Validate()

	var w where
	viewer := filter.ViewerID
	if !filter.AllUsers {
		w.add("(t.created_by = ? OR EXISTS (SELECT 1 FROM task_assignees va WHERE va.task_id = t.id AND va.user_id = ?))", viewer, viewer)
	}
	switch filter.Role {
	case domain.TaskRoleAssignedToMe:
		w.add("EXISTS (SELECT 1 FROM task_assignees ra WHERE ra.task_id = t.id AND ra.user_id = ?)", viewer)
	case domain.TaskRoleCreatedByMe:
		w.add("t.created_by = ?", viewer)
	}
	switch filter.Status {
	case domain.TaskStatusCompleted:
		w.add("t.is_completed = TRUE")
	case domain.TaskStatusPending:
		w.add("t.is_completed = FALSE")
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		if tagID, err := uuid.Parse(tag); err == nil {
			w.add("EXISTS (SELECT 1 FROM task_tags tt WHERE tt.task_id = t.id AND tt.tag_id = ?)", tagID)
		} else {
			w.add("EXISTS (SELECT 1 FROM task_tags tt JOIN tags tg ON tg.id = tt.tag_id WHERE tt.task_id = t.id AND LOWER(tg.name) = ?)", strings.ToLower(tag))
		}
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := likePattern(s)
		w.add(`(LOWER(t.title) LIKE ? OR LOWER(t.description) LIKE ?
			OR EXISTS (SELECT 1 FROM users cu WHERE cu.id = t.created_by AND LOWER(cu.username) LIKE ?)
			OR EXISTS (SELECT 1 FROM task_assignees sa JOIN users su ON su.id = sa.user_id WHERE sa.task_id = t.id AND LOWER(su.username) LIKE ?))`,
			p, p, p, p)
	}
	if filter.DueFrom != nil {
		w.add("t.due_date >= ?", filter.DueFrom.UTC())
	}
	if filter.DueTo != nil {
		w.add("t.due_date < ?", filter.DueTo.UTC())
	}

	var total int64
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM tasks t`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}

	var tasks []domain.Task
	args := append(append([]interface{}{}, w.args...), params.PageSize, params.Offset())
	if err := r.sel(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks t`+w.String()+` ORDER BY t.created_at DESC, t.id LIMIT ? OFFSET ?`, args...); err != nil {
		return nil, 0, err
	}
	if err := r.loadRelations(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepository) ListCreatedBy(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	tasks := []domain.Task{}
	err := r.sel(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks t WHERE t.created_by = ? ORDER BY t.created_at DESC`, userID)
	return tasks, err
}

func (r *taskRepository) Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error) {
	var stats TaskStats
	err := r.get(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN t.is_completed THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN t.created_by = ? THEN 1 ELSE 0 END), 0) AS created_by_me,
			COALESCE(SUM(CASE WHEN EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = ?) THEN 1 ELSE 0 END), 0) AS assigned_to_me
		FROM tasks t
		WHERE t.created_by = ? OR EXISTS (SELECT 1 FROM task_assignees va WHERE va.task_id = t.id AND va.user_id = ?)`,
		userID, userID, userID, userID,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *taskRepository) AssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.sel(ctx, &ids, `SELECT user_id FROM task_assignees WHERE task_id = ?`, taskID)
	return ids, err
}

// SetAssignees replaces the assignee set.
func (r *taskRepository) SetAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := r.exec(ctx, `DELETE FROM task_assignees WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	for _, id := range uniqueIDs(userIDs) {
		if _, err := r.exec(ctx, `INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)`, taskID, id); err != nil {
			return err
		}
	}
	return nil
}

// SetTags replaces the tag set.
func (r *taskRepository) SetTags(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := r.exec(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	for _, id := range uniqueIDs(tagIDs) {
		if _, err := r.exec(ctx, `INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, id); err != nil {
			return err
		}
	}
	return nil
}

// IsParticipant reports whether userID created or is assigned to the task.
func (r *taskRepository) IsParticipant(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	var n int
	err := r.get(ctx, &n, `
		SELECT COUNT(*) FROM tasks t
		WHERE t.id = ? AND (t.created_by = ? OR EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = ?))`,
		taskID, userID, userID,
	)
	return n > 0, err
}

func (r *taskRepository) AddStep(ctx context.Context, step *domain.TaskStep) error {
	_, err := r.exec(ctx, `
		INSERT INTO task_steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		step.ID, step.TaskID, step.Title, step.AssignedTo, step.IsCompleted, step.Position,
	)
	return err
}

func (r *taskRepository) GetStep(ctx context.Context, id uuid.UUID) (*domain.TaskStep, error) {
	var step domain.TaskStep
	if err := r.get(ctx, &step, `SELECT `+stepColumns+` FROM task_steps WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *taskRepository) UpdateStep(ctx context.Context, step *domain.TaskStep) error {
	return r.execOne(ctx, `
		UPDATE task_steps SET title = ?, assigned_to = ?, is_completed = ?, position = ? WHERE id = ?`,
		step.Title, step.AssignedTo, step.IsCompleted, step.Position, step.ID,
	)
}

func (r *taskRepository) DeleteStep(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM task_steps WHERE id = ?`, id)
}

func (r *taskRepository) ListSteps(ctx context.Context, taskID uuid.UUID) ([]domain.TaskStep, error) {
	steps := []domain.TaskStep{}
	err := r.sel(ctx, &steps, `SELECT `+stepColumns+` FROM task_steps WHERE task_id = ? ORDER BY position ASC, id`, taskID)
	return steps, err
}

func (r *taskRepository) DeleteSteps(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.exec(ctx, `DELETE FROM task_steps WHERE task_id = ?`, taskID)
	return err
}

type participantRow struct {
	TaskID    uuid.UUID `db:"task_id"`
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
}

func (p participantRow) summary() domain.UserSummary {
	u := domain.User{ID: p.ID, Username: p.Username, FirstName: p.FirstName, LastName: p.LastName}
	return u.Summary()
}

type tagRow struct {
	OwnerID uuid.UUID `db:"owner_id"`
	domain.Tag
}

// loadRelations fills creator, assignees and tags for a page of tasks in three queries.
func (r *taskRepository) loadRelations(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(tasks))
	creatorIDs := make([]uuid.UUID, len(tasks))
	index := make(map[uuid.UUID]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		creatorIDs[i] = tasks[i].CreatedBy
		index[tasks[i].ID] = i
		tasks[i].AssignedTo = []domain.UserSummary{}
		tasks[i].Tags = []domain.Tag{}
	}

	query, args, err := r.in(`
		SELECT ta.task_id, u.id, u.username, u.first_name, u.last_name
		FROM task_assignees ta JOIN users u ON u.id = ta.user_id
		WHERE ta.task_id IN (?) ORDER BY u.username`, ids)
	if err != nil {
		return err
	}
	var assignees []participantRow
	if err := r.sel(ctx, &assignees, query, args...); err != nil {
		return err
	}
	for _, a := range assignees {
		i := index[a.TaskID]
		tasks[i].AssignedTo = append(tasks[i].AssignedTo, a.summary())
	}

	query, args, err = r.in(`
		SELECT u.id AS task_id, u.id, u.username, u.first_name, u.last_name
		FROM users u WHERE u.id IN (?)`, uniqueIDs(creatorIDs))
	if err != nil {
		return err
	}
	var creators []participantRow
	if err := r.sel(ctx, &creators, query, args...); err != nil {
		return err
	}
	byID := make(map[uuid.UUID]domain.UserSummary, len(creators))
	for _, c := range creators {
		byID[c.ID] = c.summary()
	}
	for i := range tasks {
		if c, ok := byID[tasks[i].CreatedBy]; ok {
			tasks[i].Creator = &c
		}
	}

	query, args, err = r.in(`
		SELECT tt.task_id AS owner_id, tg.id, tg.name, tg.description, tg.color, tg.created_at
		FROM task_tags tt JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.task_id IN (?) ORDER BY tg.name`, ids)
	if err != nil {
		return err
	}
	var tags []tagRow
	if err := r.sel(ctx, &tags, query, args...); err != nil {
		return err
	}
	for _, t := range tags {
		i := index[t.OwnerID]
		tasks[i].Tags = append(tasks[i].Tags, t.Tag)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
