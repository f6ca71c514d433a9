package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type Repositories struct {
	db *sqlx.DB

	User         UserRepository
	Session      SessionRepository
	Task         TaskRepository
	Tag          TagRepository
	Reminder     ReminderRepository
	Complaint    ComplaintRepository
	Notification NotificationRepository
	Comment      CommentRepository
	Attachment   AttachmentRepository
	AuditLog     AuditLogRepository
	Outbox       OutboxRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	repos := newRepositories(db)
	repos.db = db
	return repos
}

func newRepositories(ext sqlx.ExtContext) *Repositories {
	return &Repositories{
		User:         NewUserRepository(ext),
		Session:      NewSessionRepository(ext),
		Task:         NewTaskRepository(ext),
		Tag:          NewTagRepository(ext),
		Reminder:     NewReminderRepository(ext),
		Complaint:    NewComplaintRepository(ext),
		Notification: NewNotificationRepository(ext),
		Comment:      NewCommentRepository(ext),
		Attachment:   NewAttachmentRepository(ext),
		AuditLog:     NewAuditLogRepository(ext),
		Outbox:       NewOutboxRepository(ext),
	}
}

// WithTx runs fn with repositories bound to one transaction. Calls made on an already
// transaction-bound set join the outer transaction.
func (r *Repositories) WithTx(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DB exposes the underlying pool, nil for transaction-bound sets.
func (r *Repositories) DB() *sqlx.DB {
	return r.db
}

// base carries the shared query helpers. Queries are written with ? placeholders and
// rebound for the active driver.
type base struct {
	db sqlx.ExtContext
}

func (b base) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, b.db, dest, b.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (b base) sel(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, b.db, dest, b.db.Rebind(query), args...)
}

func (b base) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return b.db.ExecContext(ctx, b.db.Rebind(query), args...)
}

// execAffected runs query and reports how many rows it touched.
func (b base) execAffected(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := b.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execOne fails with domain.ErrNotFound when query touched no row.
func (b base) execOne(ctx context.Context, query string, args ...interface{}) error {
	n, err := b.execAffected(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// in expands slice arguments for IN (?) clauses.
func (b base) in(query string, args ...interface{}) (string, []interface{}, error) {
	q, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return q, expanded, nil
}

// where accumulates AND-joined conditions with their arguments.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
