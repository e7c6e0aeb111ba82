package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chepyr/task-api/internal/models"
)

// defines methods for task db operations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.Task, error)
	GetByID(ctx context.Context, id int64) (models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id, userID int64) error
}

type TaskRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db, now: time.Now}
}

const taskColumns = `id, user_id, title, COALESCE(description, ''), COALESCE(due_date, ''),
	 priority, status, created_at, updated_at`

// Create fills in CreatedAt and UpdatedAt when the caller left them empty
// and returns the new id. A task for a missing user is ErrUnknownUser.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (int64, error) {
	now := models.FormatTimestamp(r.now())
	if task.CreatedAt == "" {
		task.CreatedAt = now
	}
	if task.UpdatedAt == "" {
		task.UpdatedAt = now
	}

	query := `INSERT INTO tasks (user_id, title, description, due_date, priority, status, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	var id int64
	err := r.db.QueryRowContext(
		ctx, query, task.UserID, task.Title, task.Description, task.DueDate,
		task.Priority, task.Status, task.CreatedAt, task.UpdatedAt,
	).Scan(&id)
	if isForeignKeyViolation(err) {
		return 0, ErrUnknownUser
	}
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

// ListByUserID returns the user's tasks, newest first. No tasks is an
// empty slice, not an error.
func (r *TaskRepository) ListByUserID(ctx context.Context, userID int64) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + `
	 FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetByID returns a zero Task (ID 0) when nothing matches.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, nil
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("select task: %w", err)
	}
	return task, nil
}

// Update writes the mutable fields of a task owned by task.UserID and
// stamps UpdatedAt.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	updatedAt := models.FormatTimestamp(r.now())
	query := `UPDATE tasks SET title = $1, description = $2, due_date = $3, priority = $4,
	 status = $5, updated_at = $6 WHERE id = $7 AND user_id = $8`

	res, err := r.db.ExecContext(
		ctx, query, task.Title, task.Description, task.DueDate, task.Priority,
		task.Status, updatedAt, task.ID, task.UserID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	task.UpdatedAt = updatedAt
	return nil
}

// Delete removes a task only if it belongs to userID, mirroring Update.
func (r *TaskRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate,
		&task.Priority, &task.Status, &task.CreatedAt, &task.UpdatedAt,
	)
	return task, err
}
