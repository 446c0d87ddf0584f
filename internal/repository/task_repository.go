package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyhall/planner-api/internal/models"
)

// TaskRepository provides database access for course tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new course task.
func (r *TaskRepository) Create(ctx context.Context, task *models.CourseTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	const query = `INSERT INTO course_tasks (id, user_id, title, due_date, hours_hint, source_text, created_at, updated_at)
		VALUES (:id, :user_id, :title, :due_date, :hours_hint, :source_text, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create course task: %w", err)
	}
	return nil
}

// Update updates mutable fields of a task owned by the given user.
func (r *TaskRepository) Update(ctx context.Context, task *models.CourseTask) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_tasks SET title = :title, due_date = :due_date, hours_hint = :hours_hint, source_text = :source_text, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`
	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("update course task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("course task rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads a task by its identifier.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.CourseTask, error) {
	const query = `SELECT id, user_id, title, due_date, hours_hint, source_text, created_at, updated_at FROM course_tasks WHERE id = $1 LIMIT 1`
	var task models.CourseTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course task: %w", err)
	}
	return &task, nil
}

// ListOpenByUser returns the user's tasks due on or after the cutoff,
// earliest deadline first.
func (r *TaskRepository) ListOpenByUser(ctx context.Context, userID string, cutoff time.Time) ([]models.CourseTask, error) {
	const query = `SELECT id, user_id, title, due_date, hours_hint, source_text, created_at, updated_at
		FROM course_tasks WHERE user_id = $1 AND due_date >= $2 ORDER BY due_date ASC, created_at ASC`
	var tasks []models.CourseTask
	if err := r.db.SelectContext(ctx, &tasks, query, userID, cutoff); err != nil {
		return nil, fmt.Errorf("list course tasks: %w", err)
	}
	return tasks, nil
}

// Delete removes a task owned by the given user.
func (r *TaskRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM course_tasks WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete course task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("course task rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
