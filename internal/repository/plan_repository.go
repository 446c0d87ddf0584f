package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/studyhall/planner-api/internal/models"
)

// PlanRepository persists versioned weekly study plans.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs the repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a plan assigning the next version for the user-week tuple.
func (r *PlanRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error {
	if plan == nil {
		return fmt.Errorf("plan payload is nil")
	}
	if plan.UserID == "" || plan.WeekStart.IsZero() {
		return fmt.Errorf("user_id and week_start are required")
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.Status == "" {
		plan.Status = models.StudyPlanStatusDraft
	}
	if len(plan.Meta) == 0 {
		plan.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM study_plans WHERE user_id = $1 AND week_start = $2`
	if err := sqlx.GetContext(ctx, target, &plan.Version, nextVersionQuery, plan.UserID, plan.WeekStart); err != nil {
		return fmt.Errorf("compute next study plan version: %w", err)
	}

	const insertQuery = `
INSERT INTO study_plans (id, user_id, week_start, version, status, relaxation, meta, created_at, updated_at)
VALUES (:id, :user_id, :week_start, :version, :status, :relaxation, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, plan); err != nil {
		return fmt.Errorf("insert study plan: %w", err)
	}
	return nil
}

// UpsertBlocks inserts or updates blocks for a study plan.
func (r *PlanRepository) UpsertBlocks(ctx context.Context, exec sqlx.ExtContext, blocks []models.StudyPlanBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO study_plan_blocks (id, study_plan_id, plan_date, task_id, part_id, title, minutes, reason, created_at)
VALUES (:id, :study_plan_id, :plan_date, :task_id, :part_id, :title, :minutes, :reason, :created_at)
ON CONFLICT (study_plan_id, plan_date, part_id, title) DO UPDATE
SET minutes = EXCLUDED.minutes,
    reason = EXCLUDED.reason`

	for i := range blocks {
		block := &blocks[i]
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		if block.CreatedAt.IsZero() {
			block.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, block); err != nil {
			return fmt.Errorf("upsert study plan block: %w", err)
		}
	}
	return nil
}

// ListByUser returns plan versions for a user, optionally scoped to a week.
func (r *PlanRepository) ListByUser(ctx context.Context, userID string, weekStart *time.Time) ([]models.StudyPlan, error) {
	query := `SELECT id, user_id, week_start, version, status, relaxation, meta, created_at, updated_at
FROM study_plans WHERE user_id = $1`
	args := []interface{}{userID}
	if weekStart != nil {
		query += ` AND week_start = $2`
		args = append(args, *weekStart)
	}
	query += ` ORDER BY week_start DESC, version DESC`

	var plans []models.StudyPlan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("list study plans: %w", err)
	}
	return plans, nil
}

// FindByID loads a plan by its identifier.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.StudyPlan, error) {
	const query = `SELECT id, user_id, week_start, version, status, relaxation, meta, created_at, updated_at FROM study_plans WHERE id = $1`
	var plan models.StudyPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListBlocks returns blocks ordered by date for a plan.
func (r *PlanRepository) ListBlocks(ctx context.Context, planID string) ([]models.StudyPlanBlock, error) {
	const query = `SELECT id, study_plan_id, plan_date, task_id, part_id, title, minutes, reason, created_at
FROM study_plan_blocks WHERE study_plan_id = $1 ORDER BY plan_date ASC, created_at ASC`
	var blocks []models.StudyPlanBlock
	if err := r.db.SelectContext(ctx, &blocks, query, planID); err != nil {
		return nil, fmt.Errorf("list study plan blocks: %w", err)
	}
	return blocks, nil
}

// UpdateStatus updates the status (and optionally meta) of a plan.
func (r *PlanRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StudyPlanStatus, meta types.JSONText) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	var (
		query string
		args  []interface{}
	)
	if len(meta) > 0 {
		query = `UPDATE study_plans SET status = $1, meta = $2, updated_at = $3 WHERE id = $4`
		args = []interface{}{status, meta, now, id}
	} else {
		query = `UPDATE study_plans SET status = $1, updated_at = $2 WHERE id = $3`
		args = []interface{}{status, now, id}
	}
	result, err := target.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update study plan status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("study plan status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a stored plan version.
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM study_plans WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete study plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("study plan rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
