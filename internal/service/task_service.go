package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/planner"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type courseTaskRepository interface {
	Create(ctx context.Context, task *models.CourseTask) error
	Update(ctx context.Context, task *models.CourseTask) error
	FindByID(ctx context.Context, id string) (*models.CourseTask, error)
	ListOpenByUser(ctx context.Context, userID string, cutoff time.Time) ([]models.CourseTask, error)
	Delete(ctx context.Context, id, userID string) error
}

// planCacheInvalidator drops cached plan proposals when their inputs change.
type planCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TaskService manages the course tasks a user feeds into the planner.
type TaskService struct {
	repo      courseTaskRepository
	cache     planCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService. cache may be nil.
func NewTaskService(repo courseTaskRepository, cache planCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// invalidatePlanCache drops generated proposals for the user; a task write
// changes the planner's inputs.
func (s *TaskService) invalidatePlanCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "plans:generate:"+userID+":*"); err != nil {
		s.logger.Warn("plan cache invalidation failed", zap.Error(err))
	}
}

// Create stores a new course task for the user.
func (s *TaskService) Create(ctx context.Context, userID string, input dto.TaskInput) (*models.CourseTask, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	dueDate, err := parseTaskDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}
	task := &models.CourseTask{
		UserID:     userID,
		Title:      input.Title,
		DueDate:    dueDate,
		HoursHint:  input.HoursHint,
		SourceText: input.SourceText,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	s.invalidatePlanCache(ctx, userID)
	return task, nil
}

// Update modifies a task owned by the user.
func (s *TaskService) Update(ctx context.Context, userID, id string, input dto.TaskInput) (*models.CourseTask, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	dueDate, err := parseTaskDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}
	task := &models.CourseTask{
		ID:         id,
		UserID:     userID,
		Title:      input.Title,
		DueDate:    dueDate,
		HoursHint:  input.HoursHint,
		SourceText: input.SourceText,
	}
	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	s.invalidatePlanCache(ctx, userID)
	return s.Get(ctx, userID, id)
}

// Get loads a single task, enforcing ownership.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*models.CourseTask, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if task.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	return task, nil
}

// List returns every task belonging to the user, earliest deadline first.
func (s *TaskService) List(ctx context.Context, userID string) ([]models.CourseTask, error) {
	tasks, err := s.repo.ListOpenByUser(ctx, userID, time.Time{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Delete removes a task owned by the user.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	s.invalidatePlanCache(ctx, userID)
	return nil
}

func parseTaskDueDate(raw string) (time.Time, error) {
	parsed, err := planner.ParseDate(raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "dueDate must be formatted as YYYY-MM-DD")
	}
	return parsed.Time(), nil
}
