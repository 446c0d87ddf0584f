package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type taskRepoMock struct {
	items []models.CourseTask
}

func (m *taskRepoMock) Create(ctx context.Context, task *models.CourseTask) error {
	task.ID = fmt.Sprintf("task-%d", len(m.items)+1)
	m.items = append(m.items, *task)
	return nil
}

func (m *taskRepoMock) Update(ctx context.Context, task *models.CourseTask) error {
	for idx := range m.items {
		if m.items[idx].ID == task.ID && m.items[idx].UserID == task.UserID {
			m.items[idx] = *task
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *taskRepoMock) FindByID(ctx context.Context, id string) (*models.CourseTask, error) {
	for _, item := range m.items {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *taskRepoMock) ListOpenByUser(ctx context.Context, userID string, cutoff time.Time) ([]models.CourseTask, error) {
	var out []models.CourseTask
	for _, item := range m.items {
		if item.UserID == userID && !item.DueDate.Before(cutoff) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *taskRepoMock) Delete(ctx context.Context, id, userID string) error {
	for idx, item := range m.items {
		if item.ID == id && item.UserID == userID {
			m.items = append(m.items[:idx], m.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestTaskServiceCreate(t *testing.T) {
	repo := &taskRepoMock{}
	service := NewTaskService(repo, nil, nil, nil)

	task, err := service.Create(context.Background(), "user-1", dto.TaskInput{
		Title:     "Read chapters 3-4",
		DueDate:   "2026-01-09",
		HoursHint: 2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "user-1", task.UserID)
	assert.Equal(t, date(2026, 1, 9), task.DueDate)
}

func TestTaskServiceCreateRejectsBadDate(t *testing.T) {
	service := NewTaskService(&taskRepoMock{}, nil, nil, nil)

	_, err := service.Create(context.Background(), "user-1", dto.TaskInput{
		Title:   "Essay",
		DueDate: "09/01/2026",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTaskServiceUpdateNotFound(t *testing.T) {
	service := NewTaskService(&taskRepoMock{}, nil, nil, nil)

	_, err := service.Update(context.Background(), "user-1", "missing", dto.TaskInput{
		Title:   "Essay",
		DueDate: "2026-01-09",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTaskServiceGetEnforcesOwnership(t *testing.T) {
	repo := &taskRepoMock{items: []models.CourseTask{
		{ID: "task-1", UserID: "user-1", Title: "Essay", DueDate: date(2026, 1, 9)},
	}}
	service := NewTaskService(repo, nil, nil, nil)

	_, err := service.Get(context.Background(), "user-2", "task-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTaskServiceListAndDelete(t *testing.T) {
	repo := &taskRepoMock{items: []models.CourseTask{
		{ID: "task-1", UserID: "user-1", Title: "Essay", DueDate: date(2026, 1, 9)},
		{ID: "task-2", UserID: "user-1", Title: "Reading", DueDate: date(2026, 1, 12)},
		{ID: "task-3", UserID: "user-2", Title: "Lab", DueDate: date(2026, 1, 10)},
	}}
	service := NewTaskService(repo, nil, nil, nil)

	tasks, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	require.NoError(t, service.Delete(context.Background(), "user-1", "task-1"))

	tasks, err = service.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}
