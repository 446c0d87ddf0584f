package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/models"
)

func newPlanRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPlanRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	weekStart := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM study_plans WHERE user_id = $1 AND week_start = $2")).
		WithArgs("user-1", weekStart).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO study_plans")).
		WithArgs(sqlmock.AnyArg(), "user-1", weekStart, 3, string(models.StudyPlanStatusDraft), "none", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.StudyPlan{
		UserID:     "user-1",
		WeekStart:  weekStart,
		Relaxation: "none",
		Meta:       types.JSONText(`{"ok":true}`),
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.Equal(t, 3, payload.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryUpsertBlocks(t *testing.T) {
	db, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	planDate := time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO study_plan_blocks")).
		WithArgs(sqlmock.AnyArg(), "plan-1", planDate, "task-1", "part-1", "Draft", 60, "whole-part", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	blocks := []models.StudyPlanBlock{{
		StudyPlanID: "plan-1",
		PlanDate:    planDate,
		TaskID:      "task-1",
		PartID:      "part-1",
		Title:       "Draft",
		Minutes:     60,
		Reason:      "whole-part",
	}}
	require.NoError(t, repo.UpsertBlocks(context.Background(), nil, blocks))
	assert.NotEmpty(t, blocks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "week_start", "version", "status", "relaxation", "meta", "created_at", "updated_at"}).
		AddRow("plan-1", "user-1", now, 1, string(models.StudyPlanStatusDraft), "none", types.JSONText(`{}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM study_plans WHERE user_id = $1 ORDER BY week_start DESC, version DESC")).
		WithArgs("user-1").
		WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM study_plans WHERE id = $1")).
		WithArgs("plan-1").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.Delete(context.Background(), "plan-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE study_plans SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(string(models.StudyPlanStatusFinal), sqlmock.AnyArg(), "plan-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpdateStatus(context.Background(), nil, "plan-1", models.StudyPlanStatusFinal, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
