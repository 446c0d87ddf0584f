package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
	"github.com/studyhall/planner-api/pkg/jobs"
	"github.com/studyhall/planner-api/pkg/storage"
)

type queueStub struct {
	enqueued []jobs.Job
	fail     bool
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.fail {
		return errors.New("queue full")
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type exportFixture struct {
	service *ExportJobService
	worker  *ExportWorker
	store   *ExportJobStore
	queue   *queueStub
	plans   *planRepoStub
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	plans := &planRepoStub{
		plans: []models.StudyPlan{{
			ID:        "plan-1",
			UserID:    "user-1",
			WeekStart: date(2026, 1, 5),
			Version:   1,
			Status:    models.StudyPlanStatusDraft,
		}},
		blocks: map[string][]models.StudyPlanBlock{
			"plan-1": {
				{StudyPlanID: "plan-1", PlanDate: date(2026, 1, 5), TaskID: "task-1", Title: "Essay (part 1/2)", Minutes: 45, Reason: "due 2026-01-07"},
				{StudyPlanID: "plan-1", PlanDate: date(2026, 1, 6), TaskID: "task-1", Title: "Essay (part 2/2)", Minutes: 45, Reason: "due 2026-01-07"},
			},
		},
	}

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	exporter := NewExportService(plans, local, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)
	queue := &queueStub{}
	store := NewExportJobStore()
	service := NewExportJobService(store, plans, queue, exporter, nil, nil, ExportJobServiceConfig{})
	worker := NewExportWorker(store, exporter, 3, nil)
	return &exportFixture{service: service, worker: worker, store: store, queue: queue, plans: plans}
}

func TestExportJobLifecycle(t *testing.T) {
	fixture := newExportFixture(t)

	resp, err := fixture.service.CreateJob(context.Background(), "user-1", dto.ExportPlanRequest{PlanID: "plan-1", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusQueued), resp.Status)
	require.Len(t, fixture.queue.enqueued, 1)

	require.NoError(t, fixture.worker.Handle(context.Background(), fixture.queue.enqueued[0]))

	status, err := fixture.service.GetStatus(context.Background(), resp.JobID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusFinished), status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)
	assert.Contains(t, *status.ResultURL, "/api/v1/plans/export/")

	token := (*status.ResultURL)[strings.LastIndex(*status.ResultURL, "/")+1:]
	download, err := fixture.service.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Date,Task ID,Block,Minutes,Reason")
	assert.Contains(t, string(content), "Essay (part 1/2)")
}

func TestExportJobRejectsForeignPlan(t *testing.T) {
	fixture := newExportFixture(t)

	_, err := fixture.service.CreateJob(context.Background(), "user-2", dto.ExportPlanRequest{PlanID: "plan-1", Format: "csv"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExportJobRejectsUnknownFormat(t *testing.T) {
	fixture := newExportFixture(t)

	_, err := fixture.service.CreateJob(context.Background(), "user-1", dto.ExportPlanRequest{PlanID: "plan-1", Format: "xlsx"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportJobStatusHiddenFromOthers(t *testing.T) {
	fixture := newExportFixture(t)

	resp, err := fixture.service.CreateJob(context.Background(), "user-1", dto.ExportPlanRequest{PlanID: "plan-1", Format: "pdf"})
	require.NoError(t, err)

	_, err = fixture.service.GetStatus(context.Background(), resp.JobID, "user-2")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	return nil, errors.New("render failed")
}

func TestExportWorkerMarksFailedAfterRetries(t *testing.T) {
	fixture := newExportFixture(t)
	worker := NewExportWorker(fixture.store, failingGenerator{}, 2, nil)

	resp, err := fixture.service.CreateJob(context.Background(), "user-1", dto.ExportPlanRequest{PlanID: "plan-1", Format: "csv"})
	require.NoError(t, err)

	job := fixture.queue.enqueued[0]
	job.Attempt = 2
	require.Error(t, worker.Handle(context.Background(), job))

	status, err := fixture.service.GetStatus(context.Background(), resp.JobID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusFailed), status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, "render failed", *status.Error)
}

func TestExportJobEnqueueFailureMarksFailed(t *testing.T) {
	fixture := newExportFixture(t)
	fixture.queue.fail = true

	_, err := fixture.service.CreateJob(context.Background(), "user-1", dto.ExportPlanRequest{PlanID: "plan-1", Format: "csv"})
	require.Error(t, err)
}
