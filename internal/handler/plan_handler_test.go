package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/middleware"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/service"
)

type planManagerMock struct {
	generateResp *dto.GeneratePlanResponse
	generateErr  error
	saveID       string
	saveErr      error
	listResp     []models.StudyPlan
	deleteErr    error
}

func (m *planManagerMock) Generate(ctx context.Context, userID string, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	return m.generateResp, m.generateErr
}

func (m *planManagerMock) Save(ctx context.Context, userID string, req dto.SavePlanRequest) (string, error) {
	return m.saveID, m.saveErr
}

func (m *planManagerMock) List(ctx context.Context, userID string, query dto.PlanListQuery) ([]models.StudyPlan, int, error) {
	return m.listResp, len(m.listResp), nil
}

func (m *planManagerMock) Get(ctx context.Context, userID, planID string) (*models.StudyPlan, []models.StudyPlanBlock, error) {
	return &models.StudyPlan{ID: planID, UserID: userID}, nil, nil
}

func (m *planManagerMock) Delete(ctx context.Context, userID, planID string) error {
	return m.deleteErr
}

type exportManagerMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportJobResponse
	statusErr   error
	download    *service.ExportDownload
	downloadErr error
}

func (m *exportManagerMock) CreateJob(ctx context.Context, userID string, req dto.ExportPlanRequest) (*dto.ExportJobResponse, error) {
	return m.createResp, m.createErr
}

func (m *exportManagerMock) GetStatus(ctx context.Context, id string, userID string) (*dto.ExportJobResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *exportManagerMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}
}

func TestPlanHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlanHandler(&planManagerMock{
		generateResp: &dto.GeneratePlanResponse{ProposalID: "prop-1", OK: true, Relaxation: "none", WeekStart: "2026-01-05"},
	}, &exportManagerMock{})

	payload, _ := json.Marshal(dto.GeneratePlanRequest{Today: "2026-01-05"})
	c, w := newGinContext(http.MethodPost, "/plans/generate", payload)
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "prop-1")
}

func TestPlanHandlerGenerateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlanHandler(&planManagerMock{}, &exportManagerMock{})

	payload, _ := json.Marshal(dto.GeneratePlanRequest{})
	c, w := newGinContext(http.MethodPost, "/plans/generate", payload)

	handler.Generate(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlanHandlerSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlanHandler(&planManagerMock{saveID: "plan-1"}, &exportManagerMock{})

	payload, _ := json.Marshal(dto.SavePlanRequest{ProposalID: "prop-1"})
	c, w := newGinContext(http.MethodPost, "/plans", payload)
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Save(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "plan-1")
}

func TestPlanHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlanHandler(&planManagerMock{}, &exportManagerMock{
		createResp: &dto.ExportJobResponse{JobID: "job-1", Status: "QUEUED"},
	})

	payload, _ := json.Marshal(dto.ExportPlanRequest{PlanID: "plan-1", Format: "csv"})
	c, w := newGinContext(http.MethodPost, "/plans/export", payload)
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Export(c)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestPlanHandlerExportStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlanHandler(&planManagerMock{}, &exportManagerMock{
		statusResp: &dto.ExportJobResponse{JobID: "job-1", Status: "FINISHED", Progress: 100},
	})

	c, w := newGinContext(http.MethodGet, "/plans/export/status/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.ExportStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPlanHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp("", "plan*.csv")
	require.NoError(t, err)
	defer os.Remove(file.Name())
	_, _ = file.WriteString("Date,Task ID,Block,Minutes,Reason\n")
	_, _ = file.Seek(0, 0)

	handler := NewPlanHandler(&planManagerMock{}, &exportManagerMock{
		download: &service.ExportDownload{
			File:      file,
			Filename:  "plan.csv",
			Format:    models.ExportFormatCSV,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	})

	c, w := newGinContext(http.MethodGet, "/plans/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
}
