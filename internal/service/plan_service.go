package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/planner"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type planTaskReader interface {
	ListOpenByUser(ctx context.Context, userID string, cutoff time.Time) ([]models.CourseTask, error)
}

type planPreferenceReader interface {
	GetByUser(ctx context.Context, userID string) (*models.StudyPreference, error)
}

type studyPlanRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error
	UpsertBlocks(ctx context.Context, exec sqlx.ExtContext, blocks []models.StudyPlanBlock) error
	ListByUser(ctx context.Context, userID string, weekStart *time.Time) ([]models.StudyPlan, error)
	FindByID(ctx context.Context, id string) (*models.StudyPlan, error)
	ListBlocks(ctx context.Context, planID string) ([]models.StudyPlanBlock, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StudyPlanStatus, meta types.JSONText) error
	Delete(ctx context.Context, id string) error
}

type planCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type planGenerationRecorder interface {
	RecordPlanGeneration(relaxation string)
	ObserveDBQuery(label string, duration time.Duration)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// PlanService generates weekly study plan proposals and persists accepted ones.
type PlanService struct {
	tasks     planTaskReader
	prefs     planPreferenceReader
	plans     studyPlanRepository
	cache     planCache
	metrics   planGenerationRecorder
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	store     *planProposalStore
	cacheTTL  time.Duration
	now       func() time.Time
}

// PlanServiceConfig governs proposal retention and cache behaviour.
type PlanServiceConfig struct {
	ProposalTTL time.Duration
	CacheTTL    time.Duration
}

// NewPlanService wires planner dependencies.
func NewPlanService(
	tasks planTaskReader,
	prefs planPreferenceReader,
	plans studyPlanRepository,
	cache planCache,
	metrics planGenerationRecorder,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlanServiceConfig,
) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &PlanService{
		tasks:     tasks,
		prefs:     prefs,
		plans:     plans,
		cache:     cache,
		metrics:   metrics,
		tx:        tx,
		validator: validate,
		logger:    logger,
		store:     newPlanProposalStore(cfg.ProposalTTL),
		cacheTTL:  cfg.CacheTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds a weekly proposal from the caller's open tasks. An
// infeasible week is reported in the response body, not as an error.
func (s *PlanService) Generate(ctx context.Context, userID string, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user context missing")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan generation payload")
	}

	today, err := s.resolveToday(req.Today)
	if err != nil {
		return nil, err
	}

	cacheable := req.Preferences == nil && len(req.Suggestions) == 0
	cacheKey := fmt.Sprintf("plans:generate:%s:%s", userID, today)
	if cacheable && s.cache != nil {
		var cached planProposal
		if cacheErr := s.cache.Get(ctx, cacheKey, &cached); cacheErr == nil && cached.ProposalID != "" {
			// Re-register so a Save after a cache hit still finds the proposal.
			cached.RequestedAt = s.now()
			s.store.Save(cached)
			return &cached.Response, nil
		} else if cacheErr != nil && !errors.Is(cacheErr, appErrors.ErrCacheMiss) {
			s.logger.Warn("plan cache read failed", zap.Error(cacheErr))
		}
	}

	prefs, err := s.resolvePreferences(ctx, userID, req.Preferences)
	if err != nil {
		return nil, err
	}

	records, err := s.tasks.ListOpenByUser(ctx, userID, today.Time())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course tasks")
	}

	plannerTasks := buildPlannerTasks(records, req.Suggestions)
	result := planner.Schedule(plannerTasks, prefs, today)

	if s.metrics != nil {
		s.metrics.RecordPlanGeneration(string(result.Relaxation))
	}

	proposal := planProposal{
		ProposalID:  uuid.NewString(),
		UserID:      userID,
		Result:      result,
		RequestedAt: s.now(),
	}
	proposal.Response = *toPlanResponse(proposal.ProposalID, result)
	s.store.Save(proposal)

	if cacheable && s.cache != nil {
		if cacheErr := s.cache.Set(ctx, cacheKey, proposal, s.cacheTTL); cacheErr != nil {
			s.logger.Warn("plan cache write failed", zap.Error(cacheErr))
		}
	}

	s.logger.Info("study plan generated",
		zap.String("user_id", userID),
		zap.String("relaxation", string(result.Relaxation)),
		zap.Bool("ok", result.OK),
		zap.Int("unplaced", len(result.Unplaced)),
	)
	return &proposal.Response, nil
}

// Save persists a feasible proposal as the next plan version for its week.
func (s *PlanService) Save(ctx context.Context, userID string, req dto.SavePlanRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save plan payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok || proposal.UserID != userID {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if !proposal.Result.OK {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal is not feasible and cannot be saved")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	txStart := s.now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"relaxation": proposal.Result.Relaxation,
		"tasks":      proposal.Response.Tasks,
		"unplaced":   proposal.Response.Unplaced,
		"generated":  proposal.RequestedAt,
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode plan metadata")
		return "", err
	}

	record := &models.StudyPlan{
		UserID:     userID,
		WeekStart:  proposal.Result.WeekStart.Time(),
		Status:     models.StudyPlanStatusDraft,
		Relaxation: string(proposal.Result.Relaxation),
		Meta:       types.JSONText(metaBytes),
	}
	if err = s.plans.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create study plan")
		return "", err
	}

	var blocks []models.StudyPlanBlock
	for _, day := range proposal.Result.Days {
		for _, block := range day.Blocks {
			blocks = append(blocks, models.StudyPlanBlock{
				StudyPlanID: record.ID,
				PlanDate:    day.Date.Time(),
				TaskID:      block.TaskID,
				PartID:      block.PartID,
				Title:       block.Title,
				Minutes:     block.Minutes,
				Reason:      block.Reason,
			})
		}
	}
	if err = s.plans.UpsertBlocks(ctx, tx, blocks); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist study plan blocks")
		return "", err
	}

	if req.Finalize {
		if err = s.plans.UpdateStatus(ctx, tx, record.ID, models.StudyPlanStatusFinal, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize study plan")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit plan transaction")
		return "", err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("plan_save", s.now().Sub(txStart))
	}

	s.store.Delete(req.ProposalID)
	if s.cache != nil {
		if cacheErr := s.cache.DeleteByPattern(ctx, fmt.Sprintf("plans:generate:%s:*", userID)); cacheErr != nil {
			s.logger.Warn("plan cache invalidation failed", zap.Error(cacheErr))
		}
	}
	return record.ID, nil
}

// List returns saved plan versions for the caller, optionally scoped to a
// week. The second return value is the total count before pagination.
func (s *PlanService) List(ctx context.Context, userID string, query dto.PlanListQuery) ([]models.StudyPlan, int, error) {
	var weekStart *time.Time
	if query.WeekStart != "" {
		parsed, err := planner.ParseDate(query.WeekStart)
		if err != nil {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, "weekStart must use YYYY-MM-DD format")
		}
		ts := parsed.Time()
		weekStart = &ts
	}
	plans, err := s.plans.ListByUser(ctx, userID, weekStart)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study plans")
	}

	total := len(plans)
	page, pageSize := normalizePage(query.Page, query.PageSize)
	offset := (page - 1) * pageSize
	if offset >= total {
		return []models.StudyPlan{}, total, nil
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return plans[offset:end], total, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// Get loads one saved plan with its blocks.
func (s *PlanService) Get(ctx context.Context, userID, planID string) (*models.StudyPlan, []models.StudyPlanBlock, error) {
	plan, err := s.findOwnedPlan(ctx, userID, planID)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := s.plans.ListBlocks(ctx, planID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study plan blocks")
	}
	return plan, blocks, nil
}

// Delete removes a draft plan version.
func (s *PlanService) Delete(ctx context.Context, userID, planID string) error {
	plan, err := s.findOwnedPlan(ctx, userID, planID)
	if err != nil {
		return err
	}
	if plan.Status != models.StudyPlanStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft plans can be deleted")
	}
	if err := s.plans.Delete(ctx, planID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study plan")
	}
	return nil
}

func (s *PlanService) findOwnedPlan(ctx context.Context, userID, planID string) (*models.StudyPlan, error) {
	if planID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "plan id is required")
	}
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan")
	}
	if plan.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
	}
	return plan, nil
}

func (s *PlanService) resolveToday(raw string) (planner.Date, error) {
	if raw == "" {
		return planner.DateOf(s.now()), nil
	}
	today, err := planner.ParseDate(raw)
	if err != nil {
		return planner.Date{}, appErrors.Clone(appErrors.ErrValidation, "today must use YYYY-MM-DD format")
	}
	return today, nil
}

func (s *PlanService) resolvePreferences(ctx context.Context, userID string, override *dto.PreferencesInput) (planner.Preferences, error) {
	prefs := planner.Preferences{DailyHourCap: 2, WeeklyStudyDays: 5}

	if s.prefs != nil {
		stored, err := s.prefs.GetByUser(ctx, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return planner.Preferences{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study preferences")
		}
		if stored != nil {
			prefs.DailyHourCap = stored.DailyHourCap
			prefs.WeeklyStudyDays = stored.WeeklyStudyDays
			var avoid []string
			if len(stored.AvoidDays) > 0 {
				// Malformed stored JSON falls back to an empty avoid set.
				_ = json.Unmarshal(stored.AvoidDays, &avoid)
			}
			prefs.AvoidDays = planner.ParseAvoidDays(avoid)
		}
	}

	if override != nil {
		if override.DailyHourCap > 0 {
			prefs.DailyHourCap = override.DailyHourCap
		}
		if override.WeeklyStudyDays > 0 {
			prefs.WeeklyStudyDays = override.WeeklyStudyDays
		}
		if override.AvoidDays != nil {
			prefs.AvoidDays = planner.ParseAvoidDays(override.AvoidDays)
		}
	}
	return prefs.Normalize(), nil
}

func buildPlannerTasks(records []models.CourseTask, suggestions []dto.TaskSuggestion) []planner.TaskWithParts {
	suggestionByTask := make(map[string]dto.TaskSuggestion, len(suggestions))
	for _, suggestion := range suggestions {
		suggestionByTask[suggestion.TaskID] = suggestion
	}

	tasks := make([]planner.TaskWithParts, 0, len(records))
	for _, record := range records {
		suggestion := suggestionByTask[record.ID]

		var suggested []planner.SuggestedPart
		for _, part := range suggestion.Parts {
			suggested = append(suggested, planner.SuggestedPart{
				Order: part.Order,
				Title: part.Title,
				Notes: part.Notes,
			})
		}

		minutes := planner.EstimateMinutes(record.HoursHint, suggestion.SuggestedHours, record.SourceText)
		tasks = append(tasks, planner.TaskWithParts{
			TaskID:  record.ID,
			Title:   record.Title,
			DueDate: planner.DateOf(record.DueDate),
			Parts:   planner.SplitParts(minutes, suggested, suggestion.PreferredCount),
		})
	}
	return tasks
}

func toPlanResponse(proposalID string, result planner.Result) *dto.GeneratePlanResponse {
	resp := &dto.GeneratePlanResponse{
		ProposalID: proposalID,
		OK:         result.OK,
		Relaxation: string(result.Relaxation),
		Message:    result.Message,
		WeekStart:  result.WeekStart.String(),
	}

	for _, day := range result.Days {
		out := dto.PlanDay{
			Date:            day.Date.String(),
			CapacityMinutes: day.CapacityMinutes,
			UsedMinutes:     day.UsedMinutes,
		}
		for _, block := range day.Blocks {
			out.Blocks = append(out.Blocks, dto.BlockItem{
				TaskID:  block.TaskID,
				PartID:  block.PartID,
				Title:   block.Title,
				Minutes: block.Minutes,
				Reason:  block.Reason,
			})
		}
		resp.Days = append(resp.Days, out)
	}

	for _, summary := range result.TaskSummaries {
		item := dto.TaskSummaryItem{
			TaskID:       summary.TaskID,
			Title:        summary.TaskTitle,
			DueDate:      summary.DueDate.String(),
			TotalMinutes: summary.TotalMinutes,
		}
		for _, part := range summary.Parts {
			item.Parts = append(item.Parts, dto.PartSummaryItem{
				PartID:  part.PartID,
				Order:   part.Order,
				Title:   part.Title,
				Minutes: part.Minutes,
				Percent: part.Percent,
				Notes:   part.Notes,
			})
		}
		resp.Tasks = append(resp.Tasks, item)
	}

	for _, remainder := range result.Unplaced {
		resp.Unplaced = append(resp.Unplaced, dto.UnplacedPartItem{
			TaskID:           remainder.TaskID,
			PartID:           remainder.PartID,
			Title:            remainder.Title,
			MinutesRemaining: remainder.MinutesRemaining,
			DueDate:          remainder.DueDate.String(),
		})
	}
	return resp
}

// --- Proposal cache ---

type planProposal struct {
	ProposalID  string                   `json:"proposalId"`
	UserID      string                   `json:"userId"`
	Result      planner.Result           `json:"result"`
	Response    dto.GeneratePlanResponse `json:"response"`
	RequestedAt time.Time                `json:"requestedAt"`
}

type planProposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]planProposal
}

func newPlanProposalStore(ttl time.Duration) *planProposalStore {
	return &planProposalStore{
		ttl:   ttl,
		items: make(map[string]planProposal),
	}
}

func (s *planProposalStore) Save(proposal planProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *planProposalStore) Get(id string) (planProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return planProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return planProposal{}, false
	}
	return proposal, true
}

func (s *planProposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
