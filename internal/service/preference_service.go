package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/planner"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
)

type studyPreferenceRepo interface {
	GetByUser(ctx context.Context, userID string) (*models.StudyPreference, error)
	Upsert(ctx context.Context, pref *models.StudyPreference) error
}

// PreferenceService handles study preference logic.
type PreferenceService struct {
	repo      studyPreferenceRepo
	cache     planCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService builds the service. cache may be nil.
func NewPreferenceService(repo studyPreferenceRepo, cache planCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Get returns stored preferences or defaults.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*models.StudyPreference, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user context missing")
	}
	pref, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.StudyPreference{
				UserID:          userID,
				DailyHourCap:    2,
				WeeklyStudyDays: 5,
				AvoidDays:       types.JSONText("[]"),
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study preferences")
	}
	return pref, nil
}

// Upsert stores preferences for a user. Unknown weekday names in avoidDays
// are rejected rather than silently dropped.
func (s *PreferenceService) Upsert(ctx context.Context, userID string, req dto.PreferencesRequest) (*models.StudyPreference, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user context missing")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	for _, day := range req.AvoidDays {
		if _, ok := planner.ParseWeekday(day); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "avoidDays contains an unrecognized weekday: "+day)
		}
	}

	var raw types.JSONText = types.JSONText("[]")
	if len(req.AvoidDays) > 0 {
		bytes, err := json.Marshal(req.AvoidDays)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid avoidDays payload")
		}
		raw = types.JSONText(bytes)
	}

	payload := &models.StudyPreference{
		UserID:          userID,
		DailyHourCap:    req.DailyHourCap,
		WeeklyStudyDays: req.WeeklyStudyDays,
		AvoidDays:       raw,
	}

	existing, err := s.repo.GetByUser(ctx, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study preferences")
	}
	if existing != nil {
		payload.ID = existing.ID
		payload.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert study preferences")
	}
	// New budgets change what the planner may generate.
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "plans:generate:"+userID+":*"); err != nil {
			s.logger.Warn("plan cache invalidation failed", zap.Error(err))
		}
	}
	return payload, nil
}
