package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"campusfin/internal/analytics"
	"campusfin/internal/cache"
	"campusfin/internal/config"
	apperrors "campusfin/internal/errors"
	"campusfin/internal/forecast"
	"campusfin/internal/logger"
	"campusfin/internal/models"
)

const (
	defaultHorizonDays = 30
	// academicLookaround widens the calendar query so context fields such as
	// days_to_next_exam see events just outside the horizon.
	academicLookaround = 30
)

// ForecastDeps are the collaborators the forecast pipeline reads from.
type ForecastDeps struct {
	Students    StudentServicer
	Analytics   AnalyticsServicer
	Categories  CategoryServicer
	Obligations ObligationServicer
	Rules       RuleServicer
}

// forecastService validates forecast requests and runs the pipeline behind
// the forecast cache.
type forecastService struct {
	deps      ForecastDeps
	cache     *cache.ForecastCache
	generator *forecast.Generator
	cfg       config.ForecastConfig
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewForecastService creates a new ForecastServicer.
func NewForecastService(deps ForecastDeps, forecastCache *cache.ForecastCache, cfg config.ForecastConfig) ForecastServicer {
	return &forecastService{
		deps:      deps,
		cache:     forecastCache,
		generator: forecast.NewGenerator(cfg),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("forecast"),
	}
}

// GetForecast returns the cached forecast for req, generating it on a miss.
func (s *forecastService) GetForecast(ctx context.Context, req ForecastRequest) (*models.CachedPrediction, error) {
	switch req.Type {
	case models.PredictionTypeIncome, models.PredictionTypeExpense, models.PredictionTypeBalance:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "prediction type must be income, expense or balance")
	}

	horizon, err := s.horizon(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	ci := req.ConfidenceInterval
	if ci == 0 {
		ci = s.cfg.DefaultConfidence
	}
	if ci <= 0 || ci >= 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "confidence interval must be between 0 and 1")
	}

	student, err := s.deps.Students.GetStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	scope := forecast.Scope{Type: req.Type}
	if req.CategoryID != "" {
		category, err := s.deps.Categories.GetCategory(ctx, student.ID, req.CategoryID)
		if err != nil {
			return nil, err
		}
		if req.Type != models.PredictionTypeBalance && string(category.Type) != string(req.Type) {
			return nil, apperrors.ErrCategoryTypeMismatch
		}
		scope.CategoryID = category.ID
		scope.CategoryName = category.Name
	}

	key := cache.Key{
		StudentID:          student.ID,
		Type:               req.Type,
		Start:              horizon.Start,
		End:                horizon.End,
		ConfidenceInterval: ci,
		CategoryID:         scope.CategoryID,
	}
	return s.cache.GetOrGenerate(ctx, key, func(ctx context.Context) (*models.CachedPrediction, error) {
		return s.compute(ctx, student, scope, horizon, ci)
	})
}

// horizon normalizes the requested dates to whole UTC days.
func (s *forecastService) horizon(start, end time.Time) (analytics.Window, error) {
	if start.IsZero() {
		start = s.now()
	}
	start = analytics.DayStart(start)
	if end.IsZero() {
		end = start.AddDate(0, 0, defaultHorizonDays)
	}
	end = analytics.DayStart(end)

	w, err := analytics.NewWindow(start, end)
	if err != nil {
		return analytics.Window{}, err
	}
	if w.Days() > s.cfg.MaxHorizonDays {
		return analytics.Window{}, apperrors.WithMessage(apperrors.ErrInvalidWindow,
			fmt.Sprintf("forecast horizon must not exceed %d days", s.cfg.MaxHorizonDays))
	}
	return w, nil
}

// compute gathers the pipeline inputs and runs the generator.
func (s *forecastService) compute(
	ctx context.Context,
	student *models.Student,
	scope forecast.Scope,
	horizon analytics.Window,
	ci float64,
) (*models.CachedPrediction, error) {
	// History never reaches past today, even for forecasts starting later.
	historyEnd := horizon.Start
	if tomorrow := analytics.DayStart(s.now()).AddDate(0, 0, 1); historyEnd.After(tomorrow) {
		historyEnd = tomorrow
	}
	historyWindow := forecast.HistoryWindow(historyEnd, s.cfg.HistoryDays)

	history, err := s.deps.Analytics.GetHistory(ctx, student.ID, historyWindow)
	if err != nil {
		return nil, err
	}
	budget, err := s.deps.Analytics.GetBudgetAnalysis(ctx, student.ID, &student.MonthlyAllowance)
	if err != nil {
		return nil, err
	}
	categories, err := s.deps.Categories.CategoryMap(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	debts, err := s.deps.Obligations.ListActiveDebts(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	events, err := s.deps.Obligations.ListFutureEvents(ctx, student.ID, horizon.Start, horizon.End)
	if err != nil {
		return nil, err
	}
	academic, err := s.deps.Obligations.ListAcademicEvents(ctx, student.ID,
		horizon.Start.AddDate(0, 0, -academicLookaround), horizon.End.AddDate(0, 0, academicLookaround))
	if err != nil {
		return nil, err
	}
	rules, err := s.deps.Rules.ListActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	out := s.generator.Generate(forecast.Input{
		Scope:              scope,
		Horizon:            horizon,
		ConfidenceInterval: ci,
		Student:            *student,
		History:            history,
		HistoryWindow:      historyWindow,
		Categories:         categories,
		Budget:             *budget,
		Debts:              debts,
		FutureEvents:       events,
		AcademicEvents:     academic,
		Rules:              rules,
	})

	if out.Metrics.TransactionCount < s.cfg.MinHistory {
		s.logger.Infow("Forecast built on short history",
			"student_id", student.ID,
			"error", apperrors.ErrInsufficientHistory.Code,
			"transactions", out.Metrics.TransactionCount,
			"confidence", out.Confidence,
		)
	}
	if len(out.Skipped) > 0 {
		s.logger.Warnw("Forecast generated with skipped rules",
			"student_id", student.ID,
			"skipped", len(out.Skipped),
			"applied", len(out.Applied),
		)
	}

	return &models.CachedPrediction{
		Confidence:         out.Confidence,
		ForecastData:       datatypes.NewJSONSlice(nonNil(out.Points)),
		AdjustmentsApplied: datatypes.NewJSONSlice(nonNil(out.Applied)),
		ModelMetrics:       datatypes.NewJSONType(out.Metrics),
		Insights:           datatypes.NewJSONSlice(nonNil(out.Insights)),
		Adjustments:        out.Adjustments,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
