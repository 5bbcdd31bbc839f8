// Package adaptive blends the SM-2 base schedule with reasoning analysis
// from an external collaborator into a personalized review schedule. The
// engine is pure computation: it owns no storage and no transport, and the
// analysis collaborator is injected so everything is testable offline.
package adaptive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/srsengine/internal/hrm"
	"github.com/example/srsengine/internal/sm2"
	"github.com/example/srsengine/pkg/models"
)

// Analyzer supplies the reasoning analysis for one review event.
type Analyzer interface {
	Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Tunables are the empirically tuned adjustment constants. They came from
// product experiments, not from theory, so they are parameters rather than
// hard-coded thresholds.
type Tunables struct {
	// Reasoning-depth factor
	DeepReasoningThreshold    float64 // reasoning depth above this counts as deep
	DeepPatternThreshold      float64 // pattern recognition needed alongside deep reasoning
	DeepReasoningBoost        float64
	ShallowReasoningThreshold float64
	ShallowReasoningDamp      float64

	// Cognitive-load factor
	HighLoadThreshold float64
	HighLoadDamp      float64
	LowLoadThreshold  float64
	LowLoadBoost      float64

	// Trajectory factor
	TrendThreshold float64 // magnitude of improvement rate that triggers adjustment
	TrendBoost     float64
	TrendDamp      float64

	// Every factor is clamped into [FactorFloor, FactorCeil] before the
	// factors are multiplied, so no single signal can run the schedule away.
	// The personalization factor keeps its own wider documented ceiling.
	FactorFloor         float64
	FactorCeil          float64
	PersonalizationCeil float64

	MinIntervalDays int
	MaxIntervalDays int
}

// DefaultTunables returns the production constants.
func DefaultTunables() Tunables {
	return Tunables{
		DeepReasoningThreshold:    0.8,
		DeepPatternThreshold:      0.7,
		DeepReasoningBoost:        1.3,
		ShallowReasoningThreshold: 0.5,
		ShallowReasoningDamp:      0.7,
		HighLoadThreshold:         0.8,
		HighLoadDamp:              0.8,
		LowLoadThreshold:          0.3,
		LowLoadBoost:              1.2,
		TrendThreshold:            0.2,
		TrendBoost:                1.15,
		TrendDamp:                 0.85,
		FactorFloor:               0.5,
		FactorCeil:                1.5,
		PersonalizationCeil:       2.0,
		MinIntervalDays:           1,
		MaxIntervalDays:           365,
	}
}

// Engine computes adaptive schedules. Create one with NewEngine and share it
// freely; it holds no per-review state.
type Engine struct {
	base     *sm2.SM2
	analyzer Analyzer
	cfg      Tunables
}

// NewEngine creates an engine with default tunables. A nil analyzer is
// allowed: every review then uses the local approximation.
func NewEngine(analyzer Analyzer) *Engine {
	return NewEngineWithTunables(analyzer, DefaultTunables())
}

// NewEngineWithTunables creates an engine with explicit tunables.
func NewEngineWithTunables(analyzer Analyzer, cfg Tunables) *Engine {
	return &Engine{
		base:     sm2.NewSM2(),
		analyzer: analyzer,
		cfg:      cfg,
	}
}

// Schedule runs one review through the base scheduler, the reasoning
// analysis and the adjustment blending, returning the updated card state
// plus feedback and recommendations. prior may be nil on a card's first
// review. The prior state is never modified; persisting the returned state
// is the caller's job.
//
// A failing analysis collaborator never fails the review: the engine falls
// back to the local approximation and marks the result accordingly.
func (e *Engine) Schedule(ctx context.Context, userID, cardID int64, prior *models.CardMemoryState, resp models.ReviewResponse, rctx models.ReviewContext, now time.Time) (*models.AdaptiveResult, error) {
	baseResult, err := e.base.ComputeBase(prior, resp, now)
	if err != nil {
		return nil, err
	}

	analysis, usedFallback := e.analyze(ctx, userID, prior, resp, rctx)

	multiplier := e.intervalMultiplier(prior, analysis)
	interval := int(math.Round(clampF(float64(baseResult.IntervalDays)*multiplier, float64(e.cfg.MinIntervalDays), float64(e.cfg.MaxIntervalDays))))
	easeFactor := math.Max(1.3, baseResult.EaseFactor*analysis.AdaptiveFactors.DifficultyMultiplier)

	state := e.nextState(prior, userID, cardID, baseResult, resp, analysis, interval, easeFactor, now)

	return &models.AdaptiveResult{
		State:           state,
		Feedback:        baseResult.Feedback,
		Recommendations: e.recommendations(state, analysis, rctx),
		Insights:        e.insights(state, analysis),
		UsedFallback:    usedFallback,
	}, nil
}

// analyze calls the collaborator and falls back to the local approximation
// on any failure. The second return value reports whether the fallback ran.
func (e *Engine) analyze(ctx context.Context, userID int64, prior *models.CardMemoryState, resp models.ReviewResponse, rctx models.ReviewContext) (*models.AnalysisResult, bool) {
	if e.analyzer == nil {
		return localAnalysis(resp), true
	}

	req := buildAnalysisRequest(userID, prior, resp, rctx)
	result, err := e.analyzer.Analyze(ctx, req)
	if err != nil {
		if errors.Is(err, hrm.ErrContractViolation) {
			// A collaborator bug, not a transient outage. Shout.
			log.Printf("ERROR: analysis service violated its contract, using local fallback: %v", err)
		} else {
			log.Printf("analysis service unavailable, using local fallback: %v", err)
		}
		return localAnalysis(resp), true
	}
	// Custom Analyzer implementations may skip range validation; reject
	// out-of-range results here as well rather than scheduling with them.
	if err := hrm.Validate(result); err != nil {
		log.Printf("ERROR: analysis result rejected, using local fallback: %v", err)
		return localAnalysis(resp), true
	}
	return result, false
}

func buildAnalysisRequest(userID int64, prior *models.CardMemoryState, resp models.ReviewResponse, rctx models.ReviewContext) *models.AnalysisRequest {
	req := &models.AnalysisRequest{
		UserID:      strconv.FormatInt(userID, 10),
		ProblemType: "flashcard",
		Response:    resp,
		Context:     rctx,
	}
	if prior != nil {
		req.History = models.AnalysisHistory{
			TotalReviews:             prior.TotalReviews,
			SuccessRate:              prior.SuccessRate,
			AverageResponseTimeMs:    prior.AverageResponseTimeMs,
			RecentQuality:            prior.QualityHistory,
			RecentReasoningDepth:     prior.ReasoningDepthHistory,
			RecentPatternRecognition: prior.PatternRecognitionHistory,
			RecentCognitiveLoad:      prior.CognitiveLoadHistory,
		}
	}
	return req
}

// intervalMultiplier composes the five adjustment factors. Each factor is
// bounded on its own before the product is taken.
func (e *Engine) intervalMultiplier(prior *models.CardMemoryState, a *models.AnalysisResult) float64 {
	t := e.cfg

	// Reasoning quality scales the collaborator's own interval adjustment.
	reasoning := a.AdaptiveFactors.IntervalAdjustment
	switch {
	case a.ReasoningDepth > t.DeepReasoningThreshold && a.PatternRecognition > t.DeepPatternThreshold:
		reasoning *= t.DeepReasoningBoost
	case a.ReasoningDepth < t.ShallowReasoningThreshold:
		reasoning *= t.ShallowReasoningDamp
	}

	load := 1.0
	switch {
	case a.CognitiveLoad > t.HighLoadThreshold:
		load = t.HighLoadDamp
	case a.CognitiveLoad < t.LowLoadThreshold:
		load = t.LowLoadBoost
	}

	confidence := a.AdaptiveFactors.ConfidenceFactor

	trajectory := 1.0
	if prior != nil {
		switch rate := improvementRate(prior.PatternRecognitionHistory); {
		case rate > t.TrendThreshold:
			trajectory = t.TrendBoost
		case rate < -t.TrendThreshold:
			trajectory = t.TrendDamp
		}
	}

	personalization := 1.0
	if prior != nil && prior.PersonalizedIntervalMultiplier > 0 {
		personalization = prior.PersonalizedIntervalMultiplier
	}

	return clampF(reasoning, t.FactorFloor, t.FactorCeil) *
		clampF(load, t.FactorFloor, t.FactorCeil) *
		clampF(confidence, t.FactorFloor, t.FactorCeil) *
		clampF(trajectory, t.FactorFloor, t.FactorCeil) *
		clampF(personalization, t.FactorFloor, t.PersonalizationCeil)
}

// nextState builds the updated card state value. Histories are copied before
// appending so the prior state stays intact for the caller's CAS retry.
func (e *Engine) nextState(prior *models.CardMemoryState, userID, cardID int64, base *sm2.Result, resp models.ReviewResponse, a *models.AnalysisResult, interval int, easeFactor float64, now time.Time) *models.CardMemoryState {
	st := models.NewCardMemoryState(userID, cardID)
	if prior != nil {
		st.ID = prior.ID
		st.Version = prior.Version
		st.CreatedAt = prior.CreatedAt
		st.TotalReviews = prior.TotalReviews
		st.AverageResponseTimeMs = prior.AverageResponseTimeMs
		st.QualityHistory = append(models.IntList{}, prior.QualityHistory...)
		st.ReasoningDepthHistory = append(models.FloatList{}, prior.ReasoningDepthHistory...)
		st.PatternRecognitionHistory = append(models.FloatList{}, prior.PatternRecognitionHistory...)
		st.CognitiveLoadHistory = append(models.FloatList{}, prior.CognitiveLoadHistory...)
	}

	st.EaseFactor = easeFactor
	st.IntervalDays = interval
	st.Repetitions = base.Repetitions
	st.NextReviewDate = now.AddDate(0, 0, interval)
	st.LastReviewDate = now

	st.QualityHistory = models.AppendBounded(st.QualityHistory, resp.Quality, models.HistoryCap)
	st.ReasoningDepthHistory = models.AppendBounded(st.ReasoningDepthHistory, a.ReasoningDepth, models.HistoryCap)
	st.PatternRecognitionHistory = models.AppendBounded(st.PatternRecognitionHistory, a.PatternRecognition, models.HistoryCap)
	st.CognitiveLoadHistory = models.AppendBounded(st.CognitiveLoadHistory, a.CognitiveLoad, models.HistoryCap)

	st.TotalReviews++
	st.SuccessRate = successRate(st.QualityHistory)
	st.AverageResponseTimeMs = (st.AverageResponseTimeMs*float64(st.TotalReviews-1) + float64(resp.ResponseTimeMs)) / float64(st.TotalReviews)
	st.DifficultyTrend = DifficultyTrendOf(st.QualityHistory)

	st.AdaptiveDifficultyLevel = a.RecommendedDifficulty
	st.HRMConfidenceScore = a.AdaptiveFactors.ConfidenceFactor
	st.PersonalizedIntervalMultiplier = e.personalizedMultiplier(st)

	st.UpdatedAt = now
	return st
}

// personalizedMultiplier derives the per-card multiplier from how consistent
// the learner's reasoning depth is, how their pattern recognition is
// trending, and how loaded their recent reviews were. The three signals
// combine multiplicatively and are clamped to the documented [0.5, 2.0].
func (e *Engine) personalizedMultiplier(st *models.CardMemoryState) float64 {
	consistencySignal := 0.8 + 0.4*consistency(st.ReasoningDepthHistory)
	trendSignal := 1.0 + clampF(improvementRate(st.PatternRecognitionHistory), -0.3, 0.3)
	loadSignal := 1.2 - 0.4*meanTail(st.CognitiveLoadHistory, 5)
	return clampF(consistencySignal*trendSignal*loadSignal, 0.5, 2.0)
}

func successRate(history []int) float64 {
	if len(history) == 0 {
		return 0
	}
	successes := 0
	for _, q := range history {
		if q >= 3 {
			successes++
		}
	}
	return float64(successes) / float64(len(history))
}

// DifficultyTrendOf classifies the quality-history slope by comparing the
// last five grades against the five before them.
func DifficultyTrendOf(history []int) string {
	if len(history) < 3 {
		return models.TrendStable
	}
	xs := intsToFloats(history)
	recent := tail(xs, 5)
	older := xs[:len(xs)-len(recent)]
	if len(older) == 0 {
		return models.TrendStable
	}
	if len(older) > 5 {
		older = older[len(older)-5:]
	}
	switch diff := mean(recent) - mean(older); {
	case diff > 0.3:
		return models.TrendImproving
	case diff < -0.3:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func (e *Engine) recommendations(st *models.CardMemoryState, a *models.AnalysisResult, rctx models.ReviewContext) models.AdaptiveRecommendations {
	focus := a.LearningInsights.ImprovementAreas
	if len(focus) > 3 {
		focus = focus[:3]
	}

	return models.AdaptiveRecommendations{
		NextDifficultyLevel: round2(a.RecommendedDifficulty),
		StudyFocusAreas:     focus,
		OptimalReviewTime:   optimalReviewTime(a, st),
		ComplementaryTopics: complementaryTopics(rctx.Subject, focus),
	}
}

// optimalReviewTime adjusts the collaborator's suggested session length for
// the current cognitive load and the learner's historical response speed.
func optimalReviewTime(a *models.AnalysisResult, st *models.CardMemoryState) string {
	minutes := float64(a.LearningInsights.OptimalMinutes)
	if minutes <= 0 {
		minutes = 30
	}
	if a.CognitiveLoad > 0.7 {
		minutes *= 0.75
	} else if a.CognitiveLoad < 0.3 {
		minutes *= 1.25
	}
	// Slow recallers tire sooner; trim their sessions.
	if st.AverageResponseTimeMs > 30000 {
		minutes *= 0.9
	}
	rounded := int(math.Round(minutes))
	if rounded < 5 {
		rounded = 5
	}
	return fmt.Sprintf("%d minutes", rounded)
}

func complementaryTopics(subject string, weaknesses []string) []string {
	if subject == "" {
		subject = "General"
	}
	topics := make([]string, 0, 3)
	for _, w := range weaknesses {
		if len(topics) == 3 {
			break
		}
		topics = append(topics, fmt.Sprintf("%s: %s practice", subject, strings.ToLower(w)))
	}
	if len(topics) == 0 {
		topics = append(topics, fmt.Sprintf("%s: mixed review", subject))
	}
	return topics
}

func (e *Engine) insights(st *models.CardMemoryState, a *models.AnalysisResult) models.LearningInsights {
	return models.LearningInsights{
		CognitiveLoadAssessment:   loadAssessment(a.CognitiveLoad),
		ReasoningPatternEvolution: patternEvolution(st.PatternRecognitionHistory),
		MasteryPrediction:         round2(masteryPrediction(st)),
		RetentionConfidence:       round2(retentionConfidence(st, a)),
	}
}

func loadAssessment(load float64) string {
	switch {
	case load < 0.4:
		return "low"
	case load > 0.7:
		return "high"
	default:
		return "moderate"
	}
}

func patternEvolution(history []float64) string {
	if len(history) < 2 {
		return "not enough reviews to classify a trend yet"
	}
	switch rate := improvementRate(history); {
	case rate > 0.1:
		return "pattern recognition is strengthening"
	case rate < -0.1:
		return "pattern recognition is weakening"
	default:
		return "pattern recognition is holding steady"
	}
}

func masteryPrediction(st *models.CardMemoryState) float64 {
	current := (meanTail(st.ReasoningDepthHistory, 5) + meanTail(st.PatternRecognitionHistory, 5)) / 2
	consistencyBonus := 0.1 * consistency(st.ReasoningDepthHistory)
	improvementBonus := 0.5 * math.Max(0, improvementRate(st.PatternRecognitionHistory))
	return clamp01(current + consistencyBonus + improvementBonus)
}

func retentionConfidence(st *models.CardMemoryState, a *models.AnalysisResult) float64 {
	qualityConsistency := consistency(intsToFloats(st.QualityHistory))
	return clamp01(0.5*a.AdaptiveFactors.RetentionPrediction + 0.25*qualityConsistency + 0.25*a.ReasoningDepth)
}
