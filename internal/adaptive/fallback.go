package adaptive

import (
	"math"

	"github.com/example/srsengine/pkg/models"
)

// localAnalysis approximates the reasoning analysis from the review response
// alone, using only quality, confidence and response time. It is the
// fallback when the analysis service is unavailable so that a review is
// never lost; the formulas mirror the service's own adaptive-factor
// derivation.
func localAnalysis(resp models.ReviewResponse) *models.AnalysisResult {
	q := float64(resp.Quality) / 5.0
	timeRatio := math.Min(1.0, float64(resp.ResponseTimeMs)/60000.0)

	depth := clamp01(0.7*q + 0.3*resp.ConfidenceLevel)
	pattern := clamp01(0.5*q + 0.5*resp.ConfidenceLevel)
	load := clamp01(0.5*timeRatio + 0.5*(1.0-q))

	insights := models.AnalysisInsights{OptimalMinutes: 30}
	if depth > 0.7 {
		insights.Strengths = append(insights.Strengths, "Deep analytical thinking")
	}
	if pattern > 0.7 {
		insights.Strengths = append(insights.Strengths, "Strong pattern recognition")
	}
	if load < 0.4 {
		insights.Strengths = append(insights.Strengths, "Efficient cognitive processing")
	}
	if depth < 0.5 {
		insights.ImprovementAreas = append(insights.ImprovementAreas, "Logical reasoning development")
		insights.Recommendations = append(insights.Recommendations, "Practice multi-step problems")
	}
	if pattern < 0.5 {
		insights.ImprovementAreas = append(insights.ImprovementAreas, "Pattern identification skills")
		insights.Recommendations = append(insights.Recommendations, "Study recurring question patterns")
	}
	if load > 0.8 {
		insights.ImprovementAreas = append(insights.ImprovementAreas, "Cognitive load management")
		insights.Recommendations = append(insights.Recommendations, "Break down complex problems")
		insights.OptimalMinutes = 20
	} else if load < 0.3 {
		insights.OptimalMinutes = 45
	}

	return &models.AnalysisResult{
		ReasoningDepth:        depth,
		PatternRecognition:    pattern,
		CognitiveLoad:         load,
		RecommendedDifficulty: clamp01(0.7*(1.0-q) + 0.3*load),
		AdaptiveFactors: models.AdaptiveFactors{
			DifficultyMultiplier: (depth + pattern) / 2,
			IntervalAdjustment:   1.0 + (1.0-load)*0.5,
			ConfidenceFactor:     (depth + pattern) / 2,
			RetentionPrediction:  math.Min(1.0, 0.4*depth+0.3*pattern+0.3*(1.0-load)),
		},
		LearningInsights: insights,
	}
}
