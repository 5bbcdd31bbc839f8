package models

// AnalysisRequest is the feature payload sent to the reasoning analysis
// collaborator for one review event.
type AnalysisRequest struct {
	UserID      string
	ProblemType string // flashcard, quiz, assessment or adaptive_path
	Response    ReviewResponse
	Context     ReviewContext
	History     AnalysisHistory
}

// AnalysisHistory carries prior-state features the collaborator conditions on.
type AnalysisHistory struct {
	TotalReviews             int       `json:"total_reviews"`
	SuccessRate              float64   `json:"success_rate"`
	AverageResponseTimeMs    float64   `json:"average_response_time_ms"`
	RecentQuality            []int     `json:"recent_quality"`
	RecentReasoningDepth     []float64 `json:"recent_reasoning_depth"`
	RecentPatternRecognition []float64 `json:"recent_pattern_recognition"`
	RecentCognitiveLoad      []float64 `json:"recent_cognitive_load"`
}

// AdaptiveFactors are collaborator-supplied multipliers for schedule blending.
type AdaptiveFactors struct {
	DifficultyMultiplier float64 `json:"difficulty_multiplier"`
	IntervalAdjustment   float64 `json:"interval_adjustment"`
	ConfidenceFactor     float64 `json:"confidence_factor"`
	RetentionPrediction  float64 `json:"retention_prediction"`
}

// AnalysisInsights are collaborator-supplied study hints.
type AnalysisInsights struct {
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	Recommendations  []string `json:"recommendations"`
	OptimalMinutes   int      `json:"optimal_minutes"`
}

// AnalysisResult is the reasoning analysis for a single review.
// All scalar fields are documented to lie in [0, 1]; values outside that
// range are a contract violation and must not be used.
type AnalysisResult struct {
	ReasoningDepth        float64          `json:"reasoning_depth"`
	PatternRecognition    float64          `json:"pattern_recognition"`
	CognitiveLoad         float64          `json:"cognitive_load"`
	RecommendedDifficulty float64          `json:"recommended_difficulty"`
	AdaptiveFactors       AdaptiveFactors  `json:"adaptive_factors"`
	LearningInsights      AnalysisInsights `json:"learning_insights"`
	ProcessingTimeMs      int              `json:"processing_time_ms"`
}
