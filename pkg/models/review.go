package models

// ReviewResponse is a single review event as reported by the caller.
type ReviewResponse struct {
	Quality         int      `json:"quality"`           // 0-5 recall grade
	ResponseTimeMs  int64    `json:"response_time_ms"`  // must not be negative
	ConfidenceLevel float64  `json:"confidence_level"`  // 0-1 self-reported confidence
	HintsUsed       int      `json:"hints_used"`
	ReasoningSteps  []string `json:"reasoning_steps,omitempty"` // only the count is used as a signal

	// Derived labels computed upstream of the engine.
	PartialCorrect         bool    `json:"partial_correct"`
	ProblemSolvingApproach string  `json:"problem_solving_approach,omitempty"`
	MetacognitiveAwareness float64 `json:"metacognitive_awareness"`
}

// ReviewContext carries the study context a review happened in.
type ReviewContext struct {
	Subject         string  `json:"subject"`
	Topic           string  `json:"topic"`
	DifficultyLevel float64 `json:"difficulty_level"` // 0-1
	SessionID       string  `json:"session_id,omitempty"`
}

// PerformanceFeedback is display-only text generated from the grade band.
type PerformanceFeedback struct {
	Level                     string `json:"level"` // excellent, good, fair, poor
	Message                   string `json:"message"`
	NextSessionRecommendation string `json:"next_session_recommendation"`
}

// AdaptiveRecommendations suggests what the learner should do next.
type AdaptiveRecommendations struct {
	NextDifficultyLevel float64  `json:"next_difficulty_level"` // 0-1
	StudyFocusAreas     []string `json:"study_focus_areas"`     // at most 3
	OptimalReviewTime   string   `json:"optimal_review_time"`
	ComplementaryTopics []string `json:"complementary_topics"` // at most 3
}

// LearningInsights summarizes the reasoning analysis for display.
type LearningInsights struct {
	CognitiveLoadAssessment   string  `json:"cognitive_load_assessment"` // low, moderate, high
	ReasoningPatternEvolution string  `json:"reasoning_pattern_evolution"`
	MasteryPrediction         float64 `json:"mastery_prediction"`   // 0-1
	RetentionConfidence       float64 `json:"retention_confidence"` // 0-1
}

// AdaptiveResult is the full outcome of scheduling one review.
type AdaptiveResult struct {
	State           *CardMemoryState        `json:"updated_state"`
	Feedback        PerformanceFeedback     `json:"performance_feedback"`
	Recommendations AdaptiveRecommendations `json:"adaptive_recommendations"`
	Insights        LearningInsights        `json:"learning_insights"`

	// UsedFallback is set when the analysis collaborator was unavailable and
	// the schedule was computed from the local approximation.
	UsedFallback bool `json:"used_fallback"`
}
