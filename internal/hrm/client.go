// Package hrm is the client for the reasoning-analysis service. The service
// scores each review for reasoning depth, pattern recognition and cognitive
// load; the adaptive scheduler blends those scores into the review interval.
package hrm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/example/srsengine/pkg/models"
)

var (
	// ErrUnavailable is returned when the analysis service cannot be reached
	// within the configured retries. Callers recover with the local fallback.
	ErrUnavailable = errors.New("analysis service unavailable")

	// ErrContractViolation is returned when the service answers with values
	// outside their documented 0-1 ranges. The result must be discarded, not
	// clamped: out-of-range values indicate a collaborator bug.
	ErrContractViolation = errors.New("analysis response violates contract")
)

// Config holds the analysis service connection settings.
type Config struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8000",
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}

// Client is an HTTP client for the analysis service.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a new analysis client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// NewFromEnv creates a client configured from environment variables.
// HRM_SERVICE_URL must be set; HRM_API_TOKEN, HRM_TIMEOUT_SECONDS and
// HRM_MAX_RETRIES are optional.
func NewFromEnv() (*Client, error) {
	baseURL := os.Getenv("HRM_SERVICE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("HRM_SERVICE_URL environment variable is not set")
	}

	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.APIToken = os.Getenv("HRM_API_TOKEN")
	if s := os.Getenv("HRM_TIMEOUT_SECONDS"); s != "" {
		if sec, err := strconv.Atoi(s); err == nil && sec > 0 {
			cfg.Timeout = time.Duration(sec) * time.Second
		}
	}
	if s := os.Getenv("HRM_MAX_RETRIES"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.MaxRetries = n
		}
	}
	return New(cfg), nil
}

// wire request mirroring the service's /analyze-reasoning endpoint
type analyzeRequest struct {
	UserID      string                 `json:"user_id"`
	ProblemType string                 `json:"problem_type"`
	InputData   map[string]interface{} `json:"input_data"`
	Context     map[string]interface{} `json:"context"`
	SessionID   string                 `json:"session_id,omitempty"`
}

// Analyze sends a review's features to the analysis service and returns the
// validated result. Transport and timeout failures are retried with
// exponential backoff up to MaxRetries; a contract violation is never
// retried because the service would just repeat it.
func (c *Client) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	payload, err := json.Marshal(buildWireRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			log.Printf("analysis request failed, retrying in %v (attempt %d): %v", wait, attempt+1, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
		}

		result, err := c.doAnalyze(ctx, payload)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrContractViolation) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) doAnalyze(ctx context.Context, payload []byte) (*models.AnalysisResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/analyze-reasoning", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service returned status %d", resp.StatusCode)
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if err := Validate(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Validate checks that every documented 0-1 field actually lies in [0, 1].
func Validate(r *models.AnalysisResult) error {
	checks := []struct {
		name  string
		value float64
	}{
		{"reasoning_depth", r.ReasoningDepth},
		{"pattern_recognition", r.PatternRecognition},
		{"cognitive_load", r.CognitiveLoad},
		{"recommended_difficulty", r.RecommendedDifficulty},
		{"adaptive_factors.confidence_factor", r.AdaptiveFactors.ConfidenceFactor},
		{"adaptive_factors.retention_prediction", r.AdaptiveFactors.RetentionPrediction},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > 1 {
			return fmt.Errorf("%w: %s=%v outside [0, 1]", ErrContractViolation, c.name, c.value)
		}
	}
	if r.AdaptiveFactors.DifficultyMultiplier < 0 {
		return fmt.Errorf("%w: adaptive_factors.difficulty_multiplier=%v is negative", ErrContractViolation, r.AdaptiveFactors.DifficultyMultiplier)
	}
	if r.AdaptiveFactors.IntervalAdjustment < 0 {
		return fmt.Errorf("%w: adaptive_factors.interval_adjustment=%v is negative", ErrContractViolation, r.AdaptiveFactors.IntervalAdjustment)
	}
	return nil
}

func buildWireRequest(req *models.AnalysisRequest) analyzeRequest {
	problemType := req.ProblemType
	if problemType == "" {
		problemType = "flashcard"
	}
	return analyzeRequest{
		UserID:      req.UserID,
		ProblemType: problemType,
		SessionID:   req.Context.SessionID,
		InputData: map[string]interface{}{
			"quality_score":           req.Response.Quality,
			"response_time":           req.Response.ResponseTimeMs,
			"confidence_level":        req.Response.ConfidenceLevel,
			"hints_used":              req.Response.HintsUsed,
			"reasoning_steps":         req.Response.ReasoningSteps,
			"partial_correct":         req.Response.PartialCorrect,
			"metacognitive_awareness": req.Response.MetacognitiveAwareness,
		},
		Context: map[string]interface{}{
			"subject":          req.Context.Subject,
			"topic":            req.Context.Topic,
			"difficulty_level": req.Context.DifficultyLevel,
			"user_history": map[string]interface{}{
				"total_reviews":              req.History.TotalReviews,
				"success_rate":               req.History.SuccessRate,
				"average_response_time":      req.History.AverageResponseTimeMs,
				"previous_performance":       req.History.RecentQuality,
				"recent_reasoning_depth":     req.History.RecentReasoningDepth,
				"recent_pattern_recognition": req.History.RecentPatternRecognition,
				"recent_cognitive_load":      req.History.RecentCognitiveLoad,
			},
		},
	}
}
