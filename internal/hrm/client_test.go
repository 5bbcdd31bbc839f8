package hrm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/srsengine/pkg/models"
)

func testRequest() *models.AnalysisRequest {
	return &models.AnalysisRequest{
		UserID: "42",
		Response: models.ReviewResponse{
			Quality:         4,
			ResponseTimeMs:  9500,
			ConfidenceLevel: 0.8,
		},
		Context: models.ReviewContext{
			Subject:         "math",
			Topic:           "fractions",
			DifficultyLevel: 0.5,
			SessionID:       "sess-1",
		},
		History: models.AnalysisHistory{
			TotalReviews: 6,
			SuccessRate:  0.83,
		},
	}
}

func validResponseBody() map[string]interface{} {
	return map[string]interface{}{
		"reasoning_depth":        0.72,
		"pattern_recognition":    0.64,
		"cognitive_load":         0.41,
		"recommended_difficulty": 0.55,
		"adaptive_factors": map[string]interface{}{
			"difficulty_multiplier": 1.1,
			"interval_adjustment":   1.2,
			"confidence_factor":     0.9,
			"retention_prediction":  0.8,
		},
		"learning_insights": map[string]interface{}{
			"strengths":       []string{"pattern matching"},
			"recommendations": []string{"review fractions"},
		},
		"processing_time_ms": 37,
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody analyzeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NoError(t, json.NewEncoder(w).Encode(validResponseBody()))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIToken: "secret", MaxRetries: 1})
	result, err := client.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "/analyze-reasoning", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "42", gotBody.UserID)
	assert.Equal(t, "flashcard", gotBody.ProblemType, "empty problem type defaults to flashcard")
	assert.Equal(t, "sess-1", gotBody.SessionID)
	assert.Equal(t, 4.0, gotBody.InputData["quality_score"])

	assert.InDelta(t, 0.72, result.ReasoningDepth, 1e-9)
	assert.InDelta(t, 0.64, result.PatternRecognition, 1e-9)
	assert.InDelta(t, 0.41, result.CognitiveLoad, 1e-9)
	assert.InDelta(t, 1.1, result.AdaptiveFactors.DifficultyMultiplier, 1e-9)
	assert.InDelta(t, 1.2, result.AdaptiveFactors.IntervalAdjustment, 1e-9)
	assert.Equal(t, []string{"review fractions"}, result.LearningInsights.Recommendations)
}

func TestAnalyzeNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewEncoder(w).Encode(validResponseBody()))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, MaxRetries: 1})
	_, err := client.Analyze(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestAnalyzeServerErrorIsUnavailable(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// single attempt keeps the test free of backoff sleeps
	client := New(Config{BaseURL: srv.URL, MaxRetries: 1})
	result, err := client.Analyze(context.Background(), testRequest())
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 1, requests)
}

func TestAnalyzeRetriesTransportFailures(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(validResponseBody()))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, MaxRetries: 2})
	result, err := client.Analyze(context.Background(), testRequest())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 2, requests)
}

func TestAnalyzeContractViolationIsNotRetried(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		body := validResponseBody()
		body["reasoning_depth"] = 1.8
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, MaxRetries: 3})
	result, err := client.Analyze(context.Background(), testRequest())
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrContractViolation))
	assert.Equal(t, 1, requests, "a contract violation must not be retried")
}

func TestAnalyzeContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// first attempt fails, the backoff wait then loses to the context
	client := New(Config{BaseURL: srv.URL, MaxRetries: 3})
	_, err := client.Analyze(ctx, testRequest())
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestValidate(t *testing.T) {
	valid := func() *models.AnalysisResult {
		return &models.AnalysisResult{
			ReasoningDepth:        0.7,
			PatternRecognition:    0.6,
			CognitiveLoad:         0.4,
			RecommendedDifficulty: 0.5,
			AdaptiveFactors: models.AdaptiveFactors{
				DifficultyMultiplier: 1.0,
				IntervalAdjustment:   1.0,
				ConfidenceFactor:     0.8,
				RetentionPrediction:  0.75,
			},
		}
	}

	assert.NoError(t, Validate(valid()))

	r := valid()
	r.ReasoningDepth = -0.1
	assert.True(t, errors.Is(Validate(r), ErrContractViolation))

	r = valid()
	r.CognitiveLoad = 1.5
	assert.True(t, errors.Is(Validate(r), ErrContractViolation))

	r = valid()
	r.AdaptiveFactors.ConfidenceFactor = 2.0
	assert.True(t, errors.Is(Validate(r), ErrContractViolation))

	r = valid()
	r.AdaptiveFactors.DifficultyMultiplier = -0.5
	assert.True(t, errors.Is(Validate(r), ErrContractViolation))

	r = valid()
	r.AdaptiveFactors.IntervalAdjustment = 1.4
	assert.NoError(t, Validate(r), "multipliers above one are allowed")
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("HRM_SERVICE_URL", "")
	_, err := NewFromEnv()
	assert.Error(t, err)

	t.Setenv("HRM_SERVICE_URL", "http://analysis.local:8000")
	t.Setenv("HRM_API_TOKEN", "tkn")
	t.Setenv("HRM_TIMEOUT_SECONDS", "5")
	t.Setenv("HRM_MAX_RETRIES", "2")
	client, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://analysis.local:8000", client.cfg.BaseURL)
	assert.Equal(t, "tkn", client.cfg.APIToken)
	assert.Equal(t, 5*time.Second, client.cfg.Timeout)
	assert.Equal(t, 2, client.cfg.MaxRetries)
}
