package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/srsengine/pkg/models"
)

func TestReviewLogCreateAndList(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 700)
	card := createTestCard(t, "math", "10/2?")
	repo := NewReviewLogRepository()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		entry := &models.ReviewLog{
			UserID:         user.ID,
			CardID:         card.ID,
			Quality:        3 + i%3,
			ResponseTimeMs: 8000,
			IntervalDays:   1 + i,
			EaseFactor:     2.5,
			ReviewedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(entry))
		assert.NotEmpty(t, entry.ID)
	}

	entries, err := repo.ListForUser(user.ID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].IntervalDays, "newest entry comes first")
	assert.Equal(t, 2, entries[1].IntervalDays)
}

func TestReviewLogCountSince(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 701)
	card := createTestCard(t, "math", "10*2?")
	repo := NewReviewLogRepository()

	now := time.Now().UTC().Truncate(time.Second)
	for _, age := range []time.Duration{48 * time.Hour, 2 * time.Hour, time.Hour} {
		entry := &models.ReviewLog{
			UserID:       user.ID,
			CardID:       card.ID,
			Quality:      4,
			IntervalDays: 1,
			EaseFactor:   2.5,
			ReviewedAt:   now.Add(-age),
		}
		require.NoError(t, repo.Create(entry))
	}

	count, err := repo.CountSince(user.ID, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
