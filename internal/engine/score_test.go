package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"agora/pkg/models"
)

func TestRawScore(t *testing.T) {
	post := models.Post{
		LikeCount:    10,
		CommentCount: 5,
		ScrapCount:   3,
		ViewCount:    100,
		DislikeCount: 2,
	}

	// 3*10 + 2*5 + 2.5*3 + 0.1*100 - 1*2
	assert.InDelta(t, 55.5, RawScore(post), 1e-9)
}

func TestRawScoreCanGoNegative(t *testing.T) {
	post := models.Post{DislikeCount: 50}
	assert.Less(t, RawScore(post), 0.0)
}

func TestPopularityScoreDecay(t *testing.T) {
	now := time.Now()
	post := models.Post{
		LikeCount:    10,
		CommentCount: 5,
		ScrapCount:   3,
		ViewCount:    100,
		DislikeCount: 2,
	}

	post.CreatedAt = now
	assert.InDelta(t, 55.5/2.0, PopularityScore(post, now), 1e-9)

	post.CreatedAt = now.Add(-2 * time.Hour)
	assert.InDelta(t, 55.5/4.0, PopularityScore(post, now), 1e-9)

	// Fixed counters score strictly less the older the post gets
	fresh := post
	fresh.CreatedAt = now.Add(-1 * time.Hour)
	stale := post
	stale.CreatedAt = now.Add(-48 * time.Hour)
	assert.Greater(t, PopularityScore(fresh, now), PopularityScore(stale, now))
}

func TestPopularityScoreFutureCreatedAt(t *testing.T) {
	now := time.Now()
	post := models.Post{LikeCount: 1, CreatedAt: now.Add(time.Hour)}

	// Clock skew must not inflate the score past the age-zero value
	assert.InDelta(t, 3.0/2.0, PopularityScore(post, now), 1e-9)
}

func TestNormalizePeriod(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"daily", PeriodDaily},
		{"weekly", PeriodWeekly},
		{"monthly", PeriodMonthly},
		{"all", PeriodAll},
		{"DAILY", PeriodDaily},
		{"  Monthly  ", PeriodMonthly},
		{"", PeriodWeekly},
		{"hourly", PeriodWeekly},
		{"yearly", PeriodWeekly},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizePeriod(tt.input), "input %q", tt.input)
	}
}

func TestPeriodCutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cutoff, ok := periodCutoff(PeriodDaily, now)
	assert.True(t, ok)
	assert.Equal(t, now.Add(-24*time.Hour), cutoff)

	cutoff, ok = periodCutoff(PeriodWeekly, now)
	assert.True(t, ok)
	assert.Equal(t, now.Add(-7*24*time.Hour), cutoff)

	cutoff, ok = periodCutoff(PeriodMonthly, now)
	assert.True(t, ok)
	assert.Equal(t, now.Add(-30*24*time.Hour), cutoff)

	_, ok = periodCutoff(PeriodAll, now)
	assert.False(t, ok)
}

func TestNormalizeWindow(t *testing.T) {
	assert.Equal(t, models.WindowDay, NormalizeWindow("day"))
	assert.Equal(t, models.WindowWeek, NormalizeWindow("week"))
	assert.Equal(t, models.WindowMonth, NormalizeWindow("month"))
	assert.Equal(t, models.WindowWeek, NormalizeWindow(""))
	assert.Equal(t, models.WindowWeek, NormalizeWindow("fortnight"))
	assert.Equal(t, models.WindowDay, NormalizeWindow(" Day "))
}
