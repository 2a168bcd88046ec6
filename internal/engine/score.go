package engine

import (
	"math"
	"strings"
	"time"

	"agora/pkg/models"
)

// Engagement weights for the popularity score. Likes dominate, scraps and
// comments count as stronger signals than raw views, dislikes subtract.
const (
	weightLike    = 3.0
	weightComment = 2.0
	weightScrap   = 2.5
	weightView    = 0.1
	weightDislike = 1.0

	// Gravity decays a post's score as it ages. The offset keeps brand-new
	// posts from dividing by ~zero; the exponent controls how hard age bites.
	gravityOffset   = 2.0
	gravityExponent = 1.0
)

// Valid candidate-set periods for the popularity ranking
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAll     = "all"
)

// RawScore is the age-independent engagement score of a post.
func RawScore(p models.Post) float64 {
	return weightLike*float64(p.LikeCount) +
		weightComment*float64(p.CommentCount) +
		weightScrap*float64(p.ScrapCount) +
		weightView*float64(p.ViewCount) -
		weightDislike*float64(p.DislikeCount)
}

// PopularityScore is the time-decayed score of a post as of now. It is
// strictly decreasing in age for fixed counters, and a heavily disliked
// post can legally score negative.
func PopularityScore(p models.Post, now time.Time) float64 {
	ageHours := now.Sub(p.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	gravity := math.Pow(ageHours+gravityOffset, gravityExponent)
	return RawScore(p) / gravity
}

// NormalizePeriod maps raw client input onto a valid period. Unknown,
// blank, or missing values fall back to weekly rather than erroring.
func NormalizePeriod(period string) string {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodDaily:
		return PeriodDaily
	case PeriodWeekly:
		return PeriodWeekly
	case PeriodMonthly:
		return PeriodMonthly
	case PeriodAll:
		return PeriodAll
	default:
		return PeriodWeekly
	}
}

// periodCutoff returns the candidate-set cutoff for a normalized period.
// ok=false means the period does not constrain the candidate set ("all").
// The cutoff only filters which posts compete; the score itself always
// decays by full post age.
func periodCutoff(period string, now time.Time) (time.Time, bool) {
	switch period {
	case PeriodDaily:
		return now.Add(-24 * time.Hour), true
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonthly:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// NormalizeWindow maps raw client input onto a trailing ranking window,
// defaulting to a week.
func NormalizeWindow(window string) models.RankingWindow {
	switch strings.ToLower(strings.TrimSpace(window)) {
	case string(models.WindowDay):
		return models.WindowDay
	case string(models.WindowMonth):
		return models.WindowMonth
	default:
		return models.WindowWeek
	}
}
