package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"agora/pkg/cache"
	"agora/pkg/logging"
	"agora/pkg/models"
	"agora/pkg/pagination"
)

// RankingEngine produces ordered post lists under two independent
// algorithms: a trailing-window raw like count recomputed from the reaction
// log, and a time-decayed popularity score computed from the aggregate
// counters. The two deliberately disagree: a post with a large all-time
// score can rank nowhere in the trending list, and vice versa.
type RankingEngine struct {
	db       *sql.DB
	logger   logging.Logger
	trending *cache.Cache // optional, collapses trending recomputes
	now      func() time.Time
}

// NewRankingEngine creates a ranking engine. trendingCache may be nil.
func NewRankingEngine(db *sql.DB, logger logging.Logger, trendingCache *cache.Cache) *RankingEngine {
	return &RankingEngine{
		db:       db,
		logger:   logger,
		trending: trendingCache,
		now:      time.Now,
	}
}

// PopularPage is one page of the popularity ranking plus its page math.
type PopularPage struct {
	Posts      []models.PopularPost
	Page       pagination.Page
	TotalCount int
}

// RankByWindow ranks a board's posts by the count of active likes inside
// the trailing window. The persisted like counter is ignored here; the
// count is recomputed from the log so only recent activity ranks. An
// unknown board simply yields an empty list.
func (r *RankingEngine) RankByWindow(ctx context.Context, boardID int64, window models.RankingWindow) ([]models.RankedPost, error) {
	if r.trending == nil {
		return r.rankByWindow(ctx, boardID, window)
	}

	key := fmt.Sprintf("trending:%d:%s", boardID, window)
	result, ok, err := r.trending.Get(ctx, key, func(ctx context.Context, _ string) (interface{}, bool, error) {
		posts, err := r.rankByWindow(ctx, boardID, window)
		if err != nil {
			return nil, false, err
		}
		return posts, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return result.([]models.RankedPost), nil
}

func (r *RankingEngine) rankByWindow(ctx context.Context, boardID int64, window models.RankingWindow) ([]models.RankedPost, error) {
	cutoff := r.now().Add(-window.Duration())

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.board_id, p.title,
		       p.view_count, p.like_count, p.dislike_count, p.comment_count, p.scrap_count,
		       p.created_at, COUNT(e.id) AS window_likes
		FROM posts p
		LEFT JOIN reaction_events e
		  ON e.post_id = p.id
		 AND e.reaction_type = 'like'
		 AND e.revoked_at IS NULL
		 AND e.occurred_at >= $2
		WHERE p.board_id = $1 AND NOT p.is_blinded AND NOT p.is_deleted
		GROUP BY p.id, p.board_id, p.title,
		         p.view_count, p.like_count, p.dislike_count, p.comment_count, p.scrap_count,
		         p.created_at
		ORDER BY window_likes DESC, p.id ASC`, boardID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query windowed ranking: %w", err)
	}
	defer rows.Close()

	var ranked []models.RankedPost
	for rows.Next() {
		var rp models.RankedPost
		if err := rows.Scan(&rp.ID, &rp.BoardID, &rp.Title,
			&rp.ViewCount, &rp.LikeCount, &rp.DislikeCount, &rp.CommentCount, &rp.ScrapCount,
			&rp.CreatedAt, &rp.WindowLikeCount); err != nil {
			return nil, fmt.Errorf("failed to scan ranked post: %w", err)
		}
		ranked = append(ranked, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read windowed ranking: %w", err)
	}
	return ranked, nil
}

// RankByViews lists a board's posts by all-time view count.
func (r *RankingEngine) RankByViews(ctx context.Context, boardID int64) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, title,
		       view_count, like_count, dislike_count, comment_count, scrap_count, created_at
		FROM posts
		WHERE board_id = $1 AND NOT is_blinded AND NOT is_deleted
		ORDER BY view_count DESC, id ASC`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query view ranking: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.BoardID, &p.Title,
			&p.ViewCount, &p.LikeCount, &p.DislikeCount, &p.CommentCount, &p.ScrapCount,
			&p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read view ranking: %w", err)
	}
	return posts, nil
}

// RankByScore pages the popularity ranking. boardID nil means platform-wide.
// The period filters only which posts compete; the decay always runs over
// full post age. page and size are normalized, never rejected.
func (r *RankingEngine) RankByScore(ctx context.Context, boardID *int64, period string, page, size int) (*PopularPage, error) {
	validPeriod := NormalizePeriod(period)
	pg := pagination.Normalize(page, size)
	now := r.now()

	query := `
		SELECT id, board_id, title,
		       view_count, like_count, dislike_count, comment_count, scrap_count, created_at
		FROM posts
		WHERE NOT is_blinded AND NOT is_deleted`
	args := []interface{}{}
	if boardID != nil {
		args = append(args, *boardID)
		query += fmt.Sprintf(" AND board_id = $%d", len(args))
	}
	if cutoff, ok := periodCutoff(validPeriod, now); ok {
		args = append(args, cutoff)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query popularity candidates: %w", err)
	}
	defer rows.Close()

	var scored []models.PopularPost
	for rows.Next() {
		var pp models.PopularPost
		if err := rows.Scan(&pp.ID, &pp.BoardID, &pp.Title,
			&pp.ViewCount, &pp.LikeCount, &pp.DislikeCount, &pp.CommentCount, &pp.ScrapCount,
			&pp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		pp.Score = PopularityScore(pp.Post, now)
		scored = append(scored, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read popularity candidates: %w", err)
	}

	// Candidates arrive in id order, so the sort's tie-break is stable
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	start, end := pg.Slice(len(scored))
	pagePosts := scored[start:end]

	return &PopularPage{
		Posts:      pagePosts,
		Page:       pg,
		TotalCount: len(scored),
	}, nil
}
