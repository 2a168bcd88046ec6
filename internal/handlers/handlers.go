package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"agora/internal/engine"
	"agora/internal/metrics"
	"agora/pkg/api/common"
	"agora/pkg/api/tally"
	"agora/pkg/identity"
	"agora/pkg/logging"
	"agora/pkg/middleware"
	"agora/pkg/redis"
)

var (
	tracker        *engine.ReactionTracker
	ranking        *engine.RankingEngine
	popularCache   *redis.SnapshotCache
	logger         logging.Logger
	serviceMetrics *metrics.Metrics
)

// Init initializes the handlers package with its collaborators. popCache
// may be nil when no Redis is configured.
func Init(t *engine.ReactionTracker, r *engine.RankingEngine, popCache *redis.SnapshotCache, log logging.Logger, m *metrics.Metrics) {
	tracker = t
	ranking = r
	popularCache = popCache
	logger = log
	serviceMetrics = m
}

// RecordView counts a view for the requesting actor, once per 24h window
func RecordView(c *gin.Context) {
	start := time.Now()
	defer observeReaction("view", start)

	postID, actor, ok := reactionTarget(c)
	if !ok {
		return
	}

	counted, err := tracker.RecordView(c.Request.Context(), postID, actor)
	if err != nil {
		respondReactionError(c, "view", postID, err)
		return
	}

	outcome := "counted"
	if !counted {
		outcome = "deduplicated"
	}
	if serviceMetrics != nil {
		serviceMetrics.Reactions.WithLabelValues("view", outcome).Inc()
	}
	c.Status(http.StatusNoContent)
}

// ToggleLike flips the actor's like on a post
func ToggleLike(c *gin.Context) {
	start := time.Now()
	defer observeReaction("like", start)

	postID, actor, ok := reactionTarget(c)
	if !ok {
		return
	}

	state, likes, dislikes, err := tracker.ToggleLike(c.Request.Context(), postID, actor)
	if err != nil {
		respondReactionError(c, "like", postID, err)
		return
	}

	if serviceMetrics != nil {
		serviceMetrics.Reactions.WithLabelValues("like", string(state)).Inc()
	}
	c.JSON(http.StatusOK, tally.ReactionResponse{
		State:        state,
		LikeCount:    likes,
		DislikeCount: dislikes,
	})
}

// ToggleDislike flips the actor's dislike on a post
func ToggleDislike(c *gin.Context) {
	start := time.Now()
	defer observeReaction("dislike", start)

	postID, actor, ok := reactionTarget(c)
	if !ok {
		return
	}

	state, likes, dislikes, err := tracker.ToggleDislike(c.Request.Context(), postID, actor)
	if err != nil {
		respondReactionError(c, "dislike", postID, err)
		return
	}

	if serviceMetrics != nil {
		serviceMetrics.Reactions.WithLabelValues("dislike", string(state)).Inc()
	}
	c.JSON(http.StatusOK, tally.ReactionResponse{
		State:        state,
		LikeCount:    likes,
		DislikeCount: dislikes,
	})
}

// GetReactionState reports the actor's current standing on a post, so
// clients can render like/dislike buttons without guessing
func GetReactionState(c *gin.Context) {
	postID, actor, ok := reactionTarget(c)
	if !ok {
		return
	}

	state, err := tracker.ReactionState(c.Request.Context(), postID, actor)
	if err != nil {
		respondReactionError(c, "state", postID, err)
		return
	}
	c.JSON(http.StatusOK, tally.ReactionStateResponse{State: state})
}

// GetBoardTrending ranks a board's posts by likes inside a trailing window
func GetBoardTrending(c *gin.Context) {
	start := time.Now()
	defer observeRanking("trending", start)

	boardID, ok := pathID(c, "boardID")
	if !ok {
		return
	}
	window := engine.NormalizeWindow(c.Query("window"))

	posts, err := ranking.RankByWindow(c.Request.Context(), boardID, window)
	if err != nil {
		respondRankingError(c, "trending", err)
		return
	}

	if serviceMetrics != nil {
		serviceMetrics.RankingQueries.WithLabelValues("trending", "ok").Inc()
	}
	c.JSON(http.StatusOK, tally.TrendingResponse{
		BoardID: boardID,
		Window:  string(window),
		Posts:   posts,
	})
}

// GetBoardViews lists a board's posts by all-time view count
func GetBoardViews(c *gin.Context) {
	start := time.Now()
	defer observeRanking("views", start)

	boardID, ok := pathID(c, "boardID")
	if !ok {
		return
	}

	posts, err := ranking.RankByViews(c.Request.Context(), boardID)
	if err != nil {
		respondRankingError(c, "views", err)
		return
	}

	if serviceMetrics != nil {
		serviceMetrics.RankingQueries.WithLabelValues("views", "ok").Inc()
	}
	c.JSON(http.StatusOK, tally.BoardViewsResponse{
		BoardID: boardID,
		Posts:   posts,
	})
}

// GetPopular pages the platform-wide popularity ranking
func GetPopular(c *gin.Context) {
	servePopular(c, nil)
}

// GetBoardPopular pages one board's popularity ranking
func GetBoardPopular(c *gin.Context) {
	boardID, ok := pathID(c, "boardID")
	if !ok {
		return
	}
	servePopular(c, &boardID)
}

func servePopular(c *gin.Context, boardID *int64) {
	start := time.Now()
	defer observeRanking("popular", start)

	// Invalid numbers are recovered by normalization, never rejected
	period := engine.NormalizePeriod(c.Query("period"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))

	cacheKey := popularCacheKey(boardID, period, page, size)
	var cached tally.PopularResponse
	if popularCache.Get(c.Request.Context(), cacheKey, &cached) {
		if serviceMetrics != nil {
			serviceMetrics.CacheRequests.WithLabelValues("popular", "hit").Inc()
		}
		c.JSON(http.StatusOK, cached)
		return
	}
	if serviceMetrics != nil {
		serviceMetrics.CacheRequests.WithLabelValues("popular", "miss").Inc()
	}

	result, err := ranking.RankByScore(c.Request.Context(), boardID, period, page, size)
	if err != nil {
		respondRankingError(c, "popular", err)
		return
	}

	response := tally.PopularResponse{
		Posts:      result.Posts,
		Page:       result.Page.Number,
		Size:       result.Page.Size,
		TotalCount: result.TotalCount,
		TotalPages: result.Page.TotalPages(result.TotalCount),
	}
	popularCache.Set(c.Request.Context(), cacheKey, response)

	if serviceMetrics != nil {
		serviceMetrics.RankingQueries.WithLabelValues("popular", "ok").Inc()
	}
	c.JSON(http.StatusOK, response)
}

func popularCacheKey(boardID *int64, period string, page, size int) string {
	board := "all"
	if boardID != nil {
		board = strconv.FormatInt(*boardID, 10)
	}
	return fmt.Sprintf("tally:popular:%s:%s:%d:%d", board, period, page, size)
}

// reactionTarget parses the post id and resolves the actor, writing the
// error response itself when either fails.
func reactionTarget(c *gin.Context) (int64, identity.Actor, bool) {
	postID, ok := pathID(c, "postID")
	if !ok {
		return 0, identity.Actor{}, false
	}

	actor := identity.FromRequest(c.Request)
	if actor.IsZero() {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "Could not resolve requesting actor"})
		return 0, identity.Actor{}, false
	}
	return postID, actor, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: fmt.Sprintf("Invalid %s", name)})
		return 0, false
	}
	return id, true
}

func respondReactionError(c *gin.Context, reaction string, postID int64, err error) {
	if errors.Is(err, engine.ErrPostNotFound) {
		if serviceMetrics != nil {
			serviceMetrics.Reactions.WithLabelValues(reaction, "not_found").Inc()
		}
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "Post not found"})
		return
	}

	middleware.GetContextLogger(c, logger).WithFields(logging.Fields{
		"reaction": reaction,
		"post_id":  postID,
		"error":    err,
	}).Error("Reaction failed")
	if serviceMetrics != nil {
		serviceMetrics.Reactions.WithLabelValues(reaction, "error").Inc()
	}
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: "Reaction unavailable"})
}

func respondRankingError(c *gin.Context, algorithm string, err error) {
	middleware.GetContextLogger(c, logger).WithFields(logging.Fields{
		"algorithm": algorithm,
		"error":     err,
	}).Error("Ranking query failed")
	if serviceMetrics != nil {
		serviceMetrics.RankingQueries.WithLabelValues(algorithm, "error").Inc()
	}
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: "Ranking unavailable"})
}

func observeReaction(reaction string, start time.Time) {
	if serviceMetrics != nil {
		serviceMetrics.ReactionDuration.WithLabelValues(reaction).Observe(time.Since(start).Seconds())
	}
}

func observeRanking(algorithm string, start time.Time) {
	if serviceMetrics != nil {
		serviceMetrics.RankingDuration.WithLabelValues(algorithm).Observe(time.Since(start).Seconds())
	}
}
