package tally

import (
	"agora/pkg/models"
)

// ReactionResponse is returned by the like/dislike toggles. It carries the
// updated counters so clients can render without a second fetch.
type ReactionResponse struct {
	State        models.ReactionState `json:"state"`
	LikeCount    int                  `json:"like_count"`
	DislikeCount int                  `json:"dislike_count"`
}

// ReactionStateResponse is returned by the read-only reaction lookup
type ReactionStateResponse struct {
	State models.ReactionState `json:"state"`
}

// TrendingResponse is the windowed raw-count ranking for one board
type TrendingResponse struct {
	BoardID int64               `json:"board_id"`
	Window  string              `json:"window"`
	Posts   []models.RankedPost `json:"posts"`
}

// BoardViewsResponse lists a board's posts by all-time view count
type BoardViewsResponse struct {
	BoardID int64         `json:"board_id"`
	Posts   []models.Post `json:"posts"`
}

// PopularResponse is one page of the time-decayed popularity ranking
type PopularResponse struct {
	Posts      []models.PopularPost `json:"posts"`
	Page       int                  `json:"page"`
	Size       int                  `json:"size"`
	TotalCount int                  `json:"totalCount"`
	TotalPages int                  `json:"totalPages"`
}
