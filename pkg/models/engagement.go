package models

import (
	"time"
)

// ReactionType identifies the kind of reaction logged against a post
type ReactionType string

const (
	ReactionView    ReactionType = "view"
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// ActorKind distinguishes logged-in users from anonymous visitors
type ActorKind string

const (
	ActorUser      ActorKind = "user"
	ActorAnonymous ActorKind = "anonymous"
)

// ReactionState is an actor's current like/dislike standing on a post
type ReactionState string

const (
	StateNone     ReactionState = "none"
	StateLiked    ReactionState = "liked"
	StateDisliked ReactionState = "disliked"
)

// RankingWindow is a trailing span for recency-based rankings
type RankingWindow string

const (
	WindowDay   RankingWindow = "day"
	WindowWeek  RankingWindow = "week"
	WindowMonth RankingWindow = "month"
)

// Duration returns the trailing span the window covers.
func (w RankingWindow) Duration() time.Duration {
	switch w {
	case WindowDay:
		return 24 * time.Hour
	case WindowMonth:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Post is the post aggregate as seen by the engagement engine. The board
// service owns the row; tally reads it and mutates only the counters.
type Post struct {
	ID           int64     `json:"id"`
	BoardID      int64     `json:"board_id"`
	AuthorID     *int64    `json:"author_id,omitempty"`
	Title        string    `json:"title"`
	ViewCount    int       `json:"view_count"`
	LikeCount    int       `json:"like_count"`
	DislikeCount int       `json:"dislike_count"`
	CommentCount int       `json:"comment_count"`
	ScrapCount   int       `json:"scrap_count"`
	IsBlinded    bool      `json:"is_blinded"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReactionEvent is one immutable row of the reaction log. A like/dislike is
// active while RevokedAt is nil; views are never revoked.
type ReactionEvent struct {
	ID           int64        `json:"id"`
	PostID       int64        `json:"post_id"`
	ReactionType ReactionType `json:"reaction_type"`
	ActorKind    ActorKind    `json:"actor_kind"`
	ActorKey     string       `json:"actor_key"`
	OccurredAt   time.Time    `json:"occurred_at"`
	RevokedAt    *time.Time   `json:"revoked_at,omitempty"`
}

// RankedPost is a post plus its recent-like count under a trailing window
type RankedPost struct {
	Post
	WindowLikeCount int `json:"window_like_count"`
}

// PopularPost is a post plus its computed popularity score
type PopularPost struct {
	Post
	Score float64 `json:"score"`
}
