package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agora/pkg/identity"
	"agora/pkg/logging"
	"agora/pkg/models"
)

// ViewDedupWindow is the rolling span within which repeat views from the
// same actor do not count again.
const ViewDedupWindow = 24 * time.Hour

// ReactionTracker applies reaction requests to a post's counters under the
// dedup and mutual-exclusion policy. Every mutating operation runs as one
// transaction with the post row locked, so concurrent toggles from the same
// actor serialize instead of double-counting. Reactions to different posts
// only contend on their own rows.
type ReactionTracker struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// NewReactionTracker creates a tracker backed by the given database.
func NewReactionTracker(db *sql.DB, logger logging.Logger) *ReactionTracker {
	return &ReactionTracker{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// RecordView counts a view once per actor per rolling 24h window. The bool
// reports whether the counter actually moved; a deduplicated repeat view is
// a successful no-op.
func (t *ReactionTracker) RecordView(ctx context.Context, postID int64, actor identity.Actor) (bool, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin view transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockPost(ctx, tx, postID); err != nil {
		return false, err
	}

	now := t.now()
	var seen bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reaction_events
			WHERE post_id = $1 AND reaction_type = 'view'
			  AND actor_kind = $2 AND actor_key = $3
			  AND occurred_at >= $4
		)`, postID, actor.Kind, actor.Key, now.Add(-ViewDedupWindow)).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("failed to check recent views: %w", err)
	}

	if seen {
		// Same actor viewed within the window: counter stays put
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, postID); err != nil {
		return false, fmt.Errorf("failed to increment view count: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reaction_events (post_id, reaction_type, actor_kind, actor_key, occurred_at)
		VALUES ($1, 'view', $2, $3, $4)`,
		postID, actor.Kind, actor.Key, now); err != nil {
		return false, fmt.Errorf("failed to log view: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit view: %w", err)
	}
	return true, nil
}

// ToggleLike flips the actor's like on the post: an active like is removed,
// an active dislike is swapped out, otherwise a like is added. Returns the
// resulting state and counters.
func (t *ReactionTracker) ToggleLike(ctx context.Context, postID int64, actor identity.Actor) (models.ReactionState, int, int, error) {
	return t.toggle(ctx, postID, actor, models.ReactionLike, models.ReactionDislike, models.StateLiked)
}

// ToggleDislike is the mirror of ToggleLike.
func (t *ReactionTracker) ToggleDislike(ctx context.Context, postID int64, actor identity.Actor) (models.ReactionState, int, int, error) {
	return t.toggle(ctx, postID, actor, models.ReactionDislike, models.ReactionLike, models.StateDisliked)
}

func (t *ReactionTracker) toggle(ctx context.Context, postID int64, actor identity.Actor, primary, opposite models.ReactionType, activeState models.ReactionState) (models.ReactionState, int, int, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StateNone, 0, 0, fmt.Errorf("failed to begin toggle transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockPost(ctx, tx, postID); err != nil {
		return models.StateNone, 0, 0, err
	}

	now := t.now()

	// Repeat of the same reaction: toggle off
	revoked, err := t.revokeActive(ctx, tx, postID, actor, primary, now)
	if err != nil {
		return models.StateNone, 0, 0, err
	}
	if revoked {
		likes, dislikes, err := adjustCounter(ctx, tx, postID, counterColumn(primary), -1)
		if err != nil {
			return models.StateNone, 0, 0, err
		}
		if err := tx.Commit(); err != nil {
			return models.StateNone, 0, 0, fmt.Errorf("failed to commit toggle: %w", err)
		}
		return models.StateNone, likes, dislikes, nil
	}

	// Opposing reaction active: cancel it first so the actor never holds both
	revoked, err = t.revokeActive(ctx, tx, postID, actor, opposite, now)
	if err != nil {
		return models.StateNone, 0, 0, err
	}
	if revoked {
		if _, _, err := adjustCounter(ctx, tx, postID, counterColumn(opposite), -1); err != nil {
			return models.StateNone, 0, 0, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reaction_events (post_id, reaction_type, actor_kind, actor_key, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		postID, primary, actor.Kind, actor.Key, now); err != nil {
		return models.StateNone, 0, 0, fmt.Errorf("failed to log %s: %w", primary, err)
	}
	likes, dislikes, err := adjustCounter(ctx, tx, postID, counterColumn(primary), +1)
	if err != nil {
		return models.StateNone, 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return models.StateNone, 0, 0, fmt.Errorf("failed to commit toggle: %w", err)
	}
	return activeState, likes, dislikes, nil
}

// ReactionState reports the actor's current like/dislike standing on a post.
func (t *ReactionTracker) ReactionState(ctx context.Context, postID int64, actor identity.Actor) (models.ReactionState, error) {
	ev, err := t.activeReaction(ctx, postID, actor)
	if err != nil {
		return models.StateNone, err
	}
	if ev == nil {
		return models.StateNone, nil
	}
	if ev.ReactionType == models.ReactionDislike {
		return models.StateDisliked, nil
	}
	return models.StateLiked, nil
}

// activeReaction fetches the actor's active like/dislike event, nil when
// the actor holds neither.
func (t *ReactionTracker) activeReaction(ctx context.Context, postID int64, actor identity.Actor) (*models.ReactionEvent, error) {
	ev := models.ReactionEvent{PostID: postID, ActorKind: actor.Kind, ActorKey: actor.Key}
	err := t.db.QueryRowContext(ctx, `
		SELECT id, reaction_type, occurred_at FROM reaction_events
		WHERE post_id = $1 AND actor_kind = $2 AND actor_key = $3
		  AND reaction_type IN ('like', 'dislike') AND revoked_at IS NULL
		LIMIT 1`, postID, actor.Kind, actor.Key).Scan(&ev.ID, &ev.ReactionType, &ev.OccurredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reaction state: %w", err)
	}
	return &ev, nil
}

// lockPost takes the row lock that serializes counter mutations for a post
// and verifies the post still accepts reactions.
func lockPost(ctx context.Context, tx *sql.Tx, postID int64) error {
	var isDeleted bool
	err := tx.QueryRowContext(ctx,
		`SELECT is_deleted FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&isDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock post %d: %w", postID, err)
	}
	if isDeleted {
		return ErrPostNotFound
	}
	return nil
}

// revokeActive soft-revokes the actor's active event of the given type.
func (t *ReactionTracker) revokeActive(ctx context.Context, tx *sql.Tx, postID int64, actor identity.Actor, reaction models.ReactionType, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE reaction_events SET revoked_at = $1
		WHERE post_id = $2 AND reaction_type = $3
		  AND actor_kind = $4 AND actor_key = $5
		  AND revoked_at IS NULL`,
		now, postID, reaction, actor.Kind, actor.Key)
	if err != nil {
		return false, fmt.Errorf("failed to revoke %s: %w", reaction, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read revoke result: %w", err)
	}
	return affected > 0, nil
}

// adjustCounter moves one counter by delta and returns the fresh like and
// dislike counts. Decrements clamp at zero: a residual race can at worst
// leave a counter slightly high, never negative.
func adjustCounter(ctx context.Context, tx *sql.Tx, postID int64, column string, delta int) (int, int, error) {
	var query string
	if delta < 0 {
		query = fmt.Sprintf(
			`UPDATE posts SET %s = GREATEST(%s - 1, 0) WHERE id = $1 RETURNING like_count, dislike_count`,
			column, column)
	} else {
		query = fmt.Sprintf(
			`UPDATE posts SET %s = %s + 1 WHERE id = $1 RETURNING like_count, dislike_count`,
			column, column)
	}

	var likes, dislikes int
	if err := tx.QueryRowContext(ctx, query, postID).Scan(&likes, &dislikes); err != nil {
		return 0, 0, fmt.Errorf("failed to adjust %s: %w", column, err)
	}
	return likes, dislikes, nil
}

func counterColumn(reaction models.ReactionType) string {
	if reaction == models.ReactionDislike {
		return "dislike_count"
	}
	return "like_count"
}
