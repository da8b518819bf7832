package swipe

import (
	"context"
	"fmt"

	"github.com/oggyb/matchmaker/internal/app"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/repository"
)

// Result is the outcome of a submitted swipe.
type Result struct {
	IsMatch    bool
	SwipesLeft int

	// newLiker is set when this like is the actor's first ever on the target.
	newLiker bool
}

// Service is the match engine: it takes a swipe through the quota, the
// interaction log and the reciprocity check as one unit.
type Service struct {
	appCtx *app.AppContext
}

// NewService creates the match engine with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// Submit records a like or dislike from the user behind externalID on targetID.
//
// Behavior:
//   - Actor and target rows are locked together for the whole transaction,
//     so swipes by one actor and swipes within one pair are serialized.
//   - ErrNotFound for an unknown actor or target, ErrInvalidArgument for a
//     self-swipe; both before any state change.
//   - ErrQuotaExceeded leaves the log and the counter untouched.
//   - Quota increment, interaction append and match insert commit together.
//   - After commit, the actor's first like on the target bumps the target's
//     cached like counter; re-likes leave it alone.
//
// Example:
//
//	svc.Submit(ctx, 123456789, 42, true) // user 123456789 likes profile 42
func (s *Service) Submit(ctx context.Context, externalID int64, targetID uint64, isLike bool) (*Result, error) {
	log := s.appCtx.Logger.With("op", "Swipe", "user", externalID, "target", targetID, "like", isLike)
	res := &Result{}

	err := s.appCtx.Store.Tx(ctx, func(tx *repository.Store) error {
		actor, target, err := tx.Profiles.LockForSwipe(ctx, externalID, targetID)
		if err != nil {
			return err
		}
		if actor.ID == targetID {
			return svcErr.Invalid("cannot swipe on yourself")
		}
		if target == nil {
			return svcErr.NotFound(fmt.Sprintf("profile %d", targetID))
		}

		st, err := s.appCtx.Quota.CheckAndConsume(ctx, tx.Profiles, actor)
		if err != nil {
			return err
		}
		res.SwipesLeft = st.Remaining

		if isLike {
			liked, err := tx.Interactions.EverLiked(ctx, actor.ID, target.ID)
			if err != nil {
				return fmt.Errorf("check previous like: %w", err)
			}
			res.newLiker = !liked
		}

		res.IsMatch, err = RecordSwipe(ctx, tx, actor.ID, target.ID, isLike)
		return err
	})
	if err != nil {
		log.Debug("swipe rejected", "err", err)
		return nil, err
	}

	if res.newLiker {
		if err := s.appCtx.RedisCache.IncrLikesReceived(ctx, targetID); err != nil {
			log.Warn("failed to bump like counter", "err", err)
		}
	}
	if res.IsMatch {
		log.Info("match formed")
	}
	return res, nil
}

// RecordSwipe appends the interaction and, for a like, materializes a match
// when the target's latest decision about the actor is also a like.
//
// tx must be transactional and already hold the locks on both profiles.
// isMatch is true only for the swipe that created the match row, so repeat
// likes within a matched pair never report (or create) a second match.
func RecordSwipe(ctx context.Context, tx *repository.Store, actorID, targetID uint64, isLike bool) (isMatch bool, err error) {
	// dislikes are logged too so the feed never resurfaces the target
	if _, err := tx.Interactions.Append(ctx, actorID, targetID, isLike); err != nil {
		return false, fmt.Errorf("append interaction: %w", err)
	}
	if !isLike {
		return false, nil
	}

	reciprocal, err := tx.Interactions.HasLiked(ctx, targetID, actorID)
	if err != nil {
		return false, fmt.Errorf("check reciprocity: %w", err)
	}
	if !reciprocal {
		return false, nil
	}

	created, err := tx.Matches.CreateIfAbsent(ctx, actorID, targetID)
	if err != nil {
		return false, fmt.Errorf("create match: %w", err)
	}
	return created, nil
}
