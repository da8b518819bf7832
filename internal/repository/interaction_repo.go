package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
)

// InteractionRepository is the append-only like/dislike log.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new repository bound to the given DB connection.
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// Append records one decision made by actor about target. Re-swipes add a
// new row; history is never rewritten.
func (r *InteractionRepository) Append(ctx context.Context, actorID, targetID uint64, isLike bool) (*db.Interaction, error) {
	i := &db.Interaction{
		ActorID:  actorID,
		TargetID: targetID,
		IsLike:   isLike,
	}
	if err := r.db.WithContext(ctx).Create(i).Error; err != nil {
		return nil, err
	}
	return i, nil
}

// Latest returns the most recent decision actor made about target, or nil.
func (r *InteractionRepository) Latest(ctx context.Context, actorID, targetID uint64) (*db.Interaction, error) {
	var rows []db.Interaction
	if err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// HasLiked checks whether actor's authoritative (latest) decision about
// target is a like.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 currently likes user 2
func (r *InteractionRepository) HasLiked(ctx context.Context, actorID, targetID uint64) (bool, error) {
	latest, err := r.Latest(ctx, actorID, targetID)
	if err != nil || latest == nil {
		return false, err
	}
	return latest.IsLike, nil
}

// EverLiked reports whether actor has liked target at any point. It is the
// per-pair form of CountLikesReceived: a like only adds to the target's count
// when this is false beforehand.
func (r *InteractionRepository) EverLiked(ctx context.Context, actorID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Interaction{}).
		Where("actor_id = ? AND target_id = ? AND is_like = ?", actorID, targetID, true).
		Count(&count).Error
	return count > 0, err
}

// CountLikesReceived returns how many distinct users liked the target.
// Used in conjunction with the Redis cache (DB is the fallback).
func (r *InteractionRepository) CountLikesReceived(ctx context.Context, targetID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Interaction{}).
		Where("target_id = ? AND is_like = ?", targetID, true).
		Distinct("actor_id").
		Count(&count).Error
	return count, err
}
