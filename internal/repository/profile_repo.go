package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// ProfileRepository provides data access methods for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Create inserts a new profile.
//
// Behavior:
//   - Fails with ErrConflict if the external id is already registered.
//   - The unique index on external_id backs the lookup under races.
func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("external_id = ?", p.ExternalID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("external id %d: %w", p.ExternalID, svcErr.ErrConflict)
	}

	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("external id %d: %w", p.ExternalID, svcErr.ErrConflict)
	}
	return err
}

// GetByID loads a profile by internal id.
func (r *ProfileRepository) GetByID(ctx context.Context, id uint64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound(fmt.Sprintf("profile %d", id))
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByExternalID loads a profile by the messenger account id.
func (r *ProfileRepository) GetByExternalID(ctx context.Context, externalID int64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound(fmt.Sprintf("user %d", externalID))
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByExternalIDForUpdate loads and row-locks a profile for the rest of the
// surrounding transaction. Must be called on a transactional store.
func (r *ProfileRepository) GetByExternalIDForUpdate(ctx context.Context, externalID int64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_id = ?", externalID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound(fmt.Sprintf("user %d", externalID))
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LockForSwipe row-locks the actor (by external id) and the target (by id)
// and keeps the locks until the surrounding transaction ends. Both rows are
// locked through the primary key in ascending id order, so two swipes on the
// same pair serialize without deadlocking, whichever direction they go.
//
// Returns ErrNotFound for an unknown actor; a missing target comes back nil.
func (r *ProfileRepository) LockForSwipe(
	ctx context.Context,
	actorExternalID int64,
	targetID uint64,
) (actor, target *db.Profile, err error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("external_id = ?", actorExternalID).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, svcErr.NotFound(fmt.Sprintf("user %d", actorExternalID))
	}
	actorID := ids[0]

	var rows []db.Profile
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", []uint64{actorID, targetID}).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	for i := range rows {
		if rows[i].ID == actorID {
			actor = &rows[i]
		}
		if rows[i].ID == targetID {
			target = &rows[i]
		}
	}
	// deleted between the two statements
	if actor == nil {
		return nil, nil, svcErr.NotFound(fmt.Sprintf("user %d", actorExternalID))
	}
	return actor, target, nil
}

// Save writes every column of an existing profile. Callers that may race
// with a swipe must hold the row lock first.
func (r *ProfileRepository) Save(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// ResetSwipes zeroes the daily counter of one profile and stamps the reset time.
func (r *ProfileRepository) ResetSwipes(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"swipes_used_today":   0,
			"last_swipe_reset_at": at,
		}).Error
}

// IncrementSwipes adds exactly one to the daily counter.
func (r *ProfileRepository) IncrementSwipes(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		UpdateColumn("swipes_used_today", gorm.Expr("swipes_used_today + ?", 1)).Error
}

// ResetStale zeroes the counters of every profile whose last reset is older
// than cutoff. Returns the number of profiles reset.
func (r *ProfileRepository) ResetStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("last_swipe_reset_at < ?", cutoff).
		Updates(map[string]any{
			"swipes_used_today":   0,
			"last_swipe_reset_at": now,
		})
	return res.RowsAffected, res.Error
}

// NextCandidate returns the newest active profile the requester has not
// swiped on yet, or nil when the pool is exhausted.
//
// Behavior:
//   - Excludes the requester and every target of the requester's interactions.
//   - gender == "" means no gender restriction.
//   - Ordered by created_at DESC, id DESC.
func (r *ProfileRepository) NextCandidate(ctx context.Context, requesterID uint64, gender string) (*db.Profile, error) {
	swiped := r.db.
		Model(&db.Interaction{}).
		Select("target_id").
		Where("actor_id = ?", requesterID)

	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id <> ?", requesterID).
		Where("id NOT IN (?)", swiped)
	if gender != "" {
		query = query.Where("gender = ?", gender)
	}

	var candidates []db.Profile
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// GetByIDs loads several profiles keyed by id.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*db.Profile, error) {
	out := make(map[uint64]*db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}
