package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/utils/pagination"
)

// MatchRepository stores mutual likes, one row per unordered pair.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent inserts an active match for the pair unless one exists.
//
// Behavior:
//   - The pair is canonicalized to (min, max) before insert.
//   - Insert-or-ignore on the unique (user1_id, user2_id) index; created is
//     true only for the call that actually wrote the row.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b uint64) (created bool, err error) {
	u1, u2 := db.CanonicalPair(a, b)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&db.Match{User1ID: u1, User2ID: u2, IsActive: true})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Get returns the match for a pair in either order, or nil.
func (r *MatchRepository) Get(ctx context.Context, a, b uint64) (*db.Match, error) {
	u1, u2 := db.CanonicalPair(a, b)
	var rows []db.Match
	if err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListActive returns active matches involving the user.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListActive(ctx, 42, nil, 20) // first 20 matches of user 42
func (r *MatchRepository) ListActive(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Match, *string, error) {
	var matches []db.Match

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.Invalid(err.Error())
	}

	query := r.db.WithContext(ctx).
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", userID, userID, true).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if !cursor.IsZero() {
		ts := cursor.CreatedAt()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(matches) > limit {
		last := matches[limit-1]
		token, _ := pagination.Encode(pagination.At(last.ID, last.CreatedAt))
		nextToken = &token
		matches = matches[:limit]
	}

	return matches, nextToken, nil
}

// CountActive returns how many active matches involve the user.
func (r *MatchRepository) CountActive(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", userID, userID, true).
		Count(&count).Error
	return count, err
}

// Partner returns the other side of a match.
func Partner(m db.Match, userID uint64) uint64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}
