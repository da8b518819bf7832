package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
)

// VisitRepository records which profiles were surfaced to whom.
type VisitRepository struct {
	db *gorm.DB
}

// NewVisitRepository creates a new repository bound to the given DB connection.
func NewVisitRepository(database *gorm.DB) *VisitRepository {
	return &VisitRepository{db: database}
}

// Record appends a visit of viewer to viewed.
func (r *VisitRepository) Record(ctx context.Context, viewerID, viewedID uint64) error {
	return r.db.WithContext(ctx).Create(&db.Visit{ViewerID: viewerID, ViewedID: viewedID}).Error
}

// CountByViewed returns how many times the profile was shown to others.
func (r *VisitRepository) CountByViewed(ctx context.Context, viewedID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Visit{}).
		Where("viewed_id = ?", viewedID).
		Count(&count).Error
	return count, err
}
