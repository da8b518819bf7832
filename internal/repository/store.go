package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one connection or transaction.
type Store struct {
	db *gorm.DB

	Profiles     *ProfileRepository
	Interactions *InteractionRepository
	Matches      *MatchRepository
	Visits       *VisitRepository
}

// NewStore binds every repository to the given DB handle.
func NewStore(database *gorm.DB) *Store {
	return &Store{
		db:           database,
		Profiles:     NewProfileRepository(database),
		Interactions: NewInteractionRepository(database),
		Matches:      NewMatchRepository(database),
		Visits:       NewVisitRepository(database),
	}
}

// Tx runs fn inside a single database transaction. Every write made through
// the Store passed to fn commits together or not at all.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
