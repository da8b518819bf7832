package db

import (
	"time"
)

// Gender values stored on profiles. ShowGenderAll is only valid as a preference.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	ShowGenderAll = "all"
)

// Profile is the root entity: one row per registered user.
//
// Indexes:
//   - external_id is unique (one profile per messenger account).
//   - idx_feed(is_active, gender, created_at DESC, id) serves the candidate feed.
//
// List attributes (interests, artists, photos) are JSON-encoded at the storage boundary.
type Profile struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ExternalID int64  `gorm:"uniqueIndex;not null"`
	Username   string `gorm:"size:100"`

	Name       string `gorm:"size:50;not null"`
	Age        int    `gorm:"not null"`
	Gender     string `gorm:"size:20;not null;index:idx_feed,priority:2"`
	ShowGender string `gorm:"size:20;not null"`
	Country    string `gorm:"size:100"`
	City       string `gorm:"size:100"`

	Height           *int
	Weight           *int
	Zodiac           string `gorm:"size:20"`
	MBTI             string `gorm:"column:mbti;size:10"`
	Subculture       string `gorm:"size:50"`
	MonthlyIncome    *int
	RelationshipGoal string   `gorm:"size:50"`
	Bio              string   `gorm:"type:text"`
	Interests        []string `gorm:"serializer:json;type:text"`
	FavoriteArtists  []string `gorm:"serializer:json;type:text"`
	PhotoIDs         []string `gorm:"column:photo_ids;serializer:json;type:text"`

	IsActive  bool `gorm:"not null;index:idx_feed,priority:1"`
	IsPremium bool `gorm:"not null"`

	SwipesUsedToday  int `gorm:"not null"`
	DailyLimit       int `gorm:"not null"`
	LastSwipeResetAt time.Time

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_feed,priority:3,sort:desc"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Interaction is a single like/dislike event. The table is append-only.
//
// Indexes:
//   - idx_actor_target(actor_id, target_id) builds the exclusion set and finds
//     the latest decision for a directed pair.
//   - idx_target_like(target_id, is_like) counts likes received.
type Interaction struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ActorID   uint64    `gorm:"not null;index:idx_actor_target,priority:1"`
	TargetID  uint64    `gorm:"not null;index:idx_actor_target,priority:2;index:idx_target_like,priority:1"`
	IsLike    bool      `gorm:"not null;index:idx_target_like,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match is a mutual like. User1ID < User2ID always; the composite unique
// index makes a second row for the same pair impossible.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	User2ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`
	IsActive  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// Visit records that a profile was surfaced to a viewer.
type Visit struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ViewerID  uint64    `gorm:"not null;index"`
	ViewedID  uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// CanonicalPair orders two ids the way Match rows store them.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// All lists every model for migrations.
func All() []any {
	return []any{&Profile{}, &Interaction{}, &Match{}, &Visit{}}
}
