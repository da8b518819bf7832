package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCities = []string{"Moscow", "Kazan", "Novosibirsk", "Yekaterinburg", "Saint Petersburg"}

var seedInterests = []string{
	"Music", "Sport", "Anime", "Travel", "Books", "Photography",
	"Cooking", "Art", "Science", "Dancing", "Games", "Coffee",
}

var seedTables = []string{"visits", "matches", "interactions", "profiles"}

// SeedTestData resets the database and populates it with demo profiles and swipes.
//
// Behavior:
//  1. Clears visits, matches, interactions and profiles.
//  2. Creates 20 profiles (10 male, 10 female) with staggered created_at.
//  3. Generates ~150 interactions with ~70% likes; every 3rd like gets a
//     reciprocal like and a Match row.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB, dailyLimit int, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearTables(db); err != nil {
		return err
	}
	log.Info("cleared existing data")

	now := time.Now().UTC()
	profiles := make([]Profile, 0, 20)
	for i := 1; i <= 20; i++ {
		gender, show := GenderMale, GenderFemale
		if i > 10 {
			gender, show = GenderFemale, GenderMale
		}
		if i%7 == 0 {
			show = ShowGenderAll
		}

		interests := make([]string, 0, 3)
		for _, k := range r.Perm(len(seedInterests))[:3] {
			interests = append(interests, seedInterests[k])
		}

		profiles = append(profiles, Profile{
			ExternalID:       int64(100000 + i),
			Username:         fmt.Sprintf("user%d", i),
			Name:             fmt.Sprintf("User %d", i),
			Age:              18 + r.Intn(20),
			Gender:           gender,
			ShowGender:       show,
			Country:          "Russia",
			City:             seedCities[r.Intn(len(seedCities))],
			Bio:              "Demo profile",
			Interests:        interests,
			FavoriteArtists:  []string{},
			PhotoIDs:         []string{},
			IsActive:         true,
			IsPremium:        i%10 == 0,
			DailyLimit:       dailyLimit,
			LastSwipeResetAt: now,
			CreatedAt:        now.Add(-time.Duration(20-i) * time.Hour),
		})
	}
	if err := db.Create(&profiles).Error; err != nil {
		return fmt.Errorf("failed to seed profiles: %w", err)
	}
	log.Info("seeded profiles", "count", len(profiles))

	counter := 0
	for _, actor := range profiles {
		for j := 0; j < 8; j++ {
			target := profiles[r.Intn(len(profiles))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}

			liked := r.Intn(100) < 70
			if err := db.Create(&Interaction{ActorID: actor.ID, TargetID: target.ID, IsLike: liked}).Error; err != nil {
				return fmt.Errorf("failed to seed interaction: %w", err)
			}

			if liked && counter%3 == 0 {
				if err := db.Create(&Interaction{ActorID: target.ID, TargetID: actor.ID, IsLike: true}).Error; err != nil {
					return fmt.Errorf("failed to seed interaction: %w", err)
				}
				u1, u2 := CanonicalPair(actor.ID, target.ID)
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&Match{User1ID: u1, User2ID: u2, IsActive: true}).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}
			counter++
		}
	}
	log.Info("seeded interactions", "count", counter)

	return nil
}

func clearTables(db *gorm.DB) error {
	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range seedTables {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, table := range seedTables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	case "postgres":
		for _, table := range seedTables {
			db.Exec("ALTER SEQUENCE " + table + "_id_seq RESTART WITH 1")
		}
	}
	return nil
}
