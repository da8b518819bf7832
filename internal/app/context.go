package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/service/quota"
)

// AppContext holds shared dependencies (config, DB, Redis, logger, clock)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	Store      *repository.Store
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	// Quota is the single swipe tracker shared by every service.
	Quota *quota.Tracker
}

// New creates a new AppContext using the wall clock.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return NewWithClock(cfg, db, rdb, logger, time.Now)
}

// NewWithClock is New with an injectable clock, used by tests that cross a
// quota reset boundary.
func NewWithClock(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, now func() time.Time) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		Store:      repository.NewStore(db),
		RedisCache: rdb,
		Logger:     logger,
		Quota:      quota.NewTracker(cfg.Swipes.ResetWindow, now),
	}
}
