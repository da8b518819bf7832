package profile

import (
	"context"
	"strings"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/validator"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 20

// MaxPageSize caps match listings.
const MaxPageSize = 100

// CreateInput is everything a new profile may carry.
type CreateInput struct {
	ExternalID       int64    `json:"telegram_id" validate:"required,gt=0"`
	Username         string   `json:"username" validate:"max=100"`
	Name             string   `json:"name" validate:"required,min=2,max=50"`
	Age              int      `json:"age" validate:"required,gte=18,lte=100"`
	Gender           string   `json:"gender" validate:"required,is-gender"`
	ShowGender       string   `json:"show_gender" validate:"required,is-show-gender"`
	Country          string   `json:"country" validate:"required,max=100"`
	City             string   `json:"city" validate:"required,max=100"`
	Height           *int     `json:"height" validate:"omitempty,gte=100,lte=250"`
	Weight           *int     `json:"weight" validate:"omitempty,gte=30,lte=300"`
	Zodiac           string   `json:"zodiac" validate:"max=20"`
	MBTI             string   `json:"mbti" validate:"omitempty,len=4"`
	Subculture       string   `json:"subculture" validate:"max=50"`
	MonthlyIncome    *int     `json:"monthly_income" validate:"omitempty,gte=0"`
	RelationshipGoal string   `json:"relationship_goal" validate:"max=50"`
	Bio              string   `json:"bio" validate:"max=1000"`
	Interests        []string `json:"interests" validate:"max=30,dive,max=50"`
	FavoriteArtists  []string `json:"favorite_artists" validate:"max=30,dive,max=100"`
}

// UpdateInput is a partial update: nil fields are left as they are, list
// fields replace the stored list wholesale.
type UpdateInput struct {
	Name             *string   `json:"name" validate:"omitempty,min=2,max=50"`
	Age              *int      `json:"age" validate:"omitempty,gte=18,lte=100"`
	ShowGender       *string   `json:"show_gender" validate:"omitempty,is-show-gender"`
	City             *string   `json:"city" validate:"omitempty,max=100"`
	Height           *int      `json:"height" validate:"omitempty,gte=100,lte=250"`
	Weight           *int      `json:"weight" validate:"omitempty,gte=30,lte=300"`
	Zodiac           *string   `json:"zodiac" validate:"omitempty,max=20"`
	MBTI             *string   `json:"mbti" validate:"omitempty,len=4"`
	Subculture       *string   `json:"subculture" validate:"omitempty,max=50"`
	MonthlyIncome    *int      `json:"monthly_income" validate:"omitempty,gte=0"`
	RelationshipGoal *string   `json:"relationship_goal" validate:"omitempty,max=50"`
	Bio              *string   `json:"bio" validate:"omitempty,max=1000"`
	Interests        *[]string `json:"interests" validate:"omitempty,max=30,dive,max=50"`
	FavoriteArtists  *[]string `json:"favorite_artists" validate:"omitempty,max=30,dive,max=100"`
	PhotoIDs         *[]string `json:"photo_ids" validate:"omitempty,max=10"`
	IsActive         *bool     `json:"is_active"`
}

// View is a profile plus the owner's current swipe allowance.
type View struct {
	Profile    *db.Profile
	SwipesLeft int
}

// MatchView is one active match as seen by one of its members.
type MatchView struct {
	Match   db.Match
	Partner *db.Profile
}

// Stats summarizes a user's activity.
type Stats struct {
	LikesReceived int64
	ProfileVisits int64
	MatchesCount  int64
	SwipesToday   int
	SwipesLimit   int
}

// Service owns profile CRUD plus the read-only match and stats views.
type Service struct {
	appCtx   *app.AppContext
	validate *validator.Validator
}

// NewService creates the profile service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, v *validator.Validator) *Service {
	return &Service{appCtx: appCtx, validate: v}
}

// Get returns a profile by external id together with its swipes left.
func (s *Service) Get(ctx context.Context, externalID int64) (*View, error) {
	p, err := s.appCtx.Store.Profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return &View{Profile: p, SwipesLeft: s.appCtx.Quota.Peek(p).Remaining}, nil
}

// Create registers a new profile.
//
// Behavior:
//   - Validates input; ErrInvalidArgument names every bad field.
//   - ErrConflict if the external id is already registered.
//   - New profiles start active, non-premium, with the configured daily limit.
func (s *Service) Create(ctx context.Context, in CreateInput) (*View, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	p := &db.Profile{
		ExternalID:       in.ExternalID,
		Username:         in.Username,
		Name:             strings.TrimSpace(in.Name),
		Age:              in.Age,
		Gender:           strings.ToLower(in.Gender),
		ShowGender:       strings.ToLower(in.ShowGender),
		Country:          in.Country,
		City:             strings.TrimSpace(in.City),
		Height:           in.Height,
		Weight:           in.Weight,
		Zodiac:           in.Zodiac,
		MBTI:             strings.ToUpper(in.MBTI),
		Subculture:       in.Subculture,
		MonthlyIncome:    in.MonthlyIncome,
		RelationshipGoal: in.RelationshipGoal,
		Bio:              in.Bio,
		Interests:        nonNil(in.Interests),
		FavoriteArtists:  nonNil(in.FavoriteArtists),
		PhotoIDs:         []string{},
		IsActive:         true,
		DailyLimit:       s.appCtx.Config.Swipes.DailyLimit,
		LastSwipeResetAt: s.appCtx.Quota.Now(),
	}

	if err := s.appCtx.Store.Profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("profile created", "user", p.ExternalID, "id", p.ID)
	return &View{Profile: p, SwipesLeft: s.appCtx.Quota.Evaluate(p).Remaining}, nil
}

// Update applies a partial update under the profile's row lock, so it never
// races with the owner's own swipe counter.
func (s *Service) Update(ctx context.Context, externalID int64, in UpdateInput) (*View, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	var out *View
	err := s.appCtx.Store.Tx(ctx, func(tx *repository.Store) error {
		p, err := tx.Profiles.GetByExternalIDForUpdate(ctx, externalID)
		if err != nil {
			return err
		}

		apply(p, in)
		if err := tx.Profiles.Save(ctx, p); err != nil {
			return err
		}
		out = &View{Profile: p, SwipesLeft: s.appCtx.Quota.Peek(p).Remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMatches returns the user's active matches with partner profiles,
// newest first, cursor-paginated.
func (s *Service) ListMatches(ctx context.Context, externalID int64, pageToken *string, limit int) ([]MatchView, *string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	user, err := s.appCtx.Store.Profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, nil, err
	}

	matches, next, err := s.appCtx.Store.Matches.ListActive(ctx, user.ID, pageToken, limit)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, repository.Partner(m, user.ID))
	}
	partners, err := s.appCtx.Store.Profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	out := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		// a partner row missing from the batch is skipped
		partner, ok := partners[repository.Partner(m, user.ID)]
		if !ok {
			continue
		}
		out = append(out, MatchView{Match: m, Partner: partner})
	}
	return out, next, nil
}

// Stats returns the user's counters.
//
// Likes received are cache-first: Redis (likes:received:<id>) with a DB
// fallback that re-populates the key.
func (s *Service) Stats(ctx context.Context, externalID int64) (*Stats, error) {
	store := s.appCtx.Store
	user, err := store.Profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	likes, ok, err := s.appCtx.RedisCache.GetLikesReceived(ctx, user.ID)
	if err != nil {
		s.appCtx.Logger.Warn("like counter cache read failed", "id", user.ID, "err", err)
	}
	if !ok {
		if likes, err = store.Interactions.CountLikesReceived(ctx, user.ID); err != nil {
			return nil, err
		}
		_ = s.appCtx.RedisCache.SetLikesReceived(ctx, user.ID, likes)
	}

	visits, err := store.Visits.CountByViewed(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	matches, err := store.Matches.CountActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	used := user.SwipesUsedToday
	if s.appCtx.Quota.IsStale(user) {
		used = 0
	}

	return &Stats{
		LikesReceived: likes,
		ProfileVisits: visits,
		MatchesCount:  matches,
		SwipesToday:   used,
		SwipesLimit:   user.DailyLimit,
	}, nil
}

func apply(p *db.Profile, in UpdateInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
	if in.ShowGender != nil {
		p.ShowGender = strings.ToLower(*in.ShowGender)
	}
	if in.City != nil {
		p.City = strings.TrimSpace(*in.City)
	}
	if in.Height != nil {
		p.Height = in.Height
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.Zodiac != nil {
		p.Zodiac = *in.Zodiac
	}
	if in.MBTI != nil {
		p.MBTI = strings.ToUpper(*in.MBTI)
	}
	if in.Subculture != nil {
		p.Subculture = *in.Subculture
	}
	if in.MonthlyIncome != nil {
		p.MonthlyIncome = in.MonthlyIncome
	}
	if in.RelationshipGoal != nil {
		p.RelationshipGoal = *in.RelationshipGoal
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if in.Interests != nil {
		p.Interests = nonNil(*in.Interests)
	}
	if in.FavoriteArtists != nil {
		p.FavoriteArtists = nonNil(*in.FavoriteArtists)
	}
	if in.PhotoIDs != nil {
		p.PhotoIDs = nonNil(*in.PhotoIDs)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
