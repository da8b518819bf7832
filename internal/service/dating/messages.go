package dating

import (
	"time"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/service/profile"
)

// Profile is the wire view of a profile. Quota bookkeeping stays internal.
type Profile struct {
	ID               uint64    `json:"id"`
	TelegramID       int64     `json:"telegram_id"`
	Username         string    `json:"username,omitempty"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Gender           string    `json:"gender"`
	ShowGender       string    `json:"show_gender"`
	Country          string    `json:"country"`
	City             string    `json:"city"`
	Height           *int      `json:"height,omitempty"`
	Weight           *int      `json:"weight,omitempty"`
	Zodiac           string    `json:"zodiac,omitempty"`
	MBTI             string    `json:"mbti,omitempty"`
	Subculture       string    `json:"subculture,omitempty"`
	MonthlyIncome    *int      `json:"monthly_income,omitempty"`
	RelationshipGoal string    `json:"relationship_goal,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	Interests        []string  `json:"interests"`
	FavoriteArtists  []string  `json:"favorite_artists"`
	PhotoIDs         []string  `json:"photo_ids"`
	IsActive         bool      `json:"is_active"`
	IsPremium        bool      `json:"is_premium"`
	CreatedAt        time.Time `json:"created_at"`
}

// FromProfile converts a stored profile into its wire view.
func FromProfile(p *db.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:               p.ID,
		TelegramID:       p.ExternalID,
		Username:         p.Username,
		Name:             p.Name,
		Age:              p.Age,
		Gender:           p.Gender,
		ShowGender:       p.ShowGender,
		Country:          p.Country,
		City:             p.City,
		Height:           p.Height,
		Weight:           p.Weight,
		Zodiac:           p.Zodiac,
		MBTI:             p.MBTI,
		Subculture:       p.Subculture,
		MonthlyIncome:    p.MonthlyIncome,
		RelationshipGoal: p.RelationshipGoal,
		Bio:              p.Bio,
		Interests:        orEmpty(p.Interests),
		FavoriteArtists:  orEmpty(p.FavoriteArtists),
		PhotoIDs:         orEmpty(p.PhotoIDs),
		IsActive:         p.IsActive,
		IsPremium:        p.IsPremium,
		CreatedAt:        p.CreatedAt,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type GetProfileRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

// CreateProfileRequest carries the same fields and rules as profile.CreateInput.
type CreateProfileRequest profile.CreateInput

type UpdateProfileRequest struct {
	TelegramID int64 `json:"telegram_id"`
	profile.UpdateInput
}

type ProfileResponse struct {
	Profile    *Profile `json:"profile"`
	SwipesLeft int      `json:"swipes_left"`
}

// FromView builds a ProfileResponse.
func FromView(v *profile.View) *ProfileResponse {
	return &ProfileResponse{Profile: FromProfile(v.Profile), SwipesLeft: v.SwipesLeft}
}

type NextCandidateRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

// NextCandidateResponse has Found=false and no profile when the requester
// has seen everyone eligible.
type NextCandidateResponse struct {
	Found      bool     `json:"found"`
	Profile    *Profile `json:"profile,omitempty"`
	SwipesLeft int      `json:"swipes_left"`
}

type SwipeRequest struct {
	TelegramID int64  `json:"telegram_id"`
	TargetID   uint64 `json:"target_id" validate:"required"`
	IsLike     bool   `json:"is_like"`
}

type SwipeResponse struct {
	IsMatch    bool `json:"is_match"`
	SwipesLeft int  `json:"swipes_left"`
}

type ListMatchesRequest struct {
	TelegramID int64   `json:"telegram_id"`
	PageSize   int     `json:"page_size,omitempty"`
	PageToken  *string `json:"page_token,omitempty"`
}

type MatchEntry struct {
	MatchID   uint64    `json:"match_id"`
	CreatedAt time.Time `json:"created_at"`
	Partner   *Profile  `json:"partner"`
}

type ListMatchesResponse struct {
	Matches       []MatchEntry `json:"matches"`
	NextPageToken *string      `json:"next_page_token,omitempty"`
}

// FromMatches builds a ListMatchesResponse.
func FromMatches(views []profile.MatchView, next *string) *ListMatchesResponse {
	resp := &ListMatchesResponse{Matches: make([]MatchEntry, 0, len(views)), NextPageToken: next}
	for _, v := range views {
		resp.Matches = append(resp.Matches, MatchEntry{
			MatchID:   v.Match.ID,
			CreatedAt: v.Match.CreatedAt,
			Partner:   FromProfile(v.Partner),
		})
	}
	return resp
}

type GetStatsRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

type StatsResponse struct {
	LikesReceived int64 `json:"likes_received"`
	ProfileVisits int64 `json:"profile_visits"`
	MatchesCount  int64 `json:"matches_count"`
	SwipesToday   int   `json:"swipes_today"`
	SwipesLimit   int   `json:"swipes_limit"`
}

// FromStats builds a StatsResponse.
func FromStats(s *profile.Stats) *StatsResponse {
	return &StatsResponse{
		LikesReceived: s.LikesReceived,
		ProfileVisits: s.ProfileVisits,
		MatchesCount:  s.MatchesCount,
		SwipesToday:   s.SwipesToday,
		SwipesLimit:   s.SwipesLimit,
	}
}
