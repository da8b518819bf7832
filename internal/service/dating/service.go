package dating

import (
	"context"

	"github.com/oggyb/matchmaker/internal/app"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/service/discovery"
	"github.com/oggyb/matchmaker/internal/service/profile"
	"github.com/oggyb/matchmaker/internal/service/swipe"
	"github.com/oggyb/matchmaker/internal/validator"
)

// Server implements the DatingService gRPC API on top of the profile,
// discovery and swipe services. Every error leaves through svcErr.Map.
type Server struct {
	appCtx    *app.AppContext
	validate  *validator.Validator
	profiles  *profile.Service
	discovery *discovery.Service
	swipes    *swipe.Service
}

// NewServer creates the gRPC service with dependencies from AppContext.
func NewServer(appCtx *app.AppContext) *Server {
	v := validator.New()
	return &Server{
		appCtx:    appCtx,
		validate:  v,
		profiles:  profile.NewService(appCtx, v),
		discovery: discovery.NewService(appCtx),
		swipes:    swipe.NewService(appCtx),
	}
}

func requireUser(telegramID int64) error {
	if telegramID <= 0 {
		return svcErr.InvalidArgument("telegram_id must be a positive integer")
	}
	return nil
}

// GetProfile returns a profile by telegram id.
func (s *Server) GetProfile(ctx context.Context, req *GetProfileRequest) (*ProfileResponse, error) {
	if err := requireUser(req.TelegramID); err != nil {
		return nil, err
	}
	view, err := s.profiles.Get(ctx, req.TelegramID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return FromView(view), nil
}

// CreateProfile registers a new profile.
func (s *Server) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*ProfileResponse, error) {
	view, err := s.profiles.Create(ctx, profile.CreateInput(*req))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return FromView(view), nil
}

// UpdateProfile applies a partial update.
func (s *Server) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*ProfileResponse, error) {
	if err := requireUser(req.TelegramID); err != nil {
		return nil, err
	}
	view, err := s.profiles.Update(ctx, req.TelegramID, req.UpdateInput)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return FromView(view), nil
}

// NextCandidate returns the next profile to show, or Found=false when the
// pool is exhausted.
func (s *Server) NextCandidate(ctx context.Context, req *NextCandidateRequest) (*NextCandidateResponse, error) {
	if err := requireUser(req.TelegramID); err != nil {
		return nil, err
	}
	c, err := s.discovery.NextCandidate(ctx, req.TelegramID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &NextCandidateResponse{
		Found:      c.Found(),
		Profile:    FromProfile(c.Profile),
		SwipesLeft: c.SwipesLeft,
	}, nil
}

// Swipe submits a like or dislike.
func (s *Server) Swipe(ctx context.Context, req *SwipeRequest) (*SwipeResponse, error) {
	if err := requireUser(req.TelegramID); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	res, err := s.swipes.Submit(ctx, req.TelegramID, req.TargetID, req.IsLike)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SwipeResponse{IsMatch: res.IsMatch, SwipesLeft: res.SwipesLeft}, nil
}

// ListMatches pages through the caller's active matches, newest first.
func (s *Server) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	if err := requireUser(req.TelegramID); err != nil {
		return nil, err
	}
	views, next, err := s.profiles.ListMatches(ctx, req.TelegramID, req.PageToken, req.PageSize)
	if err != nil {
		s.appCtx.Logger.Debug("ListMatches failed", "user", req.TelegramID, "err", err)
		return nil, svcErr.Map(err)
	}
	return FromMatches(views, next), nil
}

// GetStats returns the caller's activity counters.
func (s *Server) GetStats(ctx context.Context, req *GetStatsRequest) (*StatsResponse, error) {
	if err := requireUser(req.TelegramID); err != nil {
		return nil, err
	}
	st, err := s.profiles.Stats(ctx, req.TelegramID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return FromStats(st), nil
}
