package discovery

import (
	"context"
	"strings"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/repository"
)

// Candidate is the result of a feed request. Profile is nil when the
// requester has seen everyone eligible; that is a normal outcome, not an error.
type Candidate struct {
	Profile    *db.Profile
	SwipesLeft int
}

// Found reports whether a profile was surfaced.
func (c *Candidate) Found() bool { return c != nil && c.Profile != nil }

// Service is the candidate selector behind the discovery feed.
type Service struct {
	appCtx *app.AppContext
}

// NewService creates the selector with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// NextCandidate picks the next profile to show to the requester.
//
// Behavior:
//   - ErrNotFound if the requester is not registered.
//   - ErrQuotaExceeded (after a lazy reset) before any selection work.
//   - Skips the requester and everyone they already liked or disliked.
//   - Honors the requester's shown-gender preference; "all" is a wildcard.
//   - Newest profile first, ties broken by id.
//   - Records exactly one Visit when a profile is returned, none otherwise.
//
// Example:
//
//	svc.NextCandidate(ctx, 123456789)
func (s *Service) NextCandidate(ctx context.Context, externalID int64) (*Candidate, error) {
	log := s.appCtx.Logger.With("op", "NextCandidate", "user", externalID)
	out := &Candidate{}

	err := s.appCtx.Store.Tx(ctx, func(tx *repository.Store) error {
		requester, err := tx.Profiles.GetByExternalIDForUpdate(ctx, externalID)
		if err != nil {
			return err
		}

		st, err := s.appCtx.Quota.Check(ctx, tx.Profiles, requester)
		if err != nil {
			return err
		}
		out.SwipesLeft = st.Remaining

		candidate, err := tx.Profiles.NextCandidate(ctx, requester.ID, GenderFilter(requester.ShowGender))
		if err != nil {
			return err
		}
		if candidate == nil {
			return nil
		}

		if err := tx.Visits.Record(ctx, requester.ID, candidate.ID); err != nil {
			return err
		}
		out.Profile = candidate
		return nil
	})
	if err != nil {
		log.Debug("no candidate served", "err", err)
		return nil, err
	}

	if out.Found() {
		log.Debug("candidate served", "candidate", out.Profile.ID)
	} else {
		log.Debug("candidate pool exhausted")
	}
	return out, nil
}

// GenderFilter turns a shown-gender preference into a gender to match on.
// An empty result means no restriction.
func GenderFilter(showGender string) string {
	g := strings.ToLower(strings.TrimSpace(showGender))
	if g == db.ShowGenderAll {
		return ""
	}
	return g
}
