package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/repository"
)

// Unlimited is reported as Remaining for premium profiles.
const Unlimited = -1

// Status is the outcome of a quota evaluation.
type Status struct {
	Allowed   bool
	Remaining int
}

// Tracker enforces the per-profile daily swipe ceiling.
//
// The counter lives on the profile row. Callers hold that row's lock (see
// ProfileRepository.GetByExternalIDForUpdate) for the whole check-and-consume,
// which makes the read-modify-write atomic per actor.
type Tracker struct {
	window time.Duration
	now    func() time.Time
}

// NewTracker creates a tracker. window is the reset period (one day in
// production); now defaults to time.Now.
func NewTracker(window time.Duration, now func() time.Time) *Tracker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{window: window, now: now}
}

// Now exposes the tracker clock so callers stamp the same time.
func (t *Tracker) Now() time.Time {
	return t.now().UTC()
}

// IsStale reports whether the profile's counter belongs to a past window.
func (t *Tracker) IsStale(p *db.Profile) bool {
	return p.LastSwipeResetAt.Before(t.Now().Add(-t.window))
}

// Refresh lazily resets a stale counter, both on p and in storage.
func (t *Tracker) Refresh(ctx context.Context, profiles *repository.ProfileRepository, p *db.Profile) error {
	if !t.IsStale(p) {
		return nil
	}
	now := t.Now()
	if err := profiles.ResetSwipes(ctx, p.ID, now); err != nil {
		return fmt.Errorf("reset swipes for profile %d: %w", p.ID, err)
	}
	p.SwipesUsedToday = 0
	p.LastSwipeResetAt = now
	return nil
}

// Evaluate reports whether p may swipe right now. It does not reset or consume.
func (t *Tracker) Evaluate(p *db.Profile) Status {
	if p.IsPremium {
		return Status{Allowed: true, Remaining: Unlimited}
	}
	return Status{
		Allowed:   p.SwipesUsedToday < p.DailyLimit,
		Remaining: Remaining(p),
	}
}

// Peek evaluates p as if a due reset had already happened, without writing.
// Read-only endpoints use it to report an accurate swipes-left figure.
func (t *Tracker) Peek(p *db.Profile) Status {
	view := *p
	if t.IsStale(&view) {
		view.SwipesUsedToday = 0
	}
	return t.Evaluate(&view)
}

// Check refreshes the counter and fails with ErrQuotaExceeded when the
// ceiling is reached. Nothing is consumed.
func (t *Tracker) Check(ctx context.Context, profiles *repository.ProfileRepository, p *db.Profile) (Status, error) {
	if err := t.Refresh(ctx, profiles, p); err != nil {
		return Status{}, err
	}
	st := t.Evaluate(p)
	if !st.Allowed {
		return st, fmt.Errorf("profile %d: %w", p.ID, svcErr.ErrQuotaExceeded)
	}
	return st, nil
}

// CheckAndConsume is Check followed by a single increment of the counter.
// Premium profiles still count swipes; the ceiling is just never enforced.
func (t *Tracker) CheckAndConsume(ctx context.Context, profiles *repository.ProfileRepository, p *db.Profile) (Status, error) {
	if _, err := t.Check(ctx, profiles, p); err != nil {
		return Status{Allowed: false, Remaining: Remaining(p)}, err
	}
	if err := profiles.IncrementSwipes(ctx, p.ID); err != nil {
		return Status{}, fmt.Errorf("increment swipes for profile %d: %w", p.ID, err)
	}
	p.SwipesUsedToday++
	return Status{Allowed: true, Remaining: t.Evaluate(p).Remaining}, nil
}

// ResetStale is the eager variant: it resets every profile whose window has
// elapsed in one statement.
func (t *Tracker) ResetStale(ctx context.Context, profiles *repository.ProfileRepository) (int64, error) {
	now := t.Now()
	return profiles.ResetStale(ctx, now.Add(-t.window), now)
}

// Remaining is the number of swipes left today, never negative.
// Premium profiles report Unlimited.
func Remaining(p *db.Profile) int {
	if p.IsPremium {
		return Unlimited
	}
	if left := p.DailyLimit - p.SwipesUsedToday; left > 0 {
		return left
	}
	return 0
}
