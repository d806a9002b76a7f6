package rating

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/pkg/logger"
)

// Store reads and writes persisted player ratings.
type Store interface {
	GetRating(ctx context.Context, username string) (int, error)
	SetRating(ctx context.Context, username string, rating int) error
}

// Observer is told about every rating written, e.g. to mirror a leaderboard.
type Observer interface {
	RatingChanged(ctx context.Context, username string, rating int) error
}

type Updater struct {
	store     Store
	k         float64
	floor     int
	observers []Observer
}

func NewUpdater(store Store, k float64, floor int, observers ...Observer) *Updater {
	return &Updater{
		store:     store,
		k:         k,
		floor:     floor,
		observers: observers,
	}
}

// Expected is the Elo expected score of a player rated ra against rb.
func Expected(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

// Delta is round(k * (actual - expected)).
func Delta(ra, rb int, actual, k float64) int {
	return int(math.Round(k * (actual - Expected(ra, rb))))
}

// Apply settles a duel between a and b. winner is empty for a draw.
// Unranked duels return zero deltas without touching the store. The
// returned deltas are the raw Elo changes; stored ratings are floored.
func (u *Updater) Apply(ctx context.Context, a, b, winner string, ranked bool) (map[string]int, error) {
	changes := map[string]int{a: 0, b: 0}
	if !ranked {
		return changes, nil
	}

	ra, err := u.store.GetRating(ctx, a)
	if err != nil {
		return changes, fmt.Errorf("get rating for %s: %w", a, err)
	}
	rb, err := u.store.GetRating(ctx, b)
	if err != nil {
		return changes, fmt.Errorf("get rating for %s: %w", b, err)
	}

	actualA := 0.5
	switch winner {
	case a:
		actualA = 1
	case b:
		actualA = 0
	}
	da := Delta(ra, rb, actualA, u.k)
	db := Delta(rb, ra, 1-actualA, u.k)

	newA := u.clamp(ra + da)
	newB := u.clamp(rb + db)
	if err := u.store.SetRating(ctx, a, newA); err != nil {
		return changes, fmt.Errorf("set rating for %s: %w", a, err)
	}
	if err := u.store.SetRating(ctx, b, newB); err != nil {
		return changes, fmt.Errorf("set rating for %s: %w", b, err)
	}
	changes[a], changes[b] = da, db

	for _, o := range u.observers {
		for name, r := range map[string]int{a: newA, b: newB} {
			if err := o.RatingChanged(ctx, name, r); err != nil {
				logger.Warn(ctx, "rating observer failed", zap.String("username", name), zap.Error(err))
			}
		}
	}

	logger.Info(ctx, "ratings updated",
		zap.String("player_a", a), zap.Int("rating_a", newA), zap.Int("delta_a", da),
		zap.String("player_b", b), zap.Int("rating_b", newB), zap.Int("delta_b", db))
	return changes, nil
}

func (u *Updater) clamp(r int) int {
	if r < u.floor {
		return u.floor
	}
	return r
}
