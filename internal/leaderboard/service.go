package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/codearena/codearena-backend/db"
)

const defaultKey = "leaderboard:rating"

// Service mirrors player ratings into a Redis sorted set.
type Service struct {
	rdb *redis.Client
	key string
}

func NewService(rdb *redis.Client) *Service {
	return &Service{rdb: rdb, key: defaultKey}
}

type LeaderboardEntry struct {
	Rank     int64  `json:"rank"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// RatingChanged lets the service observe rating updates.
func (s *Service) RatingChanged(ctx context.Context, username string, rating int) error {
	return s.rdb.ZAdd(ctx, s.key, redis.Z{Score: float64(rating), Member: username}).Err()
}

// Seed loads ratings from the database when the cache is cold.
func (s *Service) Seed(ctx context.Context, users []db.User) error {
	n, err := s.rdb.ZCard(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("check leaderboard size: %w", err)
	}
	if n > 0 || len(users) == 0 {
		return nil
	}
	members := make([]redis.Z, 0, len(users))
	for _, u := range users {
		members = append(members, redis.Z{Score: float64(u.Rating), Member: u.Username})
	}
	return s.rdb.ZAdd(ctx, s.key, members...).Err()
}

func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, s.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	leaderboard := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		name, _ := z.Member.(string)
		leaderboard = append(leaderboard, LeaderboardEntry{
			Rank:     int64(i + 1),
			Username: name,
			Rating:   int(z.Score),
		})
	}
	return leaderboard, nil
}

// GetRank is 1-based; 0 means unranked.
func (s *Service) GetRank(ctx context.Context, username string) (int64, error) {
	rank, err := s.rdb.ZRevRank(ctx, s.key, username).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rank: %w", err)
	}
	return rank + 1, nil
}
