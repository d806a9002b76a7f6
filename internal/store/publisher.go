package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/codearena/codearena-backend/db"
)

const DuelResultsChannel = "duel-results"

// DuelPublisher announces concluded duels on a Redis channel.
type DuelPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewDuelPublisher(rdb *redis.Client) *DuelPublisher {
	return &DuelPublisher{rdb: rdb, channel: DuelResultsChannel}
}

func (p *DuelPublisher) RecordDuel(ctx context.Context, d db.Duel) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal duel result: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish duel result: %w", err)
	}
	return nil
}
