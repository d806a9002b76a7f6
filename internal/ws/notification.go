package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/db"
	"github.com/codearena/codearena-backend/internal/duel"
	"github.com/codearena/codearena-backend/internal/store"
	"github.com/codearena/codearena-backend/pkg/logger"
	wsPkg "github.com/codearena/codearena-backend/pkg/websocket"
)

const MsgDuelResult = "duel-result"

// ResultFeed relays published duel results to every connected client.
type ResultFeed struct {
	rdb     *redis.Client
	hub     *wsPkg.Hub
	channel string
}

func NewResultFeed(rdb *redis.Client, hub *wsPkg.Hub) *ResultFeed {
	return &ResultFeed{
		rdb:     rdb,
		hub:     hub,
		channel: store.DuelResultsChannel,
	}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (f *ResultFeed) Run(ctx context.Context) error {
	pubsub := f.rdb.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	logger.Info(ctx, "result feed subscribed", zap.String("channel", f.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.forward(ctx, msg.Payload)
		}
	}
}

func (f *ResultFeed) forward(ctx context.Context, payload string) {
	var result db.Duel
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		logger.Warn(ctx, "malformed duel result", zap.Error(err))
		return
	}
	frame, err := json.Marshal(duel.Message{Type: MsgDuelResult, Data: result})
	if err != nil {
		logger.Error(ctx, "marshal duel result", zap.Error(err))
		return
	}
	sent := f.hub.Broadcast(frame)
	logger.Debug(ctx, "duel result relayed", zap.String("room_code", result.RoomCode), zap.Int("clients", sent))
}
