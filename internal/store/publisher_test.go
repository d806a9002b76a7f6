package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/codearena-backend/db"
)

func TestDuelPublisherPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, DuelResultsChannel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := NewDuelPublisher(rdb)
	require.NoError(t, p.RecordDuel(ctx, db.Duel{RoomCode: "ABC123", Winner: "alice", EndReason: "forfeit"}))

	select {
	case msg := <-sub.Channel():
		var got db.Duel
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "ABC123", got.RoomCode)
		assert.Equal(t, "alice", got.Winner)
	case <-time.After(2 * time.Second):
		t.Fatal("no duel result published")
	}
}
