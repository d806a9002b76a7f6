package leaderboard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/codearena-backend/db"
)

func newMiniredisService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewService(rdb)
}

func TestRatingChangedAndTop(t *testing.T) {
	s := newMiniredisService(t)
	ctx := context.Background()

	require.NoError(t, s.RatingChanged(ctx, "alice", 1216))
	require.NoError(t, s.RatingChanged(ctx, "bob", 1184))
	require.NoError(t, s.RatingChanged(ctx, "carol", 1500))
	require.NoError(t, s.RatingChanged(ctx, "bob", 1300))

	top, err := s.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{
		{Rank: 1, Username: "carol", Rating: 1500},
		{Rank: 2, Username: "bob", Rating: 1300},
	}, top)

	rank, err := s.GetRank(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rank)

	rank, err = s.GetRank(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rank)
}

func TestSeedOnlyWhenCold(t *testing.T) {
	s := newMiniredisService(t)
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx, []db.User{{Username: "alice", Rating: 1400}}))
	require.NoError(t, s.Seed(ctx, []db.User{{Username: "bob", Rating: 2000}}))

	top, err := s.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Username)
}

func TestRatingChangedPropagatesRedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewService(rdb)

	mock.ExpectZAdd(defaultKey, redis.Z{Score: 1216, Member: "alice"}).SetErr(stderrors.New("READONLY"))

	err := s.RatingChanged(context.Background(), "alice", 1216)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlerGetLeaderboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newMiniredisService(t)
	require.NoError(t, s.RatingChanged(context.Background(), "alice", 1216))

	r := gin.New()
	h := NewHandler(s)
	r.GET("/api/v1/leaderboard", h.GetLeaderboard)
	r.GET("/api/v1/leaderboard/:username", h.GetRank)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []LeaderboardEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "alice", body.Data[0].Username)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
