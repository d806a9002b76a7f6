package match

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/codearena/codearena-backend/pkg/errors"
)

// Stats is a point-in-time view of matchmaking and room load.
type Stats struct {
	Queued      int `json:"queued"`
	LobbyRooms  int `json:"lobby_rooms"`
	ActiveRooms int `json:"active_rooms"`
}

// StatsSource answers from whoever owns the queue.
type StatsSource interface {
	Stats(ctx context.Context) (Stats, error)
}

type Handler struct {
	source StatsSource
}

func NewHandler(s StatsSource) *Handler {
	return &Handler{
		source: s,
	}
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.source.Stats(c.Request.Context())
	if err != nil {
		errors.JSONError(c, errors.Wrap(err, errors.ServiceUnavailable))
		return
	}
	errors.JSONSuccess(c, stats)
}
