package leaderboard

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codearena/codearena-backend/pkg/errors"
)

const maxLimit = 100

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// GetLeaderboard serves GET /api/v1/leaderboard?limit=N.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLimit {
			errors.JSONError(c, errors.ValidationError("limit", "must be between 1 and 100"))
			return
		}
		limit = n
	}
	entries, err := h.service.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		errors.JSONError(c, errors.Wrap(err, errors.CacheError))
		return
	}
	errors.JSONSuccess(c, entries)
}

// GetRank serves GET /api/v1/leaderboard/:username.
func (h *Handler) GetRank(c *gin.Context) {
	username := c.Param("username")
	rank, err := h.service.GetRank(c.Request.Context(), username)
	if err != nil {
		errors.JSONError(c, errors.Wrap(err, errors.CacheError))
		return
	}
	if rank == 0 {
		errors.JSONError(c, errors.NotFoundError("player "+username))
		return
	}
	errors.JSONSuccess(c, gin.H{"username": username, "rank": rank})
}
