package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DUEL_DURATION", "")
	t.Setenv("DISCONNECT_GRACE", "")
	t.Setenv("RATING_K", "")

	cfg := LoadConfig()

	assert.Equal(t, 30*time.Minute, cfg.Duel.Duration)
	assert.Equal(t, 10*time.Second, cfg.Duel.DisconnectGrace)
	assert.Equal(t, 2*time.Minute, cfg.Duel.MatchTimeout)
	assert.Equal(t, float64(32), cfg.Duel.RatingK)
	assert.Equal(t, 800, cfg.Duel.RatingFloor)
	assert.Equal(t, int64(50*1024*1024), cfg.Sandbox.MaxOutputBytes)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DISCONNECT_GRACE", "0s")
	t.Setenv("MATCH_TIMEOUT", "45")
	t.Setenv("SANDBOX_ENABLE_SECCOMP", "false")
	t.Setenv("SANDBOX_CPU_QUOTA", "1.5")

	cfg := LoadConfig()

	assert.Equal(t, time.Duration(0), cfg.Duel.DisconnectGrace)
	assert.Equal(t, 45*time.Second, cfg.Duel.MatchTimeout)
	assert.False(t, cfg.Sandbox.EnableSeccomp)
	assert.Equal(t, 1.5, cfg.Sandbox.CPUQuota)
}
