package duel

import (
	"math/rand/v2"

	"github.com/codearena/codearena-backend/db"
)

type Status int

const (
	Lobby Status = iota
	Active
	Concluded
)

func (s Status) String() string {
	switch s {
	case Lobby:
		return "lobby"
	case Active:
		return "active"
	case Concluded:
		return "concluded"
	default:
		return "unknown"
	}
}

// Reasons reported in duel-ended.
const (
	ReasonPerfectScore = "perfect-score"
	ReasonTimeout      = "timeout"
	ReasonForfeit      = "forfeit"
	ReasonDisconnect   = "disconnect"
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Room is owned by the orchestrator loop and never shared.
type Room struct {
	Code     string
	Players  []string
	Problem  *db.Problem
	Scores   map[string]int
	Times    map[string]float64
	IsRanked bool
	Status   Status

	conns map[string]string // username -> connection id
	timer Timer
	gen   uint64
}

func newRoom(code string, ranked bool) *Room {
	return &Room{
		Code:     code,
		IsRanked: ranked,
		Status:   Lobby,
		Scores:   make(map[string]int),
		Times:    make(map[string]float64),
		conns:    make(map[string]string),
	}
}

func (r *Room) hasPlayer(username string) bool {
	for _, p := range r.Players {
		if p == username {
			return true
		}
	}
	return false
}

func (r *Room) opponentOf(username string) string {
	for _, p := range r.Players {
		if p != username {
			return p
		}
	}
	return ""
}

func (r *Room) addPlayer(username, connID string) {
	if !r.hasPlayer(username) {
		r.Players = append(r.Players, username)
	}
	r.conns[username] = connID
}

func (r *Room) removePlayer(username string) {
	kept := r.Players[:0]
	for _, p := range r.Players {
		if p != username {
			kept = append(kept, p)
		}
	}
	r.Players = kept
	delete(r.conns, username)
}

func (r *Room) playerList() []string {
	out := make([]string, len(r.Players))
	copy(out, r.Players)
	return out
}

func (r *Room) scoresSnapshot() map[string]int {
	out := make(map[string]int, len(r.Scores))
	for k, v := range r.Scores {
		out[k] = v
	}
	return out
}

func (r *Room) timesSnapshot() map[string]float64 {
	out := make(map[string]float64, len(r.Times))
	for k, v := range r.Times {
		out[k] = v
	}
	return out
}

func randomRoomCode() string {
	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))]
	}
	return string(b)
}
