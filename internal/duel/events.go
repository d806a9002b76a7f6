package duel

import (
	"github.com/codearena/codearena-backend/db"
	"github.com/codearena/codearena-backend/internal/judge"
	"github.com/codearena/codearena-backend/internal/match"
	"github.com/codearena/codearena-backend/internal/sandbox"
)

// Event is anything the orchestrator loop consumes.
type Event interface {
	isEvent()
}

type CreateRoom struct {
	ConnID   string
	Username string `json:"username"`
}

type JoinRoom struct {
	ConnID   string
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

type FindMatch struct {
	ConnID   string
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

type CancelMatchmaking struct {
	ConnID string
}

type JoinDuelRoom struct {
	ConnID   string
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

type SubmissionResult struct {
	ConnID   string
	RoomCode string  `json:"roomCode"`
	Username string  `json:"username"`
	Passed   int     `json:"passed"`
	Total    int     `json:"total"`
	Time     float64 `json:"time"`
}

type SubmitCode struct {
	ConnID   string
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

type PlayerForfeit struct {
	ConnID   string
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

type Disconnect struct {
	ConnID string
}

// internal events

type durationExpired struct {
	code string
	gen  uint64
}

type graceExpired struct {
	username string
	code     string
	seq      uint64
}

type matchExpired struct {
	username string
	seq      uint64
}

type submissionJudged struct {
	req    SubmitCode
	result judge.Result
	err    error
}

type statsQuery struct {
	reply chan match.Stats
}

type barrier struct {
	done chan struct{}
}

func (CreateRoom) isEvent()        {}
func (JoinRoom) isEvent()          {}
func (FindMatch) isEvent()         {}
func (CancelMatchmaking) isEvent() {}
func (JoinDuelRoom) isEvent()      {}
func (SubmissionResult) isEvent()  {}
func (SubmitCode) isEvent()        {}
func (PlayerForfeit) isEvent()     {}
func (Disconnect) isEvent()        {}
func (durationExpired) isEvent()   {}
func (graceExpired) isEvent()      {}
func (matchExpired) isEvent()      {}
func (submissionJudged) isEvent()  {}
func (statsQuery) isEvent()        {}
func (barrier) isEvent()           {}

// Outbound message types.
const (
	MsgRoomCreated          = "room-created"
	MsgRoomUpdate           = "room-update"
	MsgMatchFound           = "match-found"
	MsgMatchTimeout         = "match-timeout"
	MsgMatchCancelled       = "match-cancelled"
	MsgDuelData             = "duel-data"
	MsgScoreUpdate          = "score-update"
	MsgDuelEnded            = "duel-ended"
	MsgOpponentDisconnected = "opponent-disconnected"
	MsgOpponentReconnected  = "opponent-reconnected"
	MsgDuelError            = "duel-error"
	MsgJoinError            = "join-error"
	MsgSubmissionVerdict    = "submission-verdict"
)

// Message is one outbound frame: {"type": ..., "data": ...}.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

type RoomUpdatePayload struct {
	Message string   `json:"message"`
	Players []string `json:"players"`
}

type MatchFoundPayload struct {
	RoomCode string      `json:"roomCode"`
	Opponent string      `json:"opponent"`
	Problem  *db.Problem `json:"problem"`
}

type DuelDataPayload struct {
	Problem  *db.Problem        `json:"problem"`
	Opponent string             `json:"opponent"`
	Scores   map[string]int     `json:"scores"`
	Times    map[string]float64 `json:"times"`
}

type ScoreUpdatePayload struct {
	Scores map[string]int     `json:"scores"`
	Times  map[string]float64 `json:"times"`
}

type DuelEndedPayload struct {
	Winner        string             `json:"winner"`
	Reason        string             `json:"reason"`
	FinalScores   map[string]int     `json:"finalScores"`
	FinalTimes    map[string]float64 `json:"finalTimes"`
	RatingChanges map[string]int     `json:"ratingChanges"`
	IsRanked      bool               `json:"isRanked"`
}

type OpponentDisconnectedPayload struct {
	DisconnectedPlayer string `json:"disconnectedPlayer"`
}

type OpponentReconnectedPayload struct {
	Player string `json:"player"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type SubmissionVerdictPayload struct {
	Verdict sandbox.Verdict `json:"verdict"`
	Passed  int             `json:"passed"`
	Total   int             `json:"total"`
	Score   int             `json:"score"`
	Time    float64         `json:"time"`
}

// ErrorMessage builds an error frame of msgType for err.
func ErrorMessage(msgType string, err error) Message {
	return Message{Type: msgType, Data: errorPayload(err)}
}
