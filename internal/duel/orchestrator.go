package duel

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/config"
	"github.com/codearena/codearena-backend/db"
	"github.com/codearena/codearena-backend/internal/judge"
	"github.com/codearena/codearena-backend/internal/match"
	"github.com/codearena/codearena-backend/pkg/errors"
	"github.com/codearena/codearena-backend/pkg/logger"
)

const eventBuffer = 256

var ErrStopped = stderrors.New("orchestrator stopped")

type ProblemSource interface {
	GetRandomProblem(ctx context.Context) (db.Problem, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, code, language string, problemID int64, username string) (judge.Result, error)
}

type RatingUpdater interface {
	Apply(ctx context.Context, a, b, winner string, ranked bool) (map[string]int, error)
}

// Recorder receives every concluded duel.
type Recorder interface {
	RecordDuel(ctx context.Context, d db.Duel) error
}

// Notifier delivers a message to one connection. Unknown or closed
// connections are dropped silently.
type Notifier interface {
	Send(connID string, msg Message) bool
}

type Options struct {
	Duration        time.Duration
	DisconnectGrace time.Duration
	MatchTimeout    time.Duration
	DefaultRating   int
	StoreTimeout    time.Duration
}

func OptionsFromConfig(cfg config.DuelConfig) Options {
	return Options{
		Duration:        cfg.Duration,
		DisconnectGrace: cfg.DisconnectGrace,
		MatchTimeout:    cfg.MatchTimeout,
		DefaultRating:   cfg.DefaultRating,
		StoreTimeout:    5 * time.Second,
	}
}

type session struct {
	username string
	room     string
}

type graceEntry struct {
	code  string
	seq   uint64
	timer Timer
}

// Orchestrator owns every room, the matchmaking queue and all timers.
// State is touched only from the Run loop; the rest of the process talks
// to it through Dispatch.
type Orchestrator struct {
	opts      Options
	problems  ProblemSource
	judge     Evaluator
	ratings   RatingUpdater
	recorders []Recorder
	notifier  Notifier
	clock     Clock
	newCode   func() string

	events    chan Event
	quit      chan struct{}
	judging   sync.WaitGroup
	recording sync.WaitGroup
	ctx       context.Context

	rooms    map[string]*Room
	sessions map[string]*session
	matcher  *match.RatingMatcher
	grace    map[string]*graceEntry
	graceSeq uint64
}

func New(opts Options, problems ProblemSource, evaluator Evaluator, ratings RatingUpdater, notifier Notifier, recorders ...Recorder) *Orchestrator {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &Orchestrator{
		opts:      opts,
		problems:  problems,
		judge:     evaluator,
		ratings:   ratings,
		recorders: recorders,
		notifier:  notifier,
		clock:     realClock{},
		newCode:   randomRoomCode,
		events:    make(chan Event, eventBuffer),
		quit:      make(chan struct{}),
		ctx:       context.Background(),
		rooms:     make(map[string]*Room),
		sessions:  make(map[string]*session),
		matcher:   match.NewRatingMatcher(),
		grace:     make(map[string]*graceEntry),
	}
}

// Run processes events one at a time until ctx is cancelled. It must be
// called exactly once.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.ctx = ctx
	logger.Info(ctx, "duel orchestrator started")
	for {
		select {
		case <-ctx.Done():
			close(o.quit)
			o.shutdown()
			o.judging.Wait()
			o.recording.Wait()
			logger.Info(context.Background(), "duel orchestrator stopped")
			return nil
		case ev := <-o.events:
			o.handle(ev)
		}
	}
}

// Dispatch queues ev for the loop. It reports false once the loop is gone.
func (o *Orchestrator) Dispatch(ev Event) bool {
	if o.stopped() {
		return false
	}
	select {
	case o.events <- ev:
		return true
	case <-o.quit:
		return false
	}
}

// Stats implements match.StatsSource.
func (o *Orchestrator) Stats(ctx context.Context) (match.Stats, error) {
	if o.stopped() {
		return match.Stats{}, ErrStopped
	}
	q := statsQuery{reply: make(chan match.Stats, 1)}
	select {
	case o.events <- q:
	case <-o.quit:
		return match.Stats{}, ErrStopped
	case <-ctx.Done():
		return match.Stats{}, ctx.Err()
	}
	select {
	case s := <-q.reply:
		return s, nil
	case <-o.quit:
		return match.Stats{}, ErrStopped
	case <-ctx.Done():
		return match.Stats{}, ctx.Err()
	}
}

func (o *Orchestrator) stopped() bool {
	select {
	case <-o.quit:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) handle(ev Event) {
	switch e := ev.(type) {
	case CreateRoom:
		o.createRoom(e)
	case JoinRoom:
		o.joinRoom(e)
	case FindMatch:
		o.findMatch(e)
	case CancelMatchmaking:
		o.cancelMatchmaking(e)
	case JoinDuelRoom:
		o.joinDuelRoom(e)
	case SubmissionResult:
		o.submissionResult(e)
	case SubmitCode:
		o.submitCode(e)
	case PlayerForfeit:
		o.forfeit(e)
	case Disconnect:
		o.disconnect(e)
	case durationExpired:
		o.durationExpired(e)
	case graceExpired:
		o.graceExpired(e)
	case matchExpired:
		o.matchExpired(e)
	case submissionJudged:
		o.submissionJudged(e)
	case statsQuery:
		e.reply <- o.stats()
	case barrier:
		close(e.done)
	default:
		logger.Warn(o.ctx, "unknown event", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

func (o *Orchestrator) createRoom(e CreateRoom) {
	if e.Username == "" {
		o.sendError(e.ConnID, MsgJoinError, errors.ValidationError("username", "is required"))
		return
	}
	room := newRoom(o.uniqueCode(), false)
	room.addPlayer(e.Username, e.ConnID)
	o.rooms[room.Code] = room
	o.bind(e.ConnID, e.Username, room.Code)

	logger.Info(o.roomCtx(room), "room created", zap.String("username", e.Username))
	o.send(e.ConnID, MsgRoomCreated, RoomCreatedPayload{RoomCode: room.Code})
	o.broadcast(room, MsgRoomUpdate, RoomUpdatePayload{
		Message: fmt.Sprintf("%s created the room", e.Username),
		Players: room.playerList(),
	})
}

func (o *Orchestrator) joinRoom(e JoinRoom) {
	if err := requireFields(e.Username, e.RoomCode); err != nil {
		o.sendError(e.ConnID, MsgJoinError, err)
		return
	}
	room, ok := o.rooms[normalizeCode(e.RoomCode)]
	if !ok {
		o.sendError(e.ConnID, MsgJoinError, errors.New(errors.RoomNotFound))
		return
	}
	if room.hasPlayer(e.Username) {
		room.addPlayer(e.Username, e.ConnID)
		o.bind(e.ConnID, e.Username, room.Code)
		o.send(e.ConnID, MsgRoomUpdate, RoomUpdatePayload{
			Message: fmt.Sprintf("%s rejoined", e.Username),
			Players: room.playerList(),
		})
		return
	}
	if room.Status != Lobby || len(room.Players) >= 2 {
		o.sendError(e.ConnID, MsgJoinError, errors.New(errors.RoomFull))
		return
	}

	room.addPlayer(e.Username, e.ConnID)
	o.bind(e.ConnID, e.Username, room.Code)
	o.broadcast(room, MsgRoomUpdate, RoomUpdatePayload{
		Message: fmt.Sprintf("%s joined", e.Username),
		Players: room.playerList(),
	})
	if len(room.Players) == 2 {
		o.start(room)
	}
}

func (o *Orchestrator) findMatch(e FindMatch) {
	if e.Username == "" {
		o.sendError(e.ConnID, MsgDuelError, errors.ValidationError("username", "is required"))
		return
	}
	if e.Rating < 0 {
		o.sendError(e.ConnID, MsgDuelError, errors.ValidationError("rating", "must be non-negative"))
		return
	}
	if o.matcher.Contains(e.Username) {
		o.sendError(e.ConnID, MsgDuelError, errors.New(errors.AlreadyQueued))
		return
	}
	if s, ok := o.sessions[e.ConnID]; ok && s.room != "" {
		if _, live := o.rooms[s.room]; live {
			o.sendError(e.ConnID, MsgDuelError, errors.New(errors.AlreadyInRoom))
			return
		}
	}
	rating := e.Rating
	if rating == 0 {
		rating = o.opts.DefaultRating
	}
	c := match.Candidate{Username: e.Username, ConnID: e.ConnID, Rating: rating}
	o.bind(e.ConnID, e.Username, "")

	if opp, ok := o.matcher.Match(c); ok {
		room := newRoom(o.uniqueCode(), true)
		room.addPlayer(opp.Username, opp.ConnID)
		room.addPlayer(c.Username, c.ConnID)
		o.rooms[room.Code] = room
		o.bind(opp.ConnID, opp.Username, room.Code)
		o.bind(c.ConnID, c.Username, room.Code)
		logger.Info(o.roomCtx(room), "players matched",
			zap.String("player_a", opp.Username), zap.Int("rating_a", opp.Rating),
			zap.String("player_b", c.Username), zap.Int("rating_b", c.Rating))
		o.start(room)
		return
	}

	username := e.Username
	_, err := o.matcher.Enqueue(c, func(seq uint64) match.Stopper {
		return o.clock.AfterFunc(o.opts.MatchTimeout, func() {
			o.Dispatch(matchExpired{username: username, seq: seq})
		})
	})
	if err != nil {
		o.sendError(e.ConnID, MsgDuelError, errors.Wrap(err, errors.ValidationFailed))
		return
	}
	logger.Debug(o.ctx, "player queued", zap.String("username", username), zap.Int("rating", rating))
}

func (o *Orchestrator) cancelMatchmaking(e CancelMatchmaking) {
	if s, ok := o.sessions[e.ConnID]; ok {
		if c, queued := o.matcher.Lookup(s.username); queued && c.ConnID == e.ConnID {
			o.matcher.Cancel(s.username)
		}
	}
	o.send(e.ConnID, MsgMatchCancelled, struct{}{})
}

func (o *Orchestrator) matchExpired(e matchExpired) {
	c, ok := o.matcher.Expire(e.username, e.seq)
	if !ok {
		return
	}
	o.send(c.ConnID, MsgMatchTimeout, struct{}{})
}

func (o *Orchestrator) joinDuelRoom(e JoinDuelRoom) {
	if err := requireFields(e.Username, e.RoomCode); err != nil {
		o.sendError(e.ConnID, MsgJoinError, err)
		return
	}
	room, ok := o.rooms[normalizeCode(e.RoomCode)]
	if !ok {
		o.sendError(e.ConnID, MsgJoinError, errors.New(errors.RoomNotFound))
		return
	}
	if !room.hasPlayer(e.Username) {
		o.sendError(e.ConnID, MsgJoinError, errors.New(errors.NotAuthorized))
		return
	}

	room.conns[e.Username] = e.ConnID
	o.bind(e.ConnID, e.Username, room.Code)

	if g, pending := o.grace[e.Username]; pending && g.code == room.Code {
		g.timer.Stop()
		delete(o.grace, e.Username)
		logger.Info(o.roomCtx(room), "player reconnected", zap.String("username", e.Username))
		opp := room.opponentOf(e.Username)
		o.send(room.conns[opp], MsgOpponentReconnected, OpponentReconnectedPayload{Player: e.Username})
	}

	var problem *db.Problem
	if room.Problem != nil {
		p := room.Problem.Public()
		problem = &p
	}
	o.send(e.ConnID, MsgDuelData, DuelDataPayload{
		Problem:  problem,
		Opponent: room.opponentOf(e.Username),
		Scores:   room.scoresSnapshot(),
		Times:    room.timesSnapshot(),
	})
}

func (o *Orchestrator) submissionResult(e SubmissionResult) {
	room, ok := o.rooms[normalizeCode(e.RoomCode)]
	if !ok || room.Status != Active {
		logger.Debug(o.ctx, "submission for inactive room ignored",
			zap.String("room_code", e.RoomCode), zap.String("username", e.Username))
		return
	}
	if !room.hasPlayer(e.Username) {
		o.sendError(e.ConnID, MsgDuelError, errors.New(errors.NotAuthorized))
		return
	}
	if e.Total < 0 || e.Passed < 0 || e.Passed > e.Total || e.Time < 0 {
		o.sendError(e.ConnID, MsgDuelError, errors.ValidationError("passed", "must be between 0 and total"))
		return
	}

	room.Scores[e.Username] = e.Passed
	room.Times[e.Username] = e.Time
	if e.Total > 0 && e.Passed == e.Total {
		o.conclude(room, e.Username, ReasonPerfectScore)
		return
	}
	o.broadcast(room, MsgScoreUpdate, ScoreUpdatePayload{
		Scores: room.scoresSnapshot(),
		Times:  room.timesSnapshot(),
	})
}

func (o *Orchestrator) submitCode(e SubmitCode) {
	if err := requireFields(e.Username, e.RoomCode); err != nil {
		o.sendError(e.ConnID, MsgDuelError, err)
		return
	}
	if strings.TrimSpace(e.Code) == "" || e.Language == "" {
		o.sendError(e.ConnID, MsgDuelError, errors.ValidationError("code", "code and language are required"))
		return
	}
	room, ok := o.rooms[normalizeCode(e.RoomCode)]
	if !ok || room.Status != Active {
		o.sendError(e.ConnID, MsgDuelError, errors.New(errors.RoomNotActive))
		return
	}
	if !room.hasPlayer(e.Username) {
		o.sendError(e.ConnID, MsgDuelError, errors.New(errors.NotAuthorized))
		return
	}

	e.RoomCode = room.Code
	problemID := room.Problem.ID
	ctx := logger.WithUser(o.roomCtx(room), e.Username)
	o.judging.Add(1)
	go func() {
		defer o.judging.Done()
		res, err := o.judge.Evaluate(ctx, e.Code, e.Language, problemID, e.Username)
		o.Dispatch(submissionJudged{req: e, result: res, err: err})
	}()
}

func (o *Orchestrator) submissionJudged(e submissionJudged) {
	connID := e.req.ConnID
	if room, ok := o.rooms[e.req.RoomCode]; ok && room.conns[e.req.Username] != "" {
		connID = room.conns[e.req.Username]
	}
	if e.err != nil {
		logger.Warn(o.ctx, "submission could not be judged",
			zap.String("room_code", e.req.RoomCode), zap.String("username", e.req.Username), zap.Error(e.err))
		o.sendError(connID, MsgDuelError, e.err)
		return
	}
	o.send(connID, MsgSubmissionVerdict, SubmissionVerdictPayload{
		Verdict: e.result.Verdict,
		Passed:  e.result.Passed,
		Total:   e.result.Total,
		Score:   e.result.Score,
		Time:    e.result.Time,
	})
	o.submissionResult(SubmissionResult{
		ConnID:   connID,
		RoomCode: e.req.RoomCode,
		Username: e.req.Username,
		Passed:   e.result.Passed,
		Total:    e.result.Total,
		Time:     e.result.Time,
	})
}

func (o *Orchestrator) forfeit(e PlayerForfeit) {
	if err := requireFields(e.Username, e.RoomCode); err != nil {
		o.sendError(e.ConnID, MsgDuelError, err)
		return
	}
	room, ok := o.rooms[normalizeCode(e.RoomCode)]
	if !ok {
		o.sendError(e.ConnID, MsgDuelError, errors.New(errors.RoomNotFound))
		return
	}
	if !room.hasPlayer(e.Username) {
		o.sendError(e.ConnID, MsgDuelError, errors.New(errors.NotAuthorized))
		return
	}

	switch room.Status {
	case Lobby:
		logger.Info(o.roomCtx(room), "lobby closed by player", zap.String("username", e.Username))
		o.broadcast(room, MsgRoomUpdate, RoomUpdatePayload{
			Message: fmt.Sprintf("%s closed the room", e.Username),
			Players: []string{},
		})
		o.closeRoom(room)
	case Active:
		o.conclude(room, room.opponentOf(e.Username), ReasonForfeit)
	}
}

func (o *Orchestrator) disconnect(e Disconnect) {
	s, ok := o.sessions[e.ConnID]
	if !ok {
		return
	}
	delete(o.sessions, e.ConnID)

	if c, queued := o.matcher.Lookup(s.username); queued && c.ConnID == e.ConnID {
		o.matcher.Cancel(s.username)
	}

	room, ok := o.rooms[s.room]
	if !ok || room.conns[s.username] != e.ConnID {
		return
	}
	ctx := logger.WithUser(o.roomCtx(room), s.username)

	switch room.Status {
	case Lobby:
		room.removePlayer(s.username)
		if len(room.Players) == 0 {
			o.closeRoom(room)
			return
		}
		o.broadcast(room, MsgRoomUpdate, RoomUpdatePayload{
			Message: fmt.Sprintf("%s left", s.username),
			Players: room.playerList(),
		})
	case Active:
		room.conns[s.username] = ""
		opp := room.opponentOf(s.username)
		o.send(room.conns[opp], MsgOpponentDisconnected, OpponentDisconnectedPayload{DisconnectedPlayer: s.username})
		if o.opts.DisconnectGrace <= 0 {
			o.conclude(room, opp, ReasonDisconnect)
			return
		}
		logger.Info(ctx, "player disconnected, waiting for reconnect", zap.Duration("grace", o.opts.DisconnectGrace))
		o.armGrace(room, s.username)
	}
}

func (o *Orchestrator) graceExpired(e graceExpired) {
	g, ok := o.grace[e.username]
	if !ok || g.seq != e.seq {
		return
	}
	delete(o.grace, e.username)
	room, ok := o.rooms[e.code]
	if !ok || room.Status != Active {
		return
	}
	o.conclude(room, room.opponentOf(e.username), ReasonDisconnect)
}

func (o *Orchestrator) durationExpired(e durationExpired) {
	room, ok := o.rooms[e.code]
	if !ok || room.Status != Active || room.gen != e.gen {
		return
	}
	room.timer = nil
	o.conclude(room, timeoutWinner(room), ReasonTimeout)
}

// start moves a full lobby to Active: one problem draw, zeroed scores and
// a single duration timer.
func (o *Orchestrator) start(room *Room) {
	ctx := o.roomCtx(room)
	drawCtx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	problem, err := o.problems.GetRandomProblem(drawCtx)
	cancel()
	if err != nil {
		logger.Error(ctx, "problem draw failed", zap.Error(err))
		o.broadcast(room, MsgDuelError, errorPayload(errors.New(errors.ProblemDrawFailed)))
		o.closeRoom(room)
		return
	}

	room.Problem = &problem
	for _, p := range room.Players {
		room.Scores[p] = 0
		room.Times[p] = 0
	}
	room.Status = Active
	o.armDuration(room)

	logger.Info(ctx, "duel started",
		zap.Strings("players", room.Players),
		zap.Int64("problem_id", problem.ID),
		zap.Bool("ranked", room.IsRanked))

	public := problem.Public()
	for _, p := range room.Players {
		o.send(room.conns[p], MsgMatchFound, MatchFoundPayload{
			RoomCode: room.Code,
			Opponent: room.opponentOf(p),
			Problem:  &public,
		})
	}
}

// conclude is the only way out of Active. The first caller wins; later
// calls for the same room do nothing.
func (o *Orchestrator) conclude(room *Room, winner, reason string) {
	if room.Status != Active {
		return
	}
	room.Status = Concluded
	ctx := o.roomCtx(room)
	a, b := room.Players[0], room.Players[1]

	rateCtx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	changes, err := o.ratings.Apply(rateCtx, a, b, winner, room.IsRanked)
	cancel()
	if err != nil {
		logger.Error(ctx, "rating update failed", zap.Error(err))
		changes = map[string]int{a: 0, b: 0}
	}

	result := db.Duel{
		RoomCode:  room.Code,
		Players:   room.playerList(),
		ProblemID: room.Problem.ID,
		Winner:    winner,
		Scores:    room.scoresSnapshot(),
		Times:     room.timesSnapshot(),
		EndReason: reason,
		IsRanked:  room.IsRanked,
		EndedAt:   o.clock.Now().UTC(),
	}

	o.broadcast(room, MsgDuelEnded, DuelEndedPayload{
		Winner:        winner,
		Reason:        reason,
		FinalScores:   result.Scores,
		FinalTimes:    result.Times,
		RatingChanges: changes,
		IsRanked:      room.IsRanked,
	})
	logger.Info(ctx, "duel concluded", zap.String("winner", winner), zap.String("reason", reason))

	o.closeRoom(room)
	o.record(ctx, result)
}

func (o *Orchestrator) record(ctx context.Context, d db.Duel) {
	if len(o.recorders) == 0 {
		return
	}
	o.recording.Add(1)
	go func() {
		defer o.recording.Done()
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.StoreTimeout)
		defer cancel()
		for _, r := range o.recorders {
			if err := r.RecordDuel(writeCtx, d); err != nil {
				logger.Error(ctx, "duel result not recorded", zap.Error(errors.PersistenceError(err, "duel result")))
			}
		}
	}()
}

// closeRoom drops the room and every timer that references it.
func (o *Orchestrator) closeRoom(room *Room) {
	if room.timer != nil {
		room.timer.Stop()
		room.timer = nil
	}
	for username, g := range o.grace {
		if g.code == room.Code {
			g.timer.Stop()
			delete(o.grace, username)
		}
	}
	for _, connID := range room.conns {
		if s, ok := o.sessions[connID]; ok && s.room == room.Code {
			s.room = ""
		}
	}
	delete(o.rooms, room.Code)
}

func (o *Orchestrator) armDuration(room *Room) {
	if room.timer != nil {
		room.timer.Stop()
	}
	room.gen++
	code, gen := room.Code, room.gen
	room.timer = o.clock.AfterFunc(o.opts.Duration, func() {
		o.Dispatch(durationExpired{code: code, gen: gen})
	})
}

func (o *Orchestrator) armGrace(room *Room, username string) {
	if g, ok := o.grace[username]; ok {
		g.timer.Stop()
	}
	o.graceSeq++
	code, seq := room.Code, o.graceSeq
	o.grace[username] = &graceEntry{
		code: code,
		seq:  seq,
		timer: o.clock.AfterFunc(o.opts.DisconnectGrace, func() {
			o.Dispatch(graceExpired{username: username, code: code, seq: seq})
		}),
	}
}

func (o *Orchestrator) shutdown() {
	for _, room := range o.rooms {
		if room.timer != nil {
			room.timer.Stop()
		}
	}
	for _, g := range o.grace {
		g.timer.Stop()
	}
}

func (o *Orchestrator) stats() match.Stats {
	s := match.Stats{Queued: o.matcher.Len()}
	for _, room := range o.rooms {
		switch room.Status {
		case Lobby:
			s.LobbyRooms++
		case Active:
			s.ActiveRooms++
		}
	}
	return s
}

func (o *Orchestrator) bind(connID, username, code string) {
	s, ok := o.sessions[connID]
	if !ok {
		s = &session{}
		o.sessions[connID] = s
	}
	s.username = username
	if code != "" {
		s.room = code
	}
}

func (o *Orchestrator) uniqueCode() string {
	for {
		code := o.newCode()
		if _, taken := o.rooms[code]; !taken {
			return code
		}
	}
}

func (o *Orchestrator) roomCtx(room *Room) context.Context {
	return logger.WithRoom(o.ctx, room.Code)
}

func (o *Orchestrator) send(connID, msgType string, data interface{}) {
	if connID == "" {
		return
	}
	o.notifier.Send(connID, Message{Type: msgType, Data: data})
}

func (o *Orchestrator) broadcast(room *Room, msgType string, data interface{}) {
	for _, p := range room.Players {
		o.send(room.conns[p], msgType, data)
	}
}

// sendError replies to the originating connection only.
func (o *Orchestrator) sendError(connID, msgType string, err error) {
	o.send(connID, msgType, errorPayload(err))
}

func errorPayload(err error) ErrorPayload {
	e := errors.GetError(err)
	return ErrorPayload{Code: int(e.Code), Message: e.Message}
}

// timeoutWinner picks the higher score. Equal positive scores go to the
// lower nonzero time; anything else is a draw.
func timeoutWinner(room *Room) string {
	a, b := room.Players[0], room.Players[1]
	sa, sb := room.Scores[a], room.Scores[b]
	switch {
	case sa > sb:
		return a
	case sb > sa:
		return b
	case sa == 0:
		return ""
	}
	ta, tb := room.Times[a], room.Times[b]
	switch {
	case ta > 0 && (tb == 0 || ta < tb):
		return a
	case tb > 0 && (ta == 0 || tb < ta):
		return b
	}
	return ""
}

func requireFields(username, roomCode string) error {
	if username == "" {
		return errors.ValidationError("username", "is required")
	}
	if strings.TrimSpace(roomCode) == "" {
		return errors.ValidationError("roomCode", "is required")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
