package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/internal/auth"
	"github.com/codearena/codearena-backend/internal/duel"
	"github.com/codearena/codearena-backend/pkg/errors"
	"github.com/codearena/codearena-backend/pkg/logger"
	wsPkg "github.com/codearena/codearena-backend/pkg/websocket"
)

// EventSink is the orchestrator as seen by the transport.
type EventSink interface {
	Dispatch(ev duel.Event) bool
}

type Handler struct {
	hub   *wsPkg.Hub
	sink  EventSink
	newID func() string
}

func NewHandler(hub *wsPkg.Hub, sink EventSink) *Handler {
	return &Handler{
		hub:   hub,
		sink:  sink,
		newID: uuid.NewString,
	}
}

// ServeWS upgrades the request and feeds decoded frames to the
// orchestrator. Mount it behind auth.Middleware.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := wsPkg.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	client := wsPkg.NewClient(h.newID(), conn)
	client.Username = auth.Username(c)
	h.hub.Register(client)

	// the request context ends when this handler returns
	ctx := logger.WithRequestID(context.Background(), client.ID)
	if client.Username != "" {
		ctx = logger.WithUser(ctx, client.Username)
	}
	logger.Info(ctx, "websocket connected")

	go client.WritePump()
	go func() {
		client.ReadPump(func(msg []byte) {
			h.handleMessage(ctx, client, msg)
		})
		h.hub.Unregister(client)
		h.sink.Dispatch(duel.Disconnect{ConnID: client.ID})
		logger.Info(ctx, "websocket closed")
	}()
}

func (h *Handler) handleMessage(ctx context.Context, client *wsPkg.Client, msg []byte) {
	ev, err := decodeEvent(client.ID, client.Username, msg)
	if err != nil {
		logger.Debug(ctx, "rejected frame", zap.Error(err))
		h.reply(ctx, client, duel.ErrorMessage(duel.MsgDuelError, err))
		return
	}
	if !h.sink.Dispatch(ev) {
		h.reply(ctx, client, duel.ErrorMessage(duel.MsgDuelError, errors.New(errors.ServiceUnavailable)))
	}
}

func (h *Handler) reply(ctx context.Context, client *wsPkg.Client, msg duel.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error(ctx, "marshal reply", zap.Error(err))
		return
	}
	h.hub.SendToClient(client.ID, payload)
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodeEvent turns one {type, data} frame into an orchestrator event.
// When the connection is authenticated the token's username wins and a
// different claimed username is rejected.
func decodeEvent(connID, authUser string, raw []byte) (duel.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.ValidationError("message", "malformed JSON")
	}

	switch env.Type {
	case "create-room":
		e, err := decode[duel.CreateRoom](env.Data)
		if err != nil {
			return nil, err
		}
		e.ConnID = connID
		e.Username, err = claimUsername(authUser, e.Username)
		return e, err
	case "join-room":
		e, err := decode[duel.JoinRoom](env.Data)
		if err != nil {
			return nil, err
		}
		e.ConnID = connID
		e.Username, err = claimUsername(authUser, e.Username)
		return e, err
	case "find-match":
		e, err := decode[duel.FindMatch](env.Data)
		if err != nil {
			return nil, err
		}
		e.ConnID = connID
		e.Username, err = claimUsername(authUser, e.Username)
		return e, err
	case "cancel-matchmaking":
		return duel.CancelMatchmaking{ConnID: connID}, nil
	case "join-duel-room":
		e, err := decode[duel.JoinDuelRoom](env.Data)
		if err != nil {
			return nil, err
		}
		e.ConnID = connID
		e.Username, err = claimUsername(authUser, e.Username)
		return e, err
	case "submission-result":
		e, err := decode[duel.SubmissionResult](env.Data)
		if err != nil {
			return nil, err
		}
		e.ConnID = connID
		e.Username, err = claimUsername(authUser, e.Username)
		return e, err
	case "submit-code":
		e, err := decode[duel.SubmitCode](env.Data)
		if err != nil {
			return nil, err
		}
		e.ConnID = connID
		e.Username, err = claimUsername(authUser, e.Username)
		return e, err
	case "player-forfeit":
		e, err := decode[duel.PlayerForfeit](env.Data)
		if err != nil {
			return nil, err
		}
		e.ConnID = connID
		e.Username, err = claimUsername(authUser, e.Username)
		return e, err
	case "":
		return nil, errors.ValidationError("type", "is required")
	default:
		return nil, errors.ValidationError("type", fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.ValidationError("data", "malformed payload")
	}
	return v, nil
}

func claimUsername(authUser, claimed string) (string, error) {
	if authUser == "" {
		return claimed, nil
	}
	if claimed != "" && claimed != authUser {
		return "", errors.Newf(errors.NotAuthorized, "token belongs to %s", authUser)
	}
	return authUser, nil
}
