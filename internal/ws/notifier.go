package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/internal/duel"
	"github.com/codearena/codearena-backend/pkg/logger"
	wsPkg "github.com/codearena/codearena-backend/pkg/websocket"
)

// Notifier delivers orchestrator messages through the hub.
type Notifier struct {
	hub *wsPkg.Hub
}

func NewNotifier(hub *wsPkg.Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Send(connID string, msg duel.Message) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error(context.Background(), "marshal outbound message", zap.String("type", msg.Type), zap.Error(err))
		return false
	}
	return n.hub.SendToClient(connID, payload)
}
