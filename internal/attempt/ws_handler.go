package attempt

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/auth"
	httperrors "github.com/gokatarajesh/talentquiz/pkg/http/errors"
	"github.com/gokatarajesh/talentquiz/pkg/http/ws"
)

// WSHandler streams countdown ticks and the completion event of an attempt.
type WSHandler struct {
	manager  *Manager
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWSHandler accepts upgrades from allowedOrigins. An empty list or "*"
// accepts any origin.
func NewWSHandler(manager *Manager, hub *ws.Hub, allowedOrigins []string, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger.With().Str("component", "attempt_ws").Logger(),
	}
}

// ServeHTTP handles GET /ws/attempts/{id}?token=
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	attemptID := r.PathValue("id")
	if _, err := h.manager.Get(r.Context(), attemptID, claims.UserID); err != nil {
		if errors.Is(err, ErrAttemptForbidden) {
			httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, err.Error())
			return
		}
		httperrors.RespondNotFound(w, httperrors.ErrCodeAttemptNotFound, err.Error())
		return
	}

	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ctx := r.Context()
	logger := h.logger.With().Str("attempt_id", attemptID).Str("user_id", claims.UserID).Logger()
	conn := ws.NewConnection(c, logger)
	h.hub.Register(attemptID, conn)
	go conn.WritePump()

	h.sendState(ctx, conn, attemptID, claims.UserID, "")
	conn.ReadPump(func(msg ws.Message) error {
		switch msg.Type {
		case ws.TypePing:
			pong, _ := ws.NewMessage(ws.TypePong, nil)
			pong.RequestID = msg.RequestID
			return conn.Send(pong)
		case ws.TypeRequestState:
			h.sendState(ctx, conn, attemptID, claims.UserID, msg.RequestID)
			return nil
		default:
			reply, _ := ws.NewMessage(ws.TypeError, ws.ErrorPayload{
				Code:    httperrors.ErrCodeUnknownMessageType,
				Message: "Unknown message type: " + msg.Type,
			})
			reply.RequestID = msg.RequestID
			return conn.Send(reply)
		}
	})
	h.hub.Unregister(attemptID, conn)
}

func (h *WSHandler) sendState(ctx context.Context, conn *ws.Connection, attemptID, userID, requestID string) {
	snap, err := h.manager.Get(ctx, attemptID, userID)
	var msg ws.Message
	if err != nil {
		msg, _ = ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: httperrors.ErrCodeAttemptNotFound, Message: err.Error()})
	} else {
		msg, _ = ws.NewMessage(ws.TypeAttemptState, snap)
	}
	msg.RequestID = requestID
	if err := conn.Send(msg); err != nil {
		h.logger.Debug().Err(err).Msg("state send failed")
	}
}
