package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/game"
)

// buildUpgrader accepts every origin when allowedOrigins is empty.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

type WSHandler struct {
	service  *app.GameService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		service:  service,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type intentPayload struct {
	Option     string `json:"option"`
	PlayerName string `json:"playerName"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionPayload struct {
	SessionID string        `json:"sessionId"`
	Settings  game.Settings `json:"settings"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades to a websocket, opens a fresh game session and pumps
// intents in and events out until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	sessionID, err := h.service.Open(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(sessionID)
	log := h.log.With().Str("session_id", sessionID).Logger()

	events, cancel, err := h.service.Subscribe(sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 64)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(ev.Type), Payload: ev}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{
		SessionID: sessionID,
		Settings:  h.service.Settings(),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var payload intentPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid payload"}}
				continue
			}
		}
		intent := game.Intent{
			Type:       game.IntentType(inbound.Type),
			Option:     payload.Option,
			PlayerName: payload.PlayerName,
		}
		if err := h.service.Dispatch(r.Context(), sessionID, intent); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
