package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"times-table-circuit/internal/app"
	"times-table-circuit/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type startedPayload struct {
	RoundID string `json:"roundId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades a signed-in player's connection and drives one round at a time over it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	session, err := h.service.GetSession(r.Context(), token)
	if err != nil {
		http.Error(w, "not signed in", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("username", session.Username).Msg("ws write error")
				return
			}
		}
	}()

	push := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}

	// forward relays one round's snapshots until that round is stopped.
	forward := func(id string, updates <-chan domain.RoundSnapshot, stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if snap.RoundID != id {
					continue
				}
				typ := "round"
				if snap.Status == domain.StatusFinished {
					typ = "finished"
				}
				select {
				case send <- outboundMessage[any]{Type: typ, Payload: snap}:
				case <-stop:
					return
				case <-writerDone:
					return
				}
			case <-stop:
				return
			}
		}
	}

	var roundID string
	var stopUpdates func()
	var stopForward chan struct{}
	var forwardDone chan struct{}
	stopRound := func() {
		if stopForward != nil {
			// The old round's forwarder must exit before anything about the next round is sent.
			close(stopForward)
			<-forwardDone
			stopForward, forwardDone = nil, nil
		}
		if stopUpdates != nil {
			stopUpdates()
			stopUpdates = nil
		}
		if roundID != "" {
			h.service.Abandon(ctx, roundID)
			roundID = ""
		}
	}

	push("ready", session)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var cfg domain.RoundConfig
			if err := json.Unmarshal(inbound.Payload, &cfg); err != nil {
				push("error", errorPayload{Message: "invalid start payload"})
				continue
			}
			stopRound()
			round, err := h.service.StartRound(ctx, token, cfg)
			if err != nil {
				push("error", errorPayload{Message: err.Error()})
				continue
			}
			updates, cancel, err := h.service.Subscribe(ctx, round.ID())
			if err != nil {
				h.service.Abandon(ctx, round.ID())
				push("error", errorPayload{Message: err.Error()})
				continue
			}
			roundID = round.ID()
			stopUpdates = cancel
			stopForward, forwardDone = make(chan struct{}), make(chan struct{})
			push("started", startedPayload{RoundID: roundID})
			go forward(roundID, updates, stopForward, forwardDone)
		case "answer":
			if roundID == "" {
				push("error", errorPayload{Message: "no round in progress"})
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			if _, err := h.service.SubmitAnswer(ctx, roundID, payload.Option); err != nil {
				push("error", errorPayload{Message: err.Error()})
			}
		case "next":
			if roundID == "" {
				push("error", errorPayload{Message: "no round in progress"})
				continue
			}
			if _, err := h.service.Advance(ctx, roundID); err != nil {
				push("error", errorPayload{Message: err.Error()})
			}
		case "quit":
			stopRound()
		default:
			push("error", errorPayload{Message: "unsupported message type"})
		}
	}

	stopRound()
	close(send)
	<-writerDone
}
