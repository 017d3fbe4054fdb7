package server

import (
	"errors"

	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
)

// MessageType names a websocket message.
type MessageType string

// Client to server.
const (
	MsgNewGame  MessageType = "new_game"
	MsgJoinGame MessageType = "join_game"
	MsgDispatch MessageType = "dispatch"
	MsgAITurn   MessageType = "ai_turn"
)

// Server to client.
const (
	MsgState    MessageType = "state"
	MsgEvents   MessageType = "events"
	MsgError    MessageType = "error"
	MsgGameOver MessageType = "game_over"
)

// Error kinds sent alongside rules.Kind values.
const (
	KindProtocol = "protocol"
	KindNotFound = "not_found"
)

// ClientMessage is a request from a websocket client.
type ClientMessage struct {
	Type   MessageType   `json:"type"`
	GameID string        `json:"game_id,omitempty"`
	Seed   *int64        `json:"seed,omitempty"`
	Seat   rules.AgentID `json:"seat,omitempty"`
	Action *rules.Action `json:"action,omitempty"`
}

// ServerMessage is pushed to websocket clients.
type ServerMessage struct {
	Type   MessageType          `json:"type"`
	GameID string               `json:"game_id,omitempty"`
	State  *game.PublicSnapshot `json:"state,omitempty"`
	Events []rules.Event        `json:"events,omitempty"`
	Winner rules.AgentID        `json:"winner,omitempty"`
	Error  string               `json:"error,omitempty"`
	Kind   string               `json:"kind,omitempty"`
}

func stateMessage(gameID string, state *game.GameState, seat rules.AgentID) ServerMessage {
	snap := game.SerializeFor(state, seat)
	return ServerMessage{Type: MsgState, GameID: gameID, State: &snap}
}

func errorMessage(gameID string, err error) ServerMessage {
	kind := rules.Kind(err)
	if errors.Is(err, game.ErrGameNotFound) {
		kind = KindNotFound
	}
	var pe *protocolError
	if errors.As(err, &pe) {
		kind = KindProtocol
	}
	return ServerMessage{Type: MsgError, GameID: gameID, Error: err.Error(), Kind: kind}
}

type protocolError struct {
	msg string
}

func (e *protocolError) Error() string {
	return e.msg
}

func errProtocol(msg string) error {
	return &protocolError{msg: msg}
}
