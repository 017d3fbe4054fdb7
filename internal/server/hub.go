package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/ai"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// GameDefaults configures games created over the websocket.
type GameDefaults struct {
	Seed   int64
	Config game.AgentConfig
}

// gameUpdate carries one accepted dispatch to the hub loop.
type gameUpdate struct {
	gameID string
	result game.DispatchResult
}

// Hub tracks websocket clients and fans game updates out to the clients
// attached to each game. Client bookkeeping happens on the run goroutine.
type Hub struct {
	manager   *game.Manager
	agent     *ai.Agent
	defaults  GameDefaults
	aiTimeout time.Duration
	logger    *zap.Logger
	newSeed   func() int64

	clients    map[*Client]bool
	updates    chan gameUpdate
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu            sync.Mutex
	subscriptions map[string]func()
}

// NewHub creates a hub serving games from manager.
func NewHub(manager *game.Manager, agent *ai.Agent, defaults GameDefaults, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		manager:       manager,
		agent:         agent,
		defaults:      defaults,
		aiTimeout:     10 * time.Second,
		logger:        logger,
		newSeed:       func() int64 { return time.Now().UnixNano() },
		clients:       make(map[*Client]bool),
		updates:       make(chan gameUpdate, 64),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		subscriptions: make(map[string]func()),
	}
	manager.OnEvict(h.forget)
	return h
}

// Run processes registrations and game updates until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.unsubscribeAll()

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.String("client_id", client.id))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.logger.Debug("client unregistered", zap.String("client_id", client.id))
			}

		case update := <-h.updates:
			h.fanOut(update)
		}
	}
}

func (h *Hub) fanOut(update gameUpdate) {
	res := update.result
	finished := res.State.Phase == rules.PhaseFinished

	var events, over []byte
	if len(res.Events) > 0 {
		events = h.encode(ServerMessage{Type: MsgEvents, GameID: update.gameID, Events: res.Events})
	}
	if finished {
		over = h.encode(ServerMessage{Type: MsgGameOver, GameID: update.gameID, Winner: res.State.Winner})
	}

	for client := range h.clients {
		gameID, seat := client.game()
		if gameID != update.gameID {
			continue
		}
		if events != nil {
			h.deliver(client, events)
		}
		h.deliver(client, h.encode(stateMessage(update.gameID, res.State, seat)))
		if over != nil {
			h.deliver(client, over)
		}
	}
}

// deliver drops the message when the client cannot keep up.
func (h *Hub) deliver(client *Client, msg []byte) {
	if msg == nil {
		return
	}
	if !client.enqueue(msg) {
		h.logger.Warn("client send buffer full, dropping message", zap.String("client_id", client.id))
	}
}

// watch subscribes the hub to a game once.
func (h *Hub) watch(gameID string, store *game.Store) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscriptions[gameID]; ok {
		return
	}
	h.subscriptions[gameID] = store.Subscribe(func(res game.DispatchResult) {
		select {
		case h.updates <- gameUpdate{gameID: gameID, result: res}:
		case <-h.done:
		}
	})
}

// forget drops the subscription of a game the manager no longer holds.
func (h *Hub) forget(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if unsubscribe, ok := h.subscriptions[gameID]; ok {
		unsubscribe()
		delete(h.subscriptions, gameID)
	}
}

func (h *Hub) unsubscribeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, unsubscribe := range h.subscriptions {
		unsubscribe()
		delete(h.subscriptions, id)
	}
}

func (h *Hub) handleMessage(client *Client, msg ClientMessage) {
	h.logger.Debug("received message",
		zap.String("client_id", client.id),
		zap.String("type", string(msg.Type)),
	)

	var err error
	switch msg.Type {
	case MsgNewGame:
		err = h.newGame(client, msg)
	case MsgJoinGame:
		err = h.joinGame(client, msg)
	case MsgDispatch:
		err = h.dispatch(client, msg)
	case MsgAITurn:
		err = h.aiTurn(client)
	default:
		err = errProtocol(fmt.Sprintf("unknown message type %q", msg.Type))
	}
	if err != nil {
		gameID, _ := client.game()
		h.reply(client, errorMessage(gameID, err))
	}
}

func (h *Hub) newGame(client *Client, msg ClientMessage) error {
	seed := h.defaults.Seed
	if msg.Seed != nil {
		seed = *msg.Seed
	}
	if seed == 0 {
		seed = h.newSeed()
	}

	gameID, store, err := h.manager.CreateGame(seed, h.defaults.Config)
	if err != nil {
		return err
	}
	client.join(gameID, rules.AgentHuman)
	h.watch(gameID, store)
	h.reply(client, stateMessage(gameID, store.State(), rules.AgentHuman))
	return nil
}

func (h *Hub) joinGame(client *Client, msg ClientMessage) error {
	if msg.GameID == "" {
		return errProtocol("join_game requires game_id")
	}
	if msg.Seat != "" && msg.Seat.Seat() < 0 {
		return errProtocol(fmt.Sprintf("unknown seat %q", msg.Seat))
	}
	store, err := h.manager.GetGame(msg.GameID)
	if err != nil {
		return err
	}
	client.join(msg.GameID, msg.Seat)
	h.watch(msg.GameID, store)
	h.reply(client, stateMessage(msg.GameID, store.State(), msg.Seat))
	return nil
}

func (h *Hub) dispatch(client *Client, msg ClientMessage) error {
	gameID, seat := client.game()
	if gameID == "" {
		return errProtocol("not attached to a game")
	}
	if seat == "" {
		return errProtocol("spectators cannot dispatch")
	}
	if msg.Action == nil {
		return errProtocol("dispatch requires action")
	}
	action := *msg.Action
	if action.Agent == "" {
		action.Agent = seat
	}
	if action.Agent != seat {
		return errProtocol(fmt.Sprintf("seat %s cannot act for %s", seat, action.Agent))
	}
	_, err := h.manager.Dispatch(gameID, action)
	return err
}

func (h *Hub) aiTurn(client *Client) error {
	gameID, seat := client.game()
	if gameID == "" {
		return errProtocol("not attached to a game")
	}
	if seat == "" {
		return errProtocol("spectators cannot drive the ai")
	}
	store, err := h.manager.GetGame(gameID)
	if err != nil {
		return err
	}
	if state := store.State(); state.Active != rules.AgentAI || state.Phase == rules.PhaseFinished {
		return errProtocol("ai is not the active agent")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.aiTimeout)
	defer cancel()
	played, err := h.agent.TakeTurn(ctx, store, rules.AgentAI)
	if err != nil {
		return fmt.Errorf("ai turn: %w", err)
	}
	h.logger.Debug("ai turn played",
		zap.String("game_id", gameID),
		zap.Int("actions", len(played)),
	)
	return nil
}

func (h *Hub) reply(client *Client, msg ServerMessage) {
	h.deliver(client, h.encode(msg))
}

func (h *Hub) encode(msg ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode message",
			zap.String("type", string(msg.Type)),
			zap.Error(err),
		)
		return nil
	}
	return data
}
