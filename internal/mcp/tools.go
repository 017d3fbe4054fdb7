// Package mcp exposes the game host as MCP tools so an external agent can
// play the human seat against the built-in AI.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/ai"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/trance"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ToolResponse is the JSON body of every successful tool result.
type ToolResponse struct {
	GameID       string               `json:"game_id"`
	State        *game.PublicSnapshot `json:"state,omitempty"`
	Events       []rules.Event        `json:"events"`
	Played       []string             `json:"played,omitempty"`
	LegalActions []rules.Action       `json:"legal_actions"`
	GameOver     bool                 `json:"game_over"`
	Winner       rules.AgentID        `json:"winner,omitempty"`
}

// Tools holds the games the tools act on.
type Tools struct {
	manager  *game.Manager
	agent    *ai.Agent
	defaults game.AgentConfig
	logger   *zap.Logger
	newSeed  func() int64
}

// NewTools creates the tool set. defaults seeds every new_game call.
func NewTools(manager *game.Manager, agent *ai.Agent, defaults game.AgentConfig, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{
		manager:  manager,
		agent:    agent,
		defaults: defaults,
		logger:   logger,
		newSeed:  func() int64 { return time.Now().UnixNano() },
	}
}

// Register adds all game tools to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(newGameTool(), t.handleNewGame)
	s.AddTool(getStateTool(), t.handleGetState)
	s.AddTool(dispatchTool(), t.handleDispatch)
	s.AddTool(aiTurnTool(), t.handleAITurn)
}

// --- Tool definitions ---

func newGameTool() mcp.Tool {
	return mcp.NewTool("new_game",
		mcp.WithDescription("Start a new Aether duel. You play the human seat, the built-in AI plays the other. "+
			"Returns the game id, your view of the state and your legal actions."),
		mcp.WithNumber("seed", mcp.Description("RNG seed; 0 or absent picks one")),
		mcp.WithString("human_weaver", mcp.Description("Weaver archetype for your seat"), mcp.Enum("EMBER", "TIDE")),
		mcp.WithString("ai_weaver", mcp.Description("Weaver archetype for the AI seat"), mcp.Enum("EMBER", "TIDE")),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state of a game from the human seat, with the legal actions. Read-only."),
		mcp.WithString("game_id", mcp.Required(), mcp.Description("Game id returned by new_game")),
	)
}

func dispatchTool() mcp.Tool {
	return mcp.NewTool("dispatch",
		mcp.WithDescription("Dispatch one action for the human seat. Rejected actions leave the game unchanged."),
		mcp.WithString("game_id", mcp.Required(), mcp.Description("Game id returned by new_game")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Action type"),
			mcp.Enum(
				string(rules.ActionStartTurn),
				string(rules.ActionPlayToSpellSlot),
				string(rules.ActionSetGlyph),
				string(rules.ActionCastInstant),
				string(rules.ActionAdvanceSpell),
				string(rules.ActionDiscardForAether),
				string(rules.ActionBuyFromMarket),
				string(rules.ActionEndTurn),
			)),
		mcp.WithString("card_id", mcp.Description("Card instance id, for actions that take a card")),
		mcp.WithNumber("slot", mcp.Description("Spell slot (0-2) or market position (0-4)")),
		mcp.WithNumber("amount", mcp.Description("Pips to advance, defaults to 1")),
	)
}

func aiTurnTool() mcp.Tool {
	return mcp.NewTool("ai_turn",
		mcp.WithDescription("Let the built-in AI play its whole turn. Only valid while the AI seat is active."),
		mcp.WithString("game_id", mcp.Required(), mcp.Description("Game id returned by new_game")),
	)
}

// --- Tool handlers ---

func (t *Tools) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := t.defaults
	if w := request.GetString("human_weaver", ""); w != "" {
		weaver, err := trance.ParseWeaver(strings.ToUpper(w))
		if err != nil {
			return mcp.NewToolResultErrorf("Invalid human_weaver: %v", err), nil
		}
		cfg.HumanWeaver = weaver
	}
	if w := request.GetString("ai_weaver", ""); w != "" {
		weaver, err := trance.ParseWeaver(strings.ToUpper(w))
		if err != nil {
			return mcp.NewToolResultErrorf("Invalid ai_weaver: %v", err), nil
		}
		cfg.AIWeaver = weaver
	}

	seed := int64(request.GetInt("seed", 0))
	if seed == 0 {
		seed = t.newSeed()
	}

	gameID, store, err := t.manager.CreateGame(seed, cfg)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start game: %v", err), nil
	}
	t.logger.Info("mcp game started", zap.String("game_id", gameID), zap.Int64("seed", seed))
	return t.respond(gameID, store.State(), nil, nil), nil
}

func (t *Tools) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	return t.respond(store.GameID(), store.State(), nil, nil), nil
}

func (t *Tools) handleDispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}

	actionType := rules.ActionType(strings.ToUpper(request.GetString("type", "")))
	if actionType == "" {
		return mcp.NewToolResultError("type is required"), nil
	}
	action := rules.Action{
		Type:   actionType,
		Agent:  rules.AgentHuman,
		CardID: request.GetString("card_id", ""),
		Slot:   request.GetInt("slot", 0),
		Amount: request.GetInt("amount", 0),
	}

	res, err := store.Dispatch(action)
	if err != nil {
		return mcp.NewToolResultErrorf("Rejected %s (%s): %v", action, rules.Kind(err), err), nil
	}
	return t.respond(store.GameID(), res.State, res.Events, nil), nil
}

func (t *Tools) handleAITurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	state := store.State()
	if state.Phase == rules.PhaseFinished {
		return mcp.NewToolResultError("The game is over."), nil
	}
	if state.Active != rules.AgentAI {
		return mcp.NewToolResultError("It is your turn, not the AI's. End your turn first."), nil
	}

	var (
		mu     sync.Mutex
		events []rules.Event
	)
	unsubscribe := store.Subscribe(func(res game.DispatchResult) {
		mu.Lock()
		events = append(events, res.Events...)
		mu.Unlock()
	})
	played, err := t.agent.TakeTurn(ctx, store, rules.AgentAI)
	unsubscribe()
	if err != nil {
		return mcp.NewToolResultErrorf("AI turn failed: %v", err), nil
	}

	names := make([]string, len(played))
	for i, a := range played {
		names[i] = a.String()
	}
	mu.Lock()
	defer mu.Unlock()
	return t.respond(store.GameID(), store.State(), events, names), nil
}

func (t *Tools) lookup(request mcp.CallToolRequest) (*game.Store, *mcp.CallToolResult) {
	gameID := request.GetString("game_id", "")
	if gameID == "" {
		return nil, mcp.NewToolResultError("game_id is required")
	}
	store, err := t.manager.GetGame(gameID)
	if errors.Is(err, game.ErrGameNotFound) {
		return nil, mcp.NewToolResultErrorf("No game %q. Use new_game first.", gameID)
	}
	if err != nil {
		return nil, mcp.NewToolResultErrorf("Failed to load game: %v", err)
	}
	return store, nil
}

func (t *Tools) respond(gameID string, state *game.GameState, events []rules.Event, played []string) *mcp.CallToolResult {
	snap := game.SerializeFor(state, rules.AgentHuman)
	resp := &ToolResponse{
		GameID:   gameID,
		State:    &snap,
		Events:   events,
		Played:   played,
		GameOver: state.Phase == rules.PhaseFinished,
		Winner:   state.Winner,
	}
	if state.Active == rules.AgentHuman {
		resp.LegalActions = t.manager.Engine().LegalActions(state)
	}
	// Never null in JSON.
	if resp.Events == nil {
		resp.Events = []rules.Event{}
	}
	if resp.LegalActions == nil {
		resp.LegalActions = []rules.Action{}
	}
	return mcp.NewToolResultText(respondJSON(resp))
}

func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
