package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aetherweave/aether-server-go/internal/cache"
	"github.com/aetherweave/aether-server-go/internal/config"
	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultRecordLimit = 20
	maxRecordLimit     = 100
	readTimeout        = 5 * time.Second
)

// SnapshotReader serves the last snapshot of games the manager no longer
// holds.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context, gameID string) (game.PublicSnapshot, error)
}

// RecordReader serves finished-game records.
type RecordReader interface {
	GetGame(ctx context.Context, gameID string) (game.GameRecord, error)
	ListRecent(ctx context.Context, limit int) ([]game.GameRecord, error)
	WinCounts(ctx context.Context) (map[rules.AgentID]int, error)
}

// HTTPOption configures the read-only API.
type HTTPOption func(*api)

// WithSnapshotReader lets /games/{id} answer for evicted games.
func WithSnapshotReader(r SnapshotReader) HTTPOption {
	return func(a *api) { a.snapshots = r }
}

// WithRecordReader enables /records.
func WithRecordReader(r RecordReader) HTTPOption {
	return func(a *api) { a.records = r }
}

type api struct {
	hub       *Hub
	snapshots SnapshotReader
	records   RecordReader
	logger    *zap.Logger
}

// NewHTTPServer serves the websocket endpoint and a small read-only API:
//
//	/ws            websocket protocol
//	/healthz       liveness
//	/games         ids of running games
//	/games/{id}    public snapshot of one game
//	/records       recent finished games and wins per seat (with a RecordReader)
//	/records/{id}  one finished game
func NewHTTPServer(cfg config.WebSocketConfig, hub *Hub, logger *zap.Logger, opts ...HTTPOption) *http.Server {
	a := &api{hub: hub, logger: logger}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(a)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS(Upgrader(cfg.AllowedOrigins)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/games", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"games": hub.manager.ListGames()})
	})
	mux.HandleFunc("/games/", a.getGame)
	if a.records != nil {
		mux.HandleFunc("/records", a.listRecords)
		mux.HandleFunc("/records/", a.getRecord)
	}

	a.logger.Info("http server configured",
		zap.String("address", cfg.Address),
		zap.Bool("snapshot_fallback", a.snapshots != nil),
		zap.Bool("records", a.records != nil),
	)
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *api) getGame(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/games/")
	store, err := a.hub.manager.GetGame(id)
	if err == nil {
		writeJSON(w, http.StatusOK, game.SerializePublic(store.State()))
		return
	}
	if !errors.Is(err, game.ErrGameNotFound) || a.snapshots == nil {
		a.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()
	snap, err := a.snapshots.GetSnapshot(ctx, id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) listRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid limit %q", raw)})
			return
		}
		limit = min(n, maxRecordLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()
	records, err := a.records.ListRecent(ctx, limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	wins, err := a.records.WinCounts(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if records == nil {
		records = []game.GameRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "wins": wins})
}

func (a *api) getRecord(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/records/")

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()
	rec, err := a.records.GetGame(ctx, id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, cache.ErrMiss),
		errors.Is(err, repository.ErrRecordNotFound):
		status = http.StatusNotFound
	default:
		a.logger.Error("http read failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
