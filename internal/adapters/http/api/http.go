// Package api exposes the referee engine to the operator screen over JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/types"
)

// Header names used for idempotent commands.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Snapshot() (service.View, error)
	Candidates(side types.Side, p lineup.Position) ([]string, error)
	Bench(side types.Side) ([]string, error)
	Do(ctx context.Context, key string, cmd service.Command) (service.View, error)
	TossCoin(ctx context.Context, key string) (service.View, error)
}

// Server wires HTTP routes for the referee API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	matchHandler  *MatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		matchHandler:  NewMatchHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	h := s.matchHandler
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /healthz", s.healthHandler.HandleHealth},
		{"GET /stats", s.statsHandler.HandleStats},

		{"GET /match", h.HandleGetMatch},
		{"GET /lineup/{side}/{position}/candidates", h.HandleCandidates},
		{"GET /bench/{side}", h.HandleBench},

		{"POST /setup/teams", h.HandleSetTeams},
		{"PUT /setup/teams/{side}", h.HandleUpdateTeam},
		{"POST /setup/teams/{side}/players", h.HandleAddPlayer},
		{"PUT /setup/teams/{side}/players/{number}", h.HandleUpdatePlayer},
		{"DELETE /setup/teams/{side}/players/{number}", h.HandleRemovePlayer},
		{"PUT /setup/teams/{side}/captain", h.HandleSetCaptain},
		{"POST /setup/confirm", h.HandleConfirmSetup},
		{"POST /setup/return", h.HandleReturnToSetup},

		{"POST /cointoss/random", h.HandleRandomToss},
		{"POST /cointoss/winner", h.HandleDesignateWinner},
		{"POST /cointoss/choice", h.HandleChooseToss},

		{"PUT /lineup/{side}/{position}", h.HandleAssignPosition},
		{"POST /sets/start", h.HandleStartSet},
		{"POST /points/{side}", h.HandleScorePoint},
		{"DELETE /points/{side}", h.HandleRemovePoint},
		{"POST /rotate/{side}", h.HandleRotate},
		{"POST /substitutions/{side}", h.HandleSubstitute},
		{"POST /sets/reset", h.HandleResetSet},
		{"POST /match/reset", h.HandleResetMatch},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, MetricsMiddleware(rt.handler, rt.pattern))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if code == codeSaveFailed {
		msg = "the change was applied but could not be saved"
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeResult answers a command: the view on success or replay, the mapped
// error otherwise.
func writeResult(w http.ResponseWriter, v service.View, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case errors.Is(err, service.ErrDuplicate):
		w.Header().Set(HeaderReplayed, "true")
		writeJSON(w, http.StatusOK, v)
	default:
		status, code := classify(err)
		writeError(w, status, code, err)
	}
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func pathSide(r *http.Request) (types.Side, error) {
	side, err := types.ParseSide(r.PathValue("side"))
	if err != nil {
		return types.SideNone, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return side, nil
}

func pathPosition(r *http.Request) (lineup.Position, error) {
	p, err := lineup.ParsePosition(r.PathValue("position"))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return p, nil
}
