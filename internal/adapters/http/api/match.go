package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/cointoss"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/match"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/types"
)

// MatchHandler turns operator requests into engine commands.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

type teamsRequest struct {
	TeamA roster.Team `json:"teamA"`
	TeamB roster.Team `json:"teamB"`
}

type winnerRequest struct {
	Winner types.Side `json:"winner"`
}

type choiceRequest struct {
	Choice cointoss.Choice `json:"choice"`
}

// positionRequest names a player, for a lineup slot or the captaincy.
type positionRequest struct {
	Number string `json:"number"`
}

type substitutionRequest struct {
	Out string `json:"out"`
	In  string `json:"in"`
}

type playersResponse struct {
	Players []string `json:"players"`
}

// run executes cmd under the request's idempotency key.
func (h *MatchHandler) run(w http.ResponseWriter, r *http.Request, cmd service.Command) {
	v, err := h.deps.Do(r.Context(), r.Header.Get(HeaderIdempotencyKey), cmd)
	writeResult(w, v, err)
}

// HandleGetMatch handles GET /match.
func (h *MatchHandler) HandleGetMatch(w http.ResponseWriter, _ *http.Request) {
	v, err := h.deps.Snapshot()
	writeResult(w, v, err)
}

// HandleCandidates handles GET /lineup/{side}/{position}/candidates.
func (h *MatchHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	p, err := pathPosition(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	players, err := h.deps.Candidates(side, p)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	writeJSON(w, http.StatusOK, playersResponse{Players: nonNil(players)})
}

// HandleBench handles GET /bench/{side}.
func (h *MatchHandler) HandleBench(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	players, err := h.deps.Bench(side)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	writeJSON(w, http.StatusOK, playersResponse{Players: nonNil(players)})
}

// HandleSetTeams handles POST /setup/teams.
func (h *MatchHandler) HandleSetTeams(w http.ResponseWriter, r *http.Request) {
	var req teamsRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.SetTeams(ctx, req.TeamA, req.TeamB)
	})
}

// HandleUpdateTeam handles PUT /setup/teams/{side}.
func (h *MatchHandler) HandleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	var team roster.Team
	if err := decode(w, r, &team); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.UpdateTeam(ctx, side, team)
	})
}

// HandleAddPlayer handles POST /setup/teams/{side}/players.
func (h *MatchHandler) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	var p roster.Player
	if err := decode(w, r, &p); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.AddPlayer(ctx, side, p)
	})
}

// HandleUpdatePlayer handles PUT /setup/teams/{side}/players/{number}.
func (h *MatchHandler) HandleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	var p roster.Player
	if err := decode(w, r, &p); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	number := r.PathValue("number")
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.UpdatePlayer(ctx, side, number, p)
	})
}

// HandleRemovePlayer handles DELETE /setup/teams/{side}/players/{number}.
func (h *MatchHandler) HandleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	number := r.PathValue("number")
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.RemovePlayer(ctx, side, number)
	})
}

// HandleSetCaptain handles PUT /setup/teams/{side}/captain.
func (h *MatchHandler) HandleSetCaptain(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	var req positionRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.SetCaptain(ctx, side, req.Number)
	})
}

// HandleConfirmSetup handles POST /setup/confirm.
func (h *MatchHandler) HandleConfirmSetup(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.ConfirmSetup(ctx)
	})
}

// HandleReturnToSetup handles POST /setup/return.
func (h *MatchHandler) HandleReturnToSetup(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.ReturnToSetup(ctx)
	})
}

// HandleRandomToss handles POST /cointoss/random. The response is sent once
// the coin has landed.
func (h *MatchHandler) HandleRandomToss(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.TossCoin(r.Context(), r.Header.Get(HeaderIdempotencyKey))
	writeResult(w, v, err)
}

// HandleDesignateWinner handles POST /cointoss/winner.
func (h *MatchHandler) HandleDesignateWinner(w http.ResponseWriter, r *http.Request) {
	var req winnerRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.DesignateWinner(ctx, cointoss.ModeManual, req.Winner)
	})
}

// HandleChooseToss handles POST /cointoss/choice.
func (h *MatchHandler) HandleChooseToss(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.ChooseToss(ctx, req.Choice)
	})
}

// HandleAssignPosition handles PUT /lineup/{side}/{position}.
func (h *MatchHandler) HandleAssignPosition(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	p, err := pathPosition(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	var req positionRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.AssignPosition(ctx, side, p, req.Number)
	})
}

// HandleStartSet handles POST /sets/start.
func (h *MatchHandler) HandleStartSet(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.StartSet(ctx)
	})
}

// HandleScorePoint handles POST /points/{side}.
func (h *MatchHandler) HandleScorePoint(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.ScorePoint(ctx, side)
	})
}

// HandleRemovePoint handles DELETE /points/{side}.
func (h *MatchHandler) HandleRemovePoint(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.RemovePoint(ctx, side)
	})
}

// HandleRotate handles POST /rotate/{side}?direction=clockwise|counterClockwise.
func (h *MatchHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	d := lineup.Direction(r.URL.Query().Get("direction"))
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.Rotate(ctx, side, d)
	})
}

// HandleSubstitute handles POST /substitutions/{side}.
func (h *MatchHandler) HandleSubstitute(w http.ResponseWriter, r *http.Request) {
	side, err := pathSide(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	var req substitutionRequest
	if err := decode(w, r, &req); err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.Substitute(ctx, side, req.Out, req.In)
	})
}

// HandleResetSet handles POST /sets/reset?confirm=true.
func (h *MatchHandler) HandleResetSet(w http.ResponseWriter, r *http.Request) {
	confirmed, err := confirmation(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.ResetSet(ctx, confirmed)
	})
}

// HandleResetMatch handles POST /match/reset?confirm=true.
func (h *MatchHandler) HandleResetMatch(w http.ResponseWriter, r *http.Request) {
	confirmed, err := confirmation(r)
	if err != nil {
		writeResult(w, service.View{}, err)
		return
	}
	h.run(w, r, func(ctx context.Context, e *match.Engine) error {
		return e.ResetMatch(ctx, confirmed)
	})
}

// confirmation reads the confirm query flag; absent means not confirmed.
func confirmation(r *http.Request) (bool, error) {
	v := r.URL.Query().Get("confirm")
	if v == "" {
		return false, nil
	}
	ok, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: confirm %q", ErrBadRequest, v)
	}
	return ok, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
