// Package match drives a volleyball match from roster setup through the coin
// toss and the sets until one team has won three.
//
// The Engine applies each operator action as a single copy-on-write
// transition: the next Match is built from a deep copy, validated, swapped in
// and then persisted. A rejected action returns an error and leaves the state
// untouched. The Engine is not safe for concurrent use; callers serialize
// access.
package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/cointoss"
	"github.com/okian/courtside/internal/domain/libero"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Engine owns the match state and the current top-level step.
type Engine struct {
	store    Store
	log      logger.Logger
	resolver *cointoss.Resolver
	maxSubs  int
	newID    func() string

	match Match
	step  types.Step
}

// New creates an engine holding a fresh match. Call Load to restore a saved
// one.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		maxSubs: DefaultMaxSubst,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("match")
	}
	if e.resolver == nil {
		e.resolver = cointoss.NewResolver()
	}
	e.match = NewMatch(e.newID())
	e.step = types.StepSetup
	return e
}

// Snapshot returns a deep copy of the match.
func (e *Engine) Snapshot() Match { return e.match.Clone() }

// Step returns the current top-level step.
func (e *Engine) Step() types.Step { return e.step }

// MaxSubstitutions returns the per-set substitution limit, zero if unlimited.
func (e *Engine) MaxSubstitutions() int { return e.maxSubs }

// Candidates lists the roster numbers selectable for slot p of side's lineup
// in the current set.
func (e *Engine) Candidates(side types.Side, p lineup.Position) ([]string, error) {
	if err := checkSide(side); err != nil {
		return nil, err
	}
	set, ok := e.match.Current()
	if !ok {
		return nil, ErrNoSet
	}
	return lineup.Candidates(set.Lineup(side), e.match.Team(side), p), nil
}

// Bench lists side's players currently off court.
func (e *Engine) Bench(side types.Side) ([]string, error) {
	if err := checkSide(side); err != nil {
		return nil, err
	}
	set, _ := e.match.Current()
	return lineup.Bench(set.Lineup(side), e.match.Team(side)), nil
}

// SetTeams replaces both rosters. Each roster is rebuilt player by player, so
// when several players are marked captain the last one listed keeps the
// armband. Rosters may be short until ConfirmSetup.
func (e *Engine) SetTeams(ctx context.Context, a, b roster.Team) error {
	const op = "set_teams"
	if e.step != types.StepSetup {
		return e.reject(ctx, op, fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	na, err := a.Normalize()
	if err != nil {
		return e.reject(ctx, op, fmt.Errorf("team A: %w", err))
	}
	nb, err := b.Normalize()
	if err != nil {
		return e.reject(ctx, op, fmt.Errorf("team B: %w", err))
	}
	next := e.match.Clone()
	next.TeamA, next.TeamB = na, nb
	return e.commit(ctx, op, next, e.step)
}

// UpdateTeam replaces one roster, rebuilt the same way as in SetTeams.
func (e *Engine) UpdateTeam(ctx context.Context, side types.Side, t roster.Team) error {
	return e.editTeam(ctx, "update_team", side, func(roster.Team) (roster.Team, error) {
		return t.Normalize()
	})
}

// AddPlayer appends p to side's roster. A new captain takes the armband.
func (e *Engine) AddPlayer(ctx context.Context, side types.Side, p roster.Player) error {
	return e.editTeam(ctx, "add_player", side, func(t roster.Team) (roster.Team, error) {
		return t.AddPlayer(p)
	}, logger.String("player", p.Number))
}

// UpdatePlayer replaces the roster entry for number.
func (e *Engine) UpdatePlayer(ctx context.Context, side types.Side, number string, p roster.Player) error {
	return e.editTeam(ctx, "update_player", side, func(t roster.Team) (roster.Team, error) {
		return t.UpdatePlayer(roster.NormalizeNumber(number), p)
	}, logger.String("player", number))
}

// RemovePlayer drops number from side's roster.
func (e *Engine) RemovePlayer(ctx context.Context, side types.Side, number string) error {
	return e.editTeam(ctx, "remove_player", side, func(t roster.Team) (roster.Team, error) {
		return t.RemovePlayer(roster.NormalizeNumber(number))
	}, logger.String("player", number))
}

// SetCaptain gives the armband to number and clears it on the rest of the team.
func (e *Engine) SetCaptain(ctx context.Context, side types.Side, number string) error {
	return e.editTeam(ctx, "set_captain", side, func(t roster.Team) (roster.Team, error) {
		return t.SetCaptain(roster.NormalizeNumber(number))
	}, logger.String("player", number))
}

// editTeam applies fn to side's roster during setup.
func (e *Engine) editTeam(ctx context.Context, op string, side types.Side, fn func(roster.Team) (roster.Team, error), fields ...logger.Field) error {
	if err := checkSide(side); err != nil {
		return e.reject(ctx, op, err)
	}
	if e.step != types.StepSetup {
		return e.reject(ctx, op, fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	t, err := fn(e.match.Team(side))
	if err != nil {
		return e.reject(ctx, op, fmt.Errorf("team %s: %w", side, err))
	}
	fields = append(fields, logger.String("team", side.String()))
	return e.commit(ctx, op, e.match.Clone().withTeam(side, t), e.step, fields...)
}

// ConfirmSetup validates both rosters and moves on to the coin toss.
func (e *Engine) ConfirmSetup(ctx context.Context) error {
	if e.step != types.StepSetup {
		return e.reject(ctx, "confirm_setup", fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	for _, side := range types.Sides {
		if err := e.match.Team(side).Validate(); err != nil {
			return e.reject(ctx, "confirm_setup", fmt.Errorf("team %s: %w", side, err))
		}
	}
	return e.commit(ctx, "confirm_setup", e.match.Clone(), types.StepCoinToss)
}

// ReturnToSetup goes back to roster editing before the first toss is decided.
func (e *Engine) ReturnToSetup(ctx context.Context) error {
	if e.step != types.StepCoinToss || len(e.match.Sets) > 0 {
		return e.reject(ctx, "return_to_setup", fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	next := e.match.Clone()
	next.TossWinner = types.SideNone
	return e.commit(ctx, "return_to_setup", next, types.StepSetup)
}

// PrepareToss checks a random toss may run and hands back the resolver. The
// caller spins the coin and records the result with DesignateWinner in
// ModeRandom.
func (e *Engine) PrepareToss(ctx context.Context) (*cointoss.Resolver, error) {
	if e.step != types.StepCoinToss {
		return nil, e.reject(ctx, "toss_coin", fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	return e.resolver, nil
}

// DesignateWinner records the toss winner. It may be called again to correct
// the winner until ChooseToss.
func (e *Engine) DesignateWinner(ctx context.Context, mode cointoss.Mode, winner types.Side) error {
	if e.step != types.StepCoinToss {
		return e.reject(ctx, "designate_winner", fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	if _, err := e.resolver.Manual(winner); err != nil {
		return e.reject(ctx, "designate_winner", err)
	}
	next := e.match.Clone()
	next.TossWinner = winner
	metrics.RecordCoinToss(string(mode))
	return e.commit(ctx, "designate_winner", next, e.step,
		logger.String("mode", string(mode)), logger.String("winner", winner.String()))
}

// ChooseToss records the winner's choice and creates set 1, or set 5 when the
// match is tied 2-2.
func (e *Engine) ChooseToss(ctx context.Context, choice cointoss.Choice) error {
	const op = "choose_toss"
	if e.step != types.StepCoinToss {
		return e.reject(ctx, op, fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	if !e.match.TossWinner.Valid() {
		return e.reject(ctx, op, ErrNoTossWinner)
	}
	res, err := cointoss.Decide(e.match.TossWinner, choice)
	if err != nil {
		return e.reject(ctx, op, err)
	}

	next := e.match.Clone()
	next.TossWinner = types.SideNone
	server := res.ServingTeam()
	switch {
	case len(next.Sets) == 0:
		next.CoinToss = &res
		next.Sets = append(next.Sets, newSet(1, server))
		next.CurrentSet = 1
	case next.AwaitingDecidingToss():
		next.DecidingToss = &res
		next.Sets = append(next.Sets, newSet(DecidingSet, server))
		next.CurrentSet = DecidingSet
	default:
		return e.reject(ctx, op, fmt.Errorf("%d sets played: %w", len(next.Sets), ErrWrongStep))
	}
	return e.commit(ctx, op, next, types.StepMatch,
		logger.String("choice", string(choice)), logger.String("server", server.String()))
}

// AssignPosition sets slot p of side's lineup while the current set is being
// configured. An empty number clears the slot.
func (e *Engine) AssignPosition(ctx context.Context, side types.Side, p lineup.Position, number string) error {
	const op = "assign_position"
	if err := checkSide(side); err != nil {
		return e.reject(ctx, op, err)
	}
	idx, set, err := e.configurableSet()
	if err != nil {
		return e.reject(ctx, op, err)
	}
	number = roster.NormalizeNumber(number)
	if number != "" {
		team := e.match.Team(side)
		if _, ok := team.Player(number); !ok {
			return e.reject(ctx, op, fmt.Errorf("team %s player %s: %w", side, number, roster.ErrUnknownPlayer))
		}
		if team.IsLibero(number) {
			return e.reject(ctx, op, fmt.Errorf("team %s player %s: %w", side, number, lineup.ErrLiberoInLineup))
		}
	}
	l, err := set.Lineup(side).Assign(p, number)
	if err != nil {
		return e.reject(ctx, op, err)
	}

	next := e.match.Clone()
	next.Sets[idx] = set.withLineup(side, l, nil)
	return e.commit(ctx, op, next, e.step,
		logger.String("team", side.String()), logger.String("position", p.String()), logger.String("player", number))
}

// StartSet begins play once both lineups are complete.
func (e *Engine) StartSet(ctx context.Context) error {
	const op = "start_set"
	idx, set, err := e.configurableSet()
	if err != nil {
		return e.reject(ctx, op, err)
	}
	for _, side := range types.Sides {
		if !set.Lineup(side).IsComplete() {
			return e.reject(ctx, op, fmt.Errorf("team %s: %w", side, lineup.ErrIncomplete))
		}
	}
	next := e.match.Clone()
	set.Started = true
	set.ServingTeam = set.FirstServingTeam
	next.Sets[idx] = set
	return e.commit(ctx, op, next, e.step, logger.Int("set", set.Number), logger.String("server", set.ServingTeam.String()))
}

// ScorePoint awards a rally to side. A side winning the rally on the
// opponent's serve rotates counter-clockwise and takes the serve; a libero
// carried to the front row is exchanged back in the same transition. When
// the set is won the next one is created, except before the deciding set,
// which waits for a fresh coin toss.
func (e *Engine) ScorePoint(ctx context.Context, side types.Side) error {
	const op = "score_point"
	idx, set, err := e.liveSet(side)
	if err != nil {
		return e.reject(ctx, op, err)
	}

	next := e.match.Clone()
	set = set.clone()
	set.Score = set.Score.with(side, set.Score.Of(side)+1)
	if set.ServingTeam != side {
		ch, err := libero.Rotate(set.Lineup(side), set.Exchange(side), lineup.CounterClockwise)
		if err != nil {
			return e.reject(ctx, op, err)
		}
		set = set.withLineup(side, ch.Lineup, ch.Exchange)
		set.ServingTeam = side
		metrics.RecordRotation("service")
		if ch.Kind == libero.KindAuto {
			metrics.RecordLiberoExchange(string(ch.Kind))
			e.log.Info(ctx, "libero exchanged back on rotation",
				logger.String("team", side.String()), logger.String("position", ch.Position.String()))
		}
	}
	metrics.RecordPointScored(side.String())

	step := e.step
	if winner, ok := SetWinner(set.Number, set.Score); ok {
		set.Finished, set.Winner = true, winner
		next.SetsWon = next.SetsWon.with(winner, next.SetsWon.Of(winner)+1)
		metrics.RecordSetFinished(set.Number)
		e.log.Info(ctx, "set finished",
			logger.Int("set", set.Number),
			logger.String("winner", winner.String()),
			logger.Int("teamA", set.Score.TeamA),
			logger.Int("teamB", set.Score.TeamB),
		)
	}
	next.Sets[idx] = set
	if set.Finished {
		next, step = e.advance(ctx, next)
	}
	return e.commit(ctx, op, next, step,
		logger.String("team", side.String()), logger.Int("teamA", set.Score.TeamA), logger.Int("teamB", set.Score.TeamB))
}

// advance moves past a finished set.
func (e *Engine) advance(ctx context.Context, m Match) (Match, types.Step) {
	if m.Finished() {
		metrics.RecordMatchFinished()
		e.log.Info(ctx, "match finished",
			logger.String("winner", m.Winner().String()), logger.Int("setsA", m.SetsWon.A), logger.Int("setsB", m.SetsWon.B))
		return m, types.StepMatch
	}
	last := m.Sets[len(m.Sets)-1]
	n := last.Number + 1
	if n == DecidingSet {
		return m, types.StepCoinToss
	}
	m.Sets = append(m.Sets, newSet(n, last.FirstServingTeam.Other()))
	m.CurrentSet = n
	return m, types.StepMatch
}

// RemovePoint takes one point away from side. Rotation and serve are left
// as they are; a zero score stays zero.
func (e *Engine) RemovePoint(ctx context.Context, side types.Side) error {
	const op = "remove_point"
	idx, set, err := e.liveSet(side)
	if err != nil {
		return e.reject(ctx, op, err)
	}
	if set.Score.Of(side) == 0 {
		return nil
	}
	next := e.match.Clone()
	set = next.Sets[idx]
	set.Score = set.Score.with(side, set.Score.Of(side)-1)
	next.Sets[idx] = set
	metrics.RecordPointRemoved(side.String())
	return e.commit(ctx, op, next, e.step,
		logger.String("team", side.String()), logger.Int("teamA", set.Score.TeamA), logger.Int("teamB", set.Score.TeamB))
}

// Rotate turns side's lineup one step by hand. Allowed while the current set
// is configured or in play.
func (e *Engine) Rotate(ctx context.Context, side types.Side, d lineup.Direction) error {
	const op = "rotate"
	if err := checkSide(side); err != nil {
		return e.reject(ctx, op, err)
	}
	if !d.Valid() {
		return e.reject(ctx, op, fmt.Errorf("direction %q: %w", d, lineup.ErrInvalidDirection))
	}
	idx, set, err := e.currentSet()
	if err != nil {
		return e.reject(ctx, op, err)
	}
	if set.Finished {
		return e.reject(ctx, op, ErrSetFinished)
	}
	ch, err := libero.Rotate(set.Lineup(side), set.Exchange(side), d)
	if err != nil {
		return e.reject(ctx, op, err)
	}
	next := e.match.Clone()
	next.Sets[idx] = next.Sets[idx].withLineup(side, ch.Lineup, ch.Exchange)
	metrics.RecordRotation("manual")
	if ch.Kind == libero.KindAuto {
		metrics.RecordLiberoExchange(string(ch.Kind))
	}
	return e.commit(ctx, op, next, e.step, logger.String("team", side.String()), logger.String("direction", string(d)))
}

// Substitute replaces outgoing with incoming during play. Moves involving a
// libero are exchanges and are not counted; all others count towards the
// per-set limit.
func (e *Engine) Substitute(ctx context.Context, side types.Side, outgoing, incoming string) error {
	const op = "substitute"
	idx, set, err := e.liveSet(side)
	if err != nil {
		return e.reject(ctx, op, err)
	}
	outgoing, incoming = roster.NormalizeNumber(outgoing), roster.NormalizeNumber(incoming)
	if outgoing == "" || incoming == "" {
		return e.reject(ctx, op, lineup.ErrNoPlayer)
	}
	team := e.match.Team(side)
	if _, ok := team.Player(incoming); !ok {
		return e.reject(ctx, op, fmt.Errorf("team %s player %s: %w", side, incoming, roster.ErrUnknownPlayer))
	}

	cur, ex := set.Lineup(side), set.Exchange(side)
	next := e.match.Clone()
	set = next.Sets[idx]
	fields := []logger.Field{
		logger.String("team", side.String()), logger.String("out", outgoing), logger.String("in", incoming),
	}

	if libero.Involves(team, outgoing, incoming) {
		ch, err := libero.Substitute(cur, ex, team, outgoing, incoming)
		if err != nil {
			return e.reject(ctx, op, err)
		}
		set = set.withLineup(side, ch.Lineup, ch.Exchange)
		metrics.RecordLiberoExchange(string(ch.Kind))
		fields = append(fields, logger.String("libero", string(ch.Kind)))
	} else {
		used := set.Substitutions(side)
		if e.maxSubs > 0 && used >= e.maxSubs {
			return e.reject(ctx, op, fmt.Errorf("team %s used %d: %w", side, used, ErrSubstitutionLimit))
		}
		if ex != nil && incoming == ex.ReplacedPlayerNumber {
			return e.reject(ctx, op, fmt.Errorf("player %s: %w", incoming, ErrPlayerReplaced))
		}
		l, _, err := cur.Substitute(outgoing, incoming)
		if err != nil {
			return e.reject(ctx, op, err)
		}
		set = set.withLineup(side, l, set.Exchange(side))
		set = set.withSubstitutions(side, used+1)
		metrics.RecordSubstitution(side.String())
		fields = append(fields, logger.Int("used", used+1))
	}
	next.Sets[idx] = set
	return e.commit(ctx, op, next, e.step, fields...)
}

// ResetSet returns the current set to lineup configuration: score 0-0, not
// started, serve back to the set's first server. Lineups are kept, with any
// libero exchanged back for the player it replaced. Resetting a finished set
// takes the set back from its winner.
func (e *Engine) ResetSet(ctx context.Context, confirmed bool) error {
	const op = "reset_set"
	if !confirmed {
		return e.reject(ctx, op, ErrConfirmationRequired)
	}
	if e.step == types.StepSetup {
		return e.reject(ctx, op, fmt.Errorf("%s: %w", e.step, ErrWrongStep))
	}
	idx, _, err := e.currentSet()
	if err != nil {
		return e.reject(ctx, op, err)
	}

	next := e.match.Clone()
	set := next.Sets[idx]
	if set.Finished && set.Winner.Valid() {
		next.SetsWon = next.SetsWon.with(set.Winner, next.SetsWon.Of(set.Winner)-1)
	}
	for _, side := range types.Sides {
		l := set.Lineup(side)
		if ex := set.Exchange(side); ex != nil {
			if p, ok := l.PositionOf(ex.LiberoNumber); ok {
				l = l.Replace(p, ex.ReplacedPlayerNumber)
			}
		}
		set = set.withLineup(side, l, nil)
		set = set.withSubstitutions(side, 0)
	}
	set.Score = Score{}
	set.Started, set.Finished, set.Winner = false, false, types.SideNone
	set.ServingTeam = set.FirstServingTeam
	next.Sets[idx] = set
	next.TossWinner = types.SideNone
	return e.commit(ctx, op, next, types.StepMatch, logger.Int("set", set.Number))
}

// ResetMatch discards everything and returns to roster setup.
func (e *Engine) ResetMatch(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return e.reject(ctx, "reset_match", ErrConfirmationRequired)
	}
	prev := e.match.ID
	return e.commit(ctx, "reset_match", NewMatch(e.newID()), types.StepSetup, logger.String("previous", prev))
}

// configurableSet returns the current set while its lineups may be edited.
func (e *Engine) configurableSet() (int, Set, error) {
	if e.step != types.StepMatch {
		return 0, Set{}, fmt.Errorf("%s: %w", e.step, ErrWrongStep)
	}
	idx, set, err := e.currentSet()
	if err != nil {
		return 0, Set{}, err
	}
	switch {
	case set.Finished:
		return 0, Set{}, ErrSetFinished
	case set.Started:
		return 0, Set{}, fmt.Errorf("set %d: %w", set.Number, ErrSetStarted)
	}
	return idx, set, nil
}

// liveSet returns the current set while rallies are being played.
func (e *Engine) liveSet(side types.Side) (int, Set, error) {
	if err := checkSide(side); err != nil {
		return 0, Set{}, err
	}
	if e.step != types.StepMatch {
		return 0, Set{}, fmt.Errorf("%s: %w", e.step, ErrWrongStep)
	}
	if e.match.Finished() {
		return 0, Set{}, ErrMatchFinished
	}
	idx, set, err := e.currentSet()
	if err != nil {
		return 0, Set{}, err
	}
	switch {
	case set.Finished:
		return 0, Set{}, ErrSetFinished
	case !set.Started:
		return 0, Set{}, fmt.Errorf("set %d: %w", set.Number, ErrSetNotStarted)
	}
	return idx, set, nil
}

func (e *Engine) currentSet() (int, Set, error) {
	set, ok := e.match.Current()
	if !ok {
		return 0, Set{}, ErrNoSet
	}
	return e.match.CurrentSet - 1, set, nil
}

func checkSide(side types.Side) error {
	if !side.Valid() {
		return fmt.Errorf("team %q: %w", side, types.ErrUnknownValue)
	}
	return nil
}

func (e *Engine) commit(ctx context.Context, op string, next Match, step types.Step, fields ...logger.Field) error {
	e.match, e.step = next, step
	fields = append(fields, logger.String("op", op), logger.String("step", step.String()))
	e.log.Debug(ctx, "state changed", fields...)
	return e.persist(ctx)
}

func (e *Engine) reject(ctx context.Context, op string, err error) error {
	metrics.RecordRejected(op)
	e.log.Debug(ctx, "action rejected", logger.String("op", op), logger.Error(err))
	return err
}
