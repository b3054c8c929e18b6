package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/courtside/internal/domain/libero"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Persisted keys.
const (
	KeyMatch = "referee_match_data"
	KeyStep  = "referee_step"
)

// Store is the key-value persistence collaborator. Load returns an error
// wrapping model.ErrNotFound for keys never saved.
type Store interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Load restores the match and step from the store. A missing match starts
// fresh; corrupt data is discarded with a warning. Only store I/O failures
// are returned.
func (e *Engine) Load(ctx context.Context) error {
	raw, err := e.store.Load(ctx, KeyMatch)
	switch {
	case errors.Is(err, model.ErrNotFound):
		e.match, e.step = NewMatch(e.newID()), types.StepSetup
		e.log.Info(ctx, "no saved match, starting fresh", logger.String("match_id", e.match.ID))
		return nil
	case err != nil:
		return fmt.Errorf("load %s: %w", KeyMatch, err)
	}

	m, err := DecodeMatch(raw)
	if err != nil {
		metrics.RecordStateRecovered(KeyMatch)
		e.match, e.step = NewMatch(e.newID()), types.StepSetup
		e.log.Warn(ctx, "discarding saved match", logger.Error(err), logger.String("match_id", e.match.ID))
		return nil
	}
	if m.ID == "" {
		m.ID = e.newID()
	}

	step := deriveStep(m)
	rawStep, err := e.store.Load(ctx, KeyStep)
	switch {
	case errors.Is(err, model.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load %s: %w", KeyStep, err)
	default:
		s, perr := types.ParseStep(string(rawStep))
		switch {
		case perr != nil:
			metrics.RecordStateRecovered(KeyStep)
			e.log.Warn(ctx, "ignoring saved step", logger.Error(perr), logger.String("derived", step.String()))
		case !stepFits(m, s):
			metrics.RecordStateRecovered(KeyStep)
			e.log.Warn(ctx, "saved step does not fit match", logger.String("saved", s.String()), logger.String("derived", step.String()))
		default:
			step = s
		}
	}

	e.match, e.step = m, step
	e.log.Info(ctx, "match restored",
		logger.String("match_id", m.ID),
		logger.String("step", step.String()),
		logger.Int("sets", len(m.Sets)),
	)
	return nil
}

// DecodeMatch parses persisted match data and checks its structure.
func DecodeMatch(raw []byte) (Match, error) {
	var m Match
	if err := json.Unmarshal(raw, &m); err != nil {
		return Match{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if m.Sets == nil {
		m.Sets = []Set{}
	}
	if err := m.check(); err != nil {
		return Match{}, err
	}
	return m, nil
}

func (m Match) check() error {
	if len(m.Sets) > MaxSets {
		return fmt.Errorf("%w: %d sets", ErrCorruptState, len(m.Sets))
	}
	if len(m.Sets) == 0 && m.CurrentSet != 0 {
		return fmt.Errorf("%w: current set %d without sets", ErrCorruptState, m.CurrentSet)
	}
	if len(m.Sets) > 0 && (m.CurrentSet < 1 || m.CurrentSet > len(m.Sets)) {
		return fmt.Errorf("%w: current set %d of %d", ErrCorruptState, m.CurrentSet, len(m.Sets))
	}
	var won SetsWon
	for i, s := range m.Sets {
		if s.Number != i+1 {
			return fmt.Errorf("%w: set %d numbered %d", ErrCorruptState, i+1, s.Number)
		}
		if !s.ServingTeam.Valid() {
			return fmt.Errorf("%w: set %d has no server", ErrCorruptState, s.Number)
		}
		if !s.Finished && i != len(m.Sets)-1 {
			return fmt.Errorf("%w: set %d unfinished before set %d", ErrCorruptState, s.Number, len(m.Sets))
		}
		if s.Finished {
			if !s.Winner.Valid() {
				return fmt.Errorf("%w: set %d finished without a winner", ErrCorruptState, s.Number)
			}
			won = won.with(s.Winner, won.Of(s.Winner)+1)
		}
		for _, side := range types.Sides {
			if err := m.checkCourt(s, side); err != nil {
				return fmt.Errorf("%w: set %d team %s: %w", ErrCorruptState, s.Number, side, err)
			}
		}
	}
	if m.SetsWon != won {
		return fmt.Errorf("%w: sets won %d-%d but finished sets give %d-%d",
			ErrCorruptState, m.SetsWon.A, m.SetsWon.B, won.A, won.B)
	}
	if m.SetsWon.A > SetsToWin || m.SetsWon.B > SetsToWin || (m.SetsWon.A == SetsToWin && m.SetsWon.B == SetsToWin) {
		return fmt.Errorf("%w: sets won %d-%d", ErrCorruptState, m.SetsWon.A, m.SetsWon.B)
	}
	return nil
}

// checkCourt verifies side's lineup and libero exchange in s against the
// roster.
func (m Match) checkCourt(s Set, side types.Side) error {
	team, l := m.Team(side), s.Lineup(side)
	seen := make(map[string]struct{}, len(l))
	for _, p := range lineup.Positions {
		n := l.At(p)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("player %s twice on court: %w", n, lineup.ErrAlreadyPlaced)
		}
		seen[n] = struct{}{}
		if _, ok := team.Player(n); !ok {
			return fmt.Errorf("player %s at %s: %w", n, p, roster.ErrUnknownPlayer)
		}
	}
	if s.Started && !l.IsComplete() {
		return fmt.Errorf("started with an incomplete lineup: %w", lineup.ErrIncomplete)
	}

	ex := s.Exchange(side)
	if ex == nil {
		return nil
	}
	if !team.IsLibero(ex.LiberoNumber) {
		return fmt.Errorf("exchange for %s: %w", ex.LiberoNumber, libero.ErrNotLibero)
	}
	p, ok := l.PositionOf(ex.LiberoNumber)
	if !ok {
		return fmt.Errorf("libero %s: %w", ex.LiberoNumber, lineup.ErrNotOnCourt)
	}
	if !p.IsBackRow() {
		return fmt.Errorf("libero %s at %s: %w", ex.LiberoNumber, p, libero.ErrFrontRow)
	}
	if l.OnCourt(ex.ReplacedPlayerNumber) {
		return fmt.Errorf("replaced player %s: %w", ex.ReplacedPlayerNumber, lineup.ErrAlreadyOnCourt)
	}
	return nil
}

func deriveStep(m Match) types.Step {
	switch {
	case m.AwaitingDecidingToss():
		return types.StepCoinToss
	case len(m.Sets) > 0:
		return types.StepMatch
	case m.TossWinner.Valid():
		return types.StepCoinToss
	}
	return types.StepSetup
}

func stepFits(m Match, s types.Step) bool {
	switch s {
	case types.StepSetup:
		return len(m.Sets) == 0 && !m.TossWinner.Valid()
	case types.StepCoinToss:
		return len(m.Sets) == 0 || m.AwaitingDecidingToss()
	case types.StepMatch:
		return len(m.Sets) > 0 && !m.AwaitingDecidingToss()
	}
	return false
}

// persist writes both keys. The in-memory state is already applied when it
// runs, so a failure is reported but not rolled back.
func (e *Engine) persist(ctx context.Context) error {
	raw, err := json.Marshal(e.match)
	if err != nil {
		return e.saveFailed(ctx, KeyMatch, err)
	}
	if err := e.store.Save(ctx, KeyMatch, raw); err != nil {
		return e.saveFailed(ctx, KeyMatch, err)
	}
	step, err := e.step.MarshalText()
	if err != nil {
		return e.saveFailed(ctx, KeyStep, err)
	}
	if err := e.store.Save(ctx, KeyStep, step); err != nil {
		return e.saveFailed(ctx, KeyStep, err)
	}
	return nil
}

func (e *Engine) saveFailed(ctx context.Context, key string, err error) error {
	metrics.RecordPersistError(key)
	e.log.Error(ctx, "failed to save state", logger.String("key", key), logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrSaveFailed, key, err)
}
