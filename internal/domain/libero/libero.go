// Package libero tracks libero exchanges: uncounted, reversible replacements
// of a back-row player by the team's libero.
//
// At most one exchange is active per team per set. While it is active the
// libero stays in the back row; a rotation that would carry it to the front
// row restores the replaced player in the same step (see Rotate).
package libero

import (
	"fmt"

	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/roster"
)

// Exchange records a libero on court in place of a regular player.
// ReplacedAtPosition is the slot at the moment of entry.
type Exchange struct {
	LiberoNumber         string          `json:"liberoNumber"`
	ReplacedPlayerNumber string          `json:"replacedPlayerNumber"`
	ReplacedAtPosition   lineup.Position `json:"replacedAtPosition"`
}

// Kind describes what an exchange operation did.
type Kind string

const (
	KindNone  Kind = ""
	KindEnter Kind = "enter"
	KindExit  Kind = "exit"
	KindSwap  Kind = "swap"
	KindAuto  Kind = "auto"
)

// Change is the result of an exchange operation.
type Change struct {
	Lineup   lineup.Lineup
	Exchange *Exchange
	Kind     Kind
	Position lineup.Position
}

// Involves reports whether a substitution between outgoing and incoming is a
// libero matter rather than a counted substitution.
func Involves(team roster.Team, outgoing, incoming string) bool {
	return team.IsLibero(outgoing) || team.IsLibero(incoming)
}

// Substitute applies a libero entry, exit or libero-for-libero swap.
// active is the team's current exchange, nil when none.
func Substitute(l lineup.Lineup, active *Exchange, team roster.Team, outgoing, incoming string) (Change, error) {
	none := Change{Lineup: l, Exchange: active}
	if outgoing == "" || incoming == "" {
		return none, lineup.ErrNoPlayer
	}
	p, ok := l.PositionOf(outgoing)
	if !ok {
		return none, fmt.Errorf("player %s: %w", outgoing, lineup.ErrNotOnCourt)
	}
	if l.OnCourt(incoming) {
		return none, fmt.Errorf("player %s: %w", incoming, lineup.ErrAlreadyOnCourt)
	}

	inLib, outLib := team.IsLibero(incoming), team.IsLibero(outgoing)
	switch {
	case inLib && !p.IsBackRow():
		return none, fmt.Errorf("libero %s at %s: %w", incoming, p, ErrFrontRow)

	case inLib && outLib:
		if active == nil || active.LiberoNumber != outgoing {
			return none, fmt.Errorf("libero %s: %w", outgoing, ErrNoExchange)
		}
		next := *active
		next.LiberoNumber = incoming
		return Change{Lineup: l.Replace(p, incoming), Exchange: &next, Kind: KindSwap, Position: p}, nil

	case inLib:
		if active != nil {
			return none, fmt.Errorf("libero %s for %s: %w", active.LiberoNumber, active.ReplacedPlayerNumber, ErrExchangeActive)
		}
		ex := &Exchange{LiberoNumber: incoming, ReplacedPlayerNumber: outgoing, ReplacedAtPosition: p}
		return Change{Lineup: l.Replace(p, incoming), Exchange: ex, Kind: KindEnter, Position: p}, nil

	case outLib:
		if active == nil || active.LiberoNumber != outgoing {
			return none, fmt.Errorf("libero %s: %w", outgoing, ErrNoExchange)
		}
		if incoming != active.ReplacedPlayerNumber {
			return none, fmt.Errorf("expected %s, got %s: %w", active.ReplacedPlayerNumber, incoming, ErrWrongReturn)
		}
		return Change{Lineup: l.Replace(p, incoming), Exchange: nil, Kind: KindExit, Position: p}, nil
	}
	return none, ErrNotLibero
}

// Correct restores the replaced player if the libero stands in the front row.
func Correct(l lineup.Lineup, active *Exchange) Change {
	if active == nil {
		return Change{Lineup: l}
	}
	p, ok := l.PositionOf(active.LiberoNumber)
	if !ok || !p.IsFrontRow() {
		return Change{Lineup: l, Exchange: active}
	}
	return Change{
		Lineup:   l.Replace(p, active.ReplacedPlayerNumber),
		Exchange: nil,
		Kind:     KindAuto,
		Position: p,
	}
}

// Rotate turns the lineup one step and applies Correct in the same transition,
// so no returned state ever shows the libero in the front row.
func Rotate(l lineup.Lineup, active *Exchange, d lineup.Direction) (Change, error) {
	rotated, err := l.Rotate(d)
	if err != nil {
		return Change{Lineup: l, Exchange: active}, err
	}
	return Correct(rotated, active), nil
}
