// Package lineup holds the six on-court slots of one team for one set.
//
// A Lineup is an array value, so every operation returns a new lineup and the
// receiver never changes. P1 is the server's slot; P1, P6 and P5 are the back
// row, P2, P3 and P4 the front row.
package lineup

import (
	"encoding/json"
	"fmt"

	"github.com/okian/courtside/internal/domain/roster"
)

// Slots is the number of on-court positions per team.
const Slots = 6

// Position is a court slot, P1 to P6.
type Position int

const (
	P1 Position = iota + 1
	P2
	P3
	P4
	P5
	P6
)

// Positions lists P1..P6 in order.
var Positions = [Slots]Position{P1, P2, P3, P4, P5, P6}

// Valid reports whether p is one of P1..P6.
func (p Position) Valid() bool { return p >= P1 && p <= P6 }

// IsBackRow reports whether p is P1, P5 or P6.
func (p Position) IsBackRow() bool { return p == P1 || p == P5 || p == P6 }

// IsFrontRow reports whether p is P2, P3 or P4.
func (p Position) IsFrontRow() bool { return p == P2 || p == P3 || p == P4 }

func (p Position) String() string {
	if !p.Valid() {
		return "P?"
	}
	return fmt.Sprintf("P%d", int(p))
}

// ParsePosition accepts "P1".."P6" or "1".."6".
func ParsePosition(v string) (Position, error) {
	if len(v) == 2 && (v[0] == 'P' || v[0] == 'p') {
		v = v[1:]
	}
	if len(v) == 1 && v[0] >= '1' && v[0] <= '6' {
		return Position(v[0] - '0'), nil
	}
	return 0, fmt.Errorf("position %q: %w", v, ErrInvalidPosition)
}

// MarshalText encodes p as "P1".."P6".
func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%d: %w", int(p), ErrInvalidPosition)
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes "P1".."P6".
func (p *Position) UnmarshalText(b []byte) error {
	v, err := ParsePosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Direction is the sense of a one-step rotation.
type Direction string

const (
	// CounterClockwise is the service-regain rotation: the player in P2
	// moves to P1 to serve, P1 goes to P6, P6 to P5 and so on.
	CounterClockwise Direction = "counterClockwise"
	// Clockwise undoes a CounterClockwise step.
	Clockwise Direction = "clockwise"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool { return d == Clockwise || d == CounterClockwise }

// Lineup maps each slot to a player number; "" marks an empty slot.
type Lineup [Slots]string

// At returns the number in slot p.
func (l Lineup) At(p Position) string {
	if !p.Valid() {
		return ""
	}
	return l[p-1]
}

// PositionOf finds the slot occupied by number.
func (l Lineup) PositionOf(number string) (Position, bool) {
	if number == "" {
		return 0, false
	}
	for i, n := range l {
		if n == number {
			return Position(i + 1), true
		}
	}
	return 0, false
}

// OnCourt reports whether number occupies any slot.
func (l Lineup) OnCourt(number string) bool {
	_, ok := l.PositionOf(number)
	return ok
}

// IsComplete reports whether all six slots hold distinct numbers.
func (l Lineup) IsComplete() bool {
	seen := make(map[string]struct{}, Slots)
	for _, n := range l {
		if n == "" {
			return false
		}
		if _, dup := seen[n]; dup {
			return false
		}
		seen[n] = struct{}{}
	}
	return true
}

// Rotate shifts every player one slot in direction d.
func (l Lineup) Rotate(d Direction) (Lineup, error) {
	var out Lineup
	switch d {
	case CounterClockwise:
		for i := range l {
			out[i] = l[(i+1)%Slots]
		}
	case Clockwise:
		for i := range l {
			out[i] = l[(i+Slots-1)%Slots]
		}
	default:
		return l, fmt.Errorf("direction %q: %w", d, ErrInvalidDirection)
	}
	return out, nil
}

// Assign places number in slot p during lineup configuration. An empty number
// clears the slot. A number already sitting in another slot is rejected.
func (l Lineup) Assign(p Position, number string) (Lineup, error) {
	if !p.Valid() {
		return l, fmt.Errorf("%s: %w", p, ErrInvalidPosition)
	}
	number = roster.NormalizeNumber(number)
	if at, ok := l.PositionOf(number); ok && at != p {
		return l, fmt.Errorf("player %s in %s: %w", number, at, ErrAlreadyPlaced)
	}
	l[p-1] = number
	return l, nil
}

// Replace puts number in slot p without any checks.
func (l Lineup) Replace(p Position, number string) Lineup {
	if p.Valid() {
		l[p-1] = number
	}
	return l
}

// Substitute swaps outgoing for incoming in outgoing's slot and returns that
// slot.
func (l Lineup) Substitute(outgoing, incoming string) (Lineup, Position, error) {
	if outgoing == "" || incoming == "" {
		return l, 0, ErrNoPlayer
	}
	p, ok := l.PositionOf(outgoing)
	if !ok {
		return l, 0, fmt.Errorf("player %s: %w", outgoing, ErrNotOnCourt)
	}
	if l.OnCourt(incoming) {
		return l, 0, fmt.Errorf("player %s: %w", incoming, ErrAlreadyOnCourt)
	}
	l[p-1] = incoming
	return l, p, nil
}

// Candidates lists the roster numbers an operator may pick for slot p: any
// non-libero not already placed in a different slot.
func Candidates(l Lineup, team roster.Team, p Position) []string {
	out := make([]string, 0, len(team.Players))
	for _, pl := range team.Players {
		if pl.IsLibero {
			continue
		}
		if at, ok := l.PositionOf(pl.Number); ok && at != p {
			continue
		}
		out = append(out, pl.Number)
	}
	return out
}

// Bench lists roster numbers not currently on court.
func Bench(l Lineup, team roster.Team) []string {
	out := make([]string, 0, len(team.Players))
	for _, pl := range team.Players {
		if !l.OnCourt(pl.Number) {
			out = append(out, pl.Number)
		}
	}
	return out
}

// MarshalJSON writes the lineup as {"P1": "4", ..., "P6": "9"}.
func (l Lineup) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, Slots)
	for _, p := range Positions {
		m[p.String()] = l.At(p)
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the object form written by MarshalJSON.
func (l *Lineup) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out Lineup
	for k, v := range m {
		p, err := ParsePosition(k)
		if err != nil {
			return err
		}
		out[p-1] = v
	}
	*l = out
	return nil
}
