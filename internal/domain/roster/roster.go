// Package roster models a team's players for the referee sheet.
//
// Teams are values: every mutating method returns an updated copy and leaves
// the receiver untouched, so callers can discard the result on error.
package roster

import (
	"fmt"
	"strings"
)

// MinPlayers is the smallest roster allowed to start a match.
const MinPlayers = 6

// Role is a player's position on the team.
type Role string

const (
	RoleSetter         Role = "setter"
	RoleOutsideHitter  Role = "outsideHitter"
	RoleOppositeHitter Role = "oppositeHitter"
	RoleMiddleBlocker  Role = "middleBlocker"
	RoleLibero         Role = "libero"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSetter, RoleOutsideHitter, RoleOppositeHitter, RoleMiddleBlocker, RoleLibero:
		return true
	}
	return false
}

// Player is a single roster entry. Number is the shirt number.
type Player struct {
	Number    string `json:"number"`
	Role      Role   `json:"role"`
	IsLibero  bool   `json:"isLibero"`
	IsCaptain bool   `json:"isCaptain"`
}

// Team holds a roster and its display attributes.
type Team struct {
	Name           string   `json:"name"`
	ColorPrimary   string   `json:"colorPrimary"`
	ColorSecondary string   `json:"colorSecondary"`
	Players        []Player `json:"players"`
}

// DefaultTeam returns an empty roster used on first run.
func DefaultTeam(name, primary, secondary string) Team {
	return Team{Name: name, ColorPrimary: primary, ColorSecondary: secondary, Players: []Player{}}
}

// NormalizeNumber trims whitespace around a shirt number.
func NormalizeNumber(n string) string { return strings.TrimSpace(n) }

func validNumber(n string) bool {
	if len(n) < 1 || len(n) > 2 {
		return false
	}
	for _, c := range n {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the team.
func (t Team) Clone() Team {
	out := t
	if t.Players != nil {
		out.Players = make([]Player, len(t.Players))
		copy(out.Players, t.Players)
	}
	return out
}

// Player looks up a roster entry by number.
func (t Team) Player(number string) (Player, bool) {
	for _, p := range t.Players {
		if p.Number == number {
			return p, true
		}
	}
	return Player{}, false
}

// IsLibero reports whether number belongs to a libero of this team.
func (t Team) IsLibero(number string) bool {
	p, ok := t.Player(number)
	return ok && p.IsLibero
}

// Liberos returns the numbers of the team's liberos.
func (t Team) Liberos() []string {
	var out []string
	for _, p := range t.Players {
		if p.IsLibero {
			out = append(out, p.Number)
		}
	}
	return out
}

// Captain returns the captain's number, if any.
func (t Team) Captain() (string, bool) {
	for _, p := range t.Players {
		if p.IsCaptain {
			return p.Number, true
		}
	}
	return "", false
}

// AddPlayer appends p. The libero flag is derived from the role, and a new
// captain takes the armband from whoever had it.
func (t Team) AddPlayer(p Player) (Team, error) {
	p.Number = NormalizeNumber(p.Number)
	if !validNumber(p.Number) {
		return t, fmt.Errorf("player %q: %w", p.Number, ErrInvalidNumber)
	}
	if !p.Role.Valid() {
		return t, fmt.Errorf("player %s role %q: %w", p.Number, p.Role, ErrInvalidRole)
	}
	if _, exists := t.Player(p.Number); exists {
		return t, fmt.Errorf("player %s: %w", p.Number, ErrDuplicateNumber)
	}
	p.IsLibero = p.Role == RoleLibero

	out := t.Clone()
	if p.IsCaptain {
		for i := range out.Players {
			out.Players[i].IsCaptain = false
		}
	}
	out.Players = append(out.Players, p)
	return out, nil
}

// UpdatePlayer replaces the entry for number with p. p may carry a new number
// as long as it stays unique.
func (t Team) UpdatePlayer(number string, p Player) (Team, error) {
	idx := t.indexOf(number)
	if idx < 0 {
		return t, fmt.Errorf("player %s: %w", number, ErrUnknownPlayer)
	}
	p.Number = NormalizeNumber(p.Number)
	if !validNumber(p.Number) {
		return t, fmt.Errorf("player %q: %w", p.Number, ErrInvalidNumber)
	}
	if !p.Role.Valid() {
		return t, fmt.Errorf("player %s role %q: %w", p.Number, p.Role, ErrInvalidRole)
	}
	if p.Number != number {
		if _, exists := t.Player(p.Number); exists {
			return t, fmt.Errorf("player %s: %w", p.Number, ErrDuplicateNumber)
		}
	}
	p.IsLibero = p.Role == RoleLibero

	out := t.Clone()
	if p.IsCaptain {
		for i := range out.Players {
			out.Players[i].IsCaptain = false
		}
	}
	out.Players[idx] = p
	return out, nil
}

// RemovePlayer drops number from the roster.
func (t Team) RemovePlayer(number string) (Team, error) {
	idx := t.indexOf(number)
	if idx < 0 {
		return t, fmt.Errorf("player %s: %w", number, ErrUnknownPlayer)
	}
	out := t.Clone()
	out.Players = append(out.Players[:idx], out.Players[idx+1:]...)
	return out, nil
}

// Normalize rebuilds the roster through AddPlayer: numbers are trimmed and
// checked, the libero flag follows the role and the last captain listed keeps
// the armband.
func (t Team) Normalize() (Team, error) {
	out := t.Clone()
	out.Players = make([]Player, 0, len(t.Players))
	for _, p := range t.Players {
		next, err := out.AddPlayer(p)
		if err != nil {
			return t, err
		}
		out = next
	}
	return out, nil
}

// SetCaptain gives the armband to number and clears it on everyone else.
func (t Team) SetCaptain(number string) (Team, error) {
	if t.indexOf(number) < 0 {
		return t, fmt.Errorf("player %s: %w", number, ErrUnknownPlayer)
	}
	out := t.Clone()
	for i := range out.Players {
		out.Players[i].IsCaptain = out.Players[i].Number == number
	}
	return out, nil
}

// Validate checks the roster can start a match.
func (t Team) Validate() error {
	seen := make(map[string]struct{}, len(t.Players))
	captains := 0
	for _, p := range t.Players {
		if !validNumber(p.Number) {
			return fmt.Errorf("%s player %q: %w", t.Name, p.Number, ErrInvalidNumber)
		}
		if _, dup := seen[p.Number]; dup {
			return fmt.Errorf("%s player %s: %w", t.Name, p.Number, ErrDuplicateNumber)
		}
		seen[p.Number] = struct{}{}
		if !p.Role.Valid() {
			return fmt.Errorf("%s player %s role %q: %w", t.Name, p.Number, p.Role, ErrInvalidRole)
		}
		if p.IsLibero != (p.Role == RoleLibero) {
			return fmt.Errorf("%s player %s: %w", t.Name, p.Number, ErrLiberoMismatch)
		}
		if p.IsCaptain {
			captains++
		}
	}
	if captains > 1 {
		return fmt.Errorf("%s: %w", t.Name, ErrManyCaptains)
	}
	if len(t.Players) < MinPlayers {
		return fmt.Errorf("%s has %d players: %w", t.Name, len(t.Players), ErrTooFewPlayers)
	}
	return nil
}

func (t Team) indexOf(number string) int {
	for i, p := range t.Players {
		if p.Number == number {
			return i
		}
	}
	return -1
}
