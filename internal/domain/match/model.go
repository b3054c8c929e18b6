package match

import (
	"github.com/okian/courtside/internal/domain/cointoss"
	"github.com/okian/courtside/internal/domain/libero"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/types"
)

// Match rules.
const (
	SetsToWin       = 3
	MaxSets         = 5
	DecidingSet     = 5
	RegularTarget   = 25
	DecidingTarget  = 15
	MinWinMargin    = 2
	DefaultMaxSubst = 6
)

// Score is the per-set point tally.
type Score struct {
	TeamA int `json:"teamA"`
	TeamB int `json:"teamB"`
}

// Of returns the points of side.
func (s Score) Of(side types.Side) int {
	switch side {
	case types.SideA:
		return s.TeamA
	case types.SideB:
		return s.TeamB
	}
	return 0
}

func (s Score) with(side types.Side, v int) Score {
	switch side {
	case types.SideA:
		s.TeamA = v
	case types.SideB:
		s.TeamB = v
	}
	return s
}

// SetsWon is the match-level tally.
type SetsWon struct {
	A int `json:"A"`
	B int `json:"B"`
}

// Of returns the sets won by side.
func (s SetsWon) Of(side types.Side) int {
	switch side {
	case types.SideA:
		return s.A
	case types.SideB:
		return s.B
	}
	return 0
}

func (s SetsWon) with(side types.Side, v int) SetsWon {
	switch side {
	case types.SideA:
		s.A = v
	case types.SideB:
		s.B = v
	}
	return s
}

// Target is the points needed to win set number n.
func Target(n int) int {
	if n == DecidingSet {
		return DecidingTarget
	}
	return RegularTarget
}

// SetWinner evaluates the win condition for set number n at score s.
func SetWinner(n int, s Score) (types.Side, bool) {
	t := Target(n)
	switch {
	case s.TeamA >= t && s.TeamA-s.TeamB >= MinWinMargin:
		return types.SideA, true
	case s.TeamB >= t && s.TeamB-s.TeamA >= MinWinMargin:
		return types.SideB, true
	}
	return types.SideNone, false
}

// Set is one game of the match.
type Set struct {
	Number           int              `json:"number"`
	LineupA          lineup.Lineup    `json:"lineupA"`
	LineupB          lineup.Lineup    `json:"lineupB"`
	Score            Score            `json:"score"`
	ServingTeam      types.Side       `json:"servingTeam"`
	FirstServingTeam types.Side       `json:"firstServingTeam"`
	Started          bool             `json:"started"`
	Finished         bool             `json:"finished"`
	Winner           types.Side       `json:"winner,omitempty"`
	LiberoExchangeA  *libero.Exchange `json:"liberoExchangeA,omitempty"`
	LiberoExchangeB  *libero.Exchange `json:"liberoExchangeB,omitempty"`
	SubstitutionsA   int              `json:"substitutionsA"`
	SubstitutionsB   int              `json:"substitutionsB"`
}

func newSet(number int, server types.Side) Set {
	return Set{Number: number, ServingTeam: server, FirstServingTeam: server}
}

// Lineup returns side's lineup.
func (s Set) Lineup(side types.Side) lineup.Lineup {
	if side == types.SideB {
		return s.LineupB
	}
	return s.LineupA
}

// Exchange returns side's active libero exchange, nil when none.
func (s Set) Exchange(side types.Side) *libero.Exchange {
	if side == types.SideB {
		return s.LiberoExchangeB
	}
	return s.LiberoExchangeA
}

// Substitutions returns the counted substitutions made by side.
func (s Set) Substitutions(side types.Side) int {
	if side == types.SideB {
		return s.SubstitutionsB
	}
	return s.SubstitutionsA
}

// Complete reports whether both lineups are fully configured.
func (s Set) Complete() bool { return s.LineupA.IsComplete() && s.LineupB.IsComplete() }

func (s Set) withLineup(side types.Side, l lineup.Lineup, ex *libero.Exchange) Set {
	if side == types.SideB {
		s.LineupB, s.LiberoExchangeB = l, ex
	} else {
		s.LineupA, s.LiberoExchangeA = l, ex
	}
	return s
}

func (s Set) withSubstitutions(side types.Side, n int) Set {
	if side == types.SideB {
		s.SubstitutionsB = n
	} else {
		s.SubstitutionsA = n
	}
	return s
}

func (s Set) clone() Set {
	out := s
	if s.LiberoExchangeA != nil {
		ex := *s.LiberoExchangeA
		out.LiberoExchangeA = &ex
	}
	if s.LiberoExchangeB != nil {
		ex := *s.LiberoExchangeB
		out.LiberoExchangeB = &ex
	}
	return out
}

// Match is the whole referee sheet.
type Match struct {
	ID           string           `json:"id"`
	TeamA        roster.Team      `json:"teamA"`
	TeamB        roster.Team      `json:"teamB"`
	CoinToss     *cointoss.Result `json:"coinToss,omitempty"`
	DecidingToss *cointoss.Result `json:"decidingToss,omitempty"`
	TossWinner   types.Side       `json:"tossWinner,omitempty"`
	Sets         []Set            `json:"sets"`
	CurrentSet   int              `json:"currentSet"`
	SetsWon      SetsWon          `json:"setsWon"`
}

// NewMatch returns an empty match with default rosters.
func NewMatch(id string) Match {
	return Match{
		ID:    id,
		TeamA: roster.DefaultTeam("Team A", "#1d4ed8", "#ffffff"),
		TeamB: roster.DefaultTeam("Team B", "#dc2626", "#ffffff"),
		Sets:  []Set{},
	}
}

// Team returns side's roster.
func (m Match) Team(side types.Side) roster.Team {
	if side == types.SideB {
		return m.TeamB
	}
	return m.TeamA
}

// Current returns the set being configured or played.
func (m Match) Current() (Set, bool) {
	if m.CurrentSet < 1 || m.CurrentSet > len(m.Sets) {
		return Set{}, false
	}
	return m.Sets[m.CurrentSet-1], true
}

// Finished reports whether a side has won the match.
func (m Match) Finished() bool {
	return m.SetsWon.A >= SetsToWin || m.SetsWon.B >= SetsToWin
}

// Winner returns the match winner once finished.
func (m Match) Winner() types.Side {
	switch {
	case m.SetsWon.A >= SetsToWin:
		return types.SideA
	case m.SetsWon.B >= SetsToWin:
		return types.SideB
	}
	return types.SideNone
}

// AwaitingDecidingToss reports whether the next set is the deciding set and
// its toss has not happened yet.
func (m Match) AwaitingDecidingToss() bool {
	if m.Finished() || len(m.Sets) != DecidingSet-1 {
		return false
	}
	last := m.Sets[len(m.Sets)-1]
	return last.Finished
}

// Clone returns a deep copy.
func (m Match) Clone() Match {
	out := m
	out.TeamA = m.TeamA.Clone()
	out.TeamB = m.TeamB.Clone()
	if m.CoinToss != nil {
		r := *m.CoinToss
		out.CoinToss = &r
	}
	if m.DecidingToss != nil {
		r := *m.DecidingToss
		out.DecidingToss = &r
	}
	if m.Sets != nil {
		out.Sets = make([]Set, len(m.Sets))
		for i, s := range m.Sets {
			out.Sets[i] = s.clone()
		}
	}
	return out
}

func (m Match) withTeam(side types.Side, t roster.Team) Match {
	if side == types.SideB {
		m.TeamB = t
	} else {
		m.TeamA = t
	}
	return m
}
