package simulation

import (
	"fmt"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/match"
	"github.com/okian/courtside/internal/domain/types"
)

// CheckState returns every rule the observed view breaks.
func CheckState(v service.View) []string {
	var out []string
	m := v.Match
	if len(m.Sets) > match.MaxSets {
		out = append(out, fmt.Sprintf("%d sets played", len(m.Sets)))
	}

	var won match.SetsWon
	for _, set := range m.Sets {
		winner, decided := match.SetWinner(set.Number, set.Score)
		switch {
		case set.Finished && (!decided || winner != set.Winner):
			out = append(out, fmt.Sprintf("set %d finished at %d-%d for %s",
				set.Number, set.Score.TeamA, set.Score.TeamB, set.Winner))
		case !set.Finished && decided:
			out = append(out, fmt.Sprintf("set %d still open at %d-%d",
				set.Number, set.Score.TeamA, set.Score.TeamB))
		}
		if set.Finished {
			switch set.Winner {
			case types.SideA:
				won.A++
			case types.SideB:
				won.B++
			}
		}
		for _, side := range types.Sides {
			out = append(out, checkLineup(v, set, side)...)
		}
	}

	if won != m.SetsWon {
		out = append(out, fmt.Sprintf("sets won %d-%d but finished sets give %d-%d",
			m.SetsWon.A, m.SetsWon.B, won.A, won.B))
	}
	if m.SetsWon.A > match.SetsToWin || m.SetsWon.B > match.SetsToWin {
		out = append(out, fmt.Sprintf("sets won %d-%d", m.SetsWon.A, m.SetsWon.B))
	}
	return out
}

func checkLineup(v service.View, set match.Set, side types.Side) []string {
	var out []string
	team := v.Match.Team(side)
	l := set.Lineup(side)
	seen := make(map[string]bool, lineup.Slots)
	for _, p := range lineup.Positions {
		n := l.At(p)
		if n == "" {
			continue
		}
		if seen[n] {
			out = append(out, fmt.Sprintf("set %d team %s: player %s twice on court", set.Number, side, n))
		}
		seen[n] = true
		if team.IsLibero(n) && p.IsFrontRow() {
			out = append(out, fmt.Sprintf("set %d team %s: libero %s at %s", set.Number, side, n, p))
		}
	}

	if ex := set.Exchange(side); ex != nil {
		if !l.OnCourt(ex.LiberoNumber) {
			out = append(out, fmt.Sprintf("set %d team %s: exchanged libero %s off court", set.Number, side, ex.LiberoNumber))
		}
		if l.OnCourt(ex.ReplacedPlayerNumber) {
			out = append(out, fmt.Sprintf("set %d team %s: replaced player %s on court", set.Number, side, ex.ReplacedPlayerNumber))
		}
	}
	if limit := v.MaxSubstitutions; limit > 0 && set.Substitutions(side) > limit {
		out = append(out, fmt.Sprintf("set %d team %s: %d substitutions", set.Number, side, set.Substitutions(side)))
	}
	return out
}

// CheckFinal returns every rule a finished match breaks.
func CheckFinal(v service.View) []string {
	m := v.Match
	if !v.Winner.Valid() {
		return []string{fmt.Sprintf("no winner at sets %d-%d", m.SetsWon.A, m.SetsWon.B)}
	}
	var out []string
	if got := m.SetsWon.Of(v.Winner); got != match.SetsToWin {
		out = append(out, fmt.Sprintf("winner %s has %d sets", v.Winner, got))
	}
	if got := m.SetsWon.Of(v.Winner.Other()); got >= match.SetsToWin {
		out = append(out, fmt.Sprintf("loser %s has %d sets", v.Winner.Other(), got))
	}
	if n := len(m.Sets); n < match.SetsToWin || n > match.MaxSets {
		out = append(out, fmt.Sprintf("%d sets played", n))
	}
	for _, set := range m.Sets {
		if !set.Finished {
			out = append(out, fmt.Sprintf("set %d unfinished", set.Number))
		}
	}
	return out
}
