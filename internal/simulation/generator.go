package simulation

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/roster"
)

// Roster generation ranges.
const (
	minRegulars = 6
	maxRegulars = 12
	maxLiberos  = 2
	maxNumber   = 99
)

var courtRoles = []roster.Role{ //nolint:gochecknoglobals // fixed lookup table
	roster.RoleSetter,
	roster.RoleOutsideHitter,
	roster.RoleOppositeHitter,
	roster.RoleMiddleBlocker,
}

var palette = []string{"#1d4ed8", "#dc2626", "#16a34a", "#f59e0b", "#7c3aed", "#0f172a"} //nolint:gochecknoglobals // fixed lookup table

// generator owns every random choice of a run so a seed replays it exactly.
type generator struct {
	rnd      *rand.Rand
	minBench int
}

func newGenerator(seed int64, minBench int) *generator {
	minBench = max(0, min(minBench, maxRegulars-minRegulars))
	return &generator{
		rnd:      rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible fuzzing, not security
		minBench: minBench,
	}
}

// key returns a fresh idempotency key.
func (g *generator) key() string {
	return uuid.NewString()
}

func (g *generator) chance(p float64) bool {
	return g.rnd.Float64() < p
}

func (g *generator) pick(from []string) string {
	return from[g.rnd.Intn(len(from))]
}

// team builds a valid roster with distinct shirt numbers, at least six
// regular players plus the configured bench, up to two liberos and one captain.
func (g *generator) team(name string) roster.Team {
	t := roster.DefaultTeam(name, g.pick(palette), "#ffffff")
	least := minRegulars + g.minBench
	regulars := least + g.rnd.Intn(maxRegulars-least+1)
	liberos := g.rnd.Intn(maxLiberos + 1)

	numbers := g.rnd.Perm(maxNumber)[:regulars+liberos]
	for i, n := range numbers {
		p := roster.Player{Number: strconv.Itoa(n + 1)}
		if i < liberos {
			p.Role, p.IsLibero = roster.RoleLibero, true
		} else {
			p.Role = courtRoles[g.rnd.Intn(len(courtRoles))]
		}
		t.Players = append(t.Players, p)
	}
	t.Players[liberos+g.rnd.Intn(regulars)].IsCaptain = true
	return t
}

// startingSix picks six distinct regular players of t in slot order.
func (g *generator) startingSix(t roster.Team) ([]string, error) {
	var regulars []string
	for _, p := range t.Players {
		if !p.IsLibero {
			regulars = append(regulars, p.Number)
		}
	}
	if len(regulars) < minRegulars {
		return nil, fmt.Errorf("%s has %d regular players", t.Name, len(regulars))
	}
	g.rnd.Shuffle(len(regulars), func(i, j int) { regulars[i], regulars[j] = regulars[j], regulars[i] })
	return regulars[:minRegulars], nil
}
