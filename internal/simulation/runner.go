package simulation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/cointoss"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
)

var choices = []cointoss.Choice{cointoss.ChoiceService, cointoss.ChoiceReception, cointoss.ChoiceCourt} //nolint:gochecknoglobals // fixed lookup table

// Run plays cfg.Matches complete matches and checks every state on the way.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	logger.Get().Info(ctx, "starting courtside rules simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("matches", cfg.Matches),
		logger.Any("seed", cfg.Seed),
		logger.Int("maxRallies", cfg.MaxRallies),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	logger.Get().Info(ctx, "checking service health")
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")

	d := &driver{
		cfg:    cfg,
		client: client,
		gen:    newGenerator(cfg.Seed, cfg.MinBench),
		stats:  stats,
		log:    logger.Get().Named("simulation"),
	}
	for i := 0; i < cfg.Matches; i++ {
		if err := d.playMatch(ctx); err != nil {
			d.finish(stats)
			return stats, fmt.Errorf("match %d (seed %d): %w", i+1, cfg.Seed, err)
		}
		stats.Matches++
	}

	d.finish(stats)
	logger.Get().Info(ctx, "simulation completed successfully")
	return stats, nil
}

// driver plays one match at a time through the API.
type driver struct {
	cfg    *Config
	client *Client
	gen    *generator
	stats  *Stats
	log    logger.Logger
	view   service.View
}

func (d *driver) playMatch(ctx context.Context) error {
	if _, err := d.send(ctx, http.MethodPost, "/match/reset?confirm=true", nil); err != nil {
		return err
	}
	teams := map[string]any{"teamA": d.gen.team("Home"), "teamB": d.gen.team("Away")}
	if _, err := d.send(ctx, http.MethodPost, "/setup/teams", teams); err != nil {
		return err
	}
	if _, err := d.send(ctx, http.MethodPost, "/setup/confirm", nil); err != nil {
		return err
	}

	for rallies := 0; !d.view.Winner.Valid(); {
		if rallies >= d.cfg.MaxRallies {
			return fmt.Errorf("%w after %d rallies", ErrNoProgress, rallies)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.view.Step == types.StepCoinToss {
			if err := d.toss(ctx); err != nil {
				return err
			}
			continue
		}
		set, ok := d.view.Match.Current()
		if !ok {
			return fmt.Errorf("%w: no current set at step %s", ErrRuleViolation, d.view.Step)
		}
		if !set.Started {
			if err := d.startSet(ctx); err != nil {
				return err
			}
			continue
		}
		if err := d.rally(ctx); err != nil {
			return err
		}
		rallies++
	}

	if problems := CheckFinal(d.view); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrRuleViolation, strings.Join(problems, "; "))
	}
	d.log.Info(ctx, "match finished",
		logger.String("matchId", d.view.Match.ID),
		logger.String("winner", d.view.Winner.String()),
		logger.Int("setsA", d.view.Match.SetsWon.A),
		logger.Int("setsB", d.view.Match.SetsWon.B))
	return nil
}

func (d *driver) toss(ctx context.Context) error {
	if _, err := d.send(ctx, http.MethodPost, "/cointoss/random", nil); err != nil {
		return err
	}
	choice := choices[d.gen.rnd.Intn(len(choices))]
	_, err := d.send(ctx, http.MethodPost, "/cointoss/choice", map[string]any{"choice": choice})
	return err
}

func (d *driver) startSet(ctx context.Context) error {
	for _, side := range types.Sides {
		six, err := d.gen.startingSix(d.view.Match.Team(side))
		if err != nil {
			return err
		}
		for i, p := range lineup.Positions {
			path := fmt.Sprintf("/lineup/%s/%d", side, int(p))
			if _, err := d.send(ctx, http.MethodPut, path, map[string]any{"number": six[i]}); err != nil {
				return err
			}
		}
	}
	if _, err := d.send(ctx, http.MethodPost, "/sets/start", nil); err != nil {
		return err
	}
	d.stats.Sets++
	return nil
}

// rally optionally interleaves operator corrections and bench moves before
// awarding one point.
func (d *driver) rally(ctx context.Context) error {
	side := types.Sides[d.gen.rnd.Intn(len(types.Sides))]

	if d.gen.chance(d.cfg.SubRate) {
		if err := d.substitute(ctx, side); err != nil {
			return err
		}
	}
	if d.gen.chance(d.cfg.LiberoRate) {
		if err := d.liberoMove(ctx, side); err != nil {
			return err
		}
	}
	if d.gen.chance(d.cfg.UndoRate) {
		if err := d.undo(ctx, side); err != nil {
			return err
		}
	}

	path := "/points/" + side.String()
	key := d.gen.key()
	v, err := d.command(ctx, http.MethodPost, path, nil, key)
	if err != nil {
		return err
	}
	d.stats.Rallies++

	if d.gen.chance(d.cfg.ReplayRate) {
		replayed, err := d.command(ctx, http.MethodPost, path, nil, key)
		if err != nil {
			return err
		}
		d.stats.Replays++
		if !reflect.DeepEqual(v, replayed) {
			return fmt.Errorf("%w: replayed point changed the match", ErrRuleViolation)
		}
	}
	return nil
}

// undo takes back a point and awards it again, or rotates one step back
// and forward.
func (d *driver) undo(ctx context.Context, side types.Side) error {
	set, _ := d.view.Match.Current()
	if set.Score.Of(side) > 0 && d.gen.chance(0.5) {
		ok, err := d.send(ctx, http.MethodDelete, "/points/"+side.String(), nil)
		if err != nil || !ok {
			return err
		}
		d.stats.PointsRemoved++
		_, err = d.send(ctx, http.MethodPost, "/points/"+side.String(), nil)
		return err
	}
	for _, dir := range []lineup.Direction{lineup.Clockwise, lineup.CounterClockwise} {
		if _, err := d.send(ctx, http.MethodPost, "/rotate/"+side.String()+"?direction="+string(dir), nil); err != nil {
			return err
		}
	}
	return nil
}

// substitute swaps a random regular player for a random eligible bench
// player. The service may still refuse it, e.g. past the limit.
func (d *driver) substitute(ctx context.Context, side types.Side) error {
	set, _ := d.view.Match.Current()
	team := d.view.Match.Team(side)
	l := set.Lineup(side)
	ex := set.Exchange(side)

	var court, bench []string
	for _, p := range team.Players {
		switch {
		case p.IsLibero:
		case l.OnCourt(p.Number):
			court = append(court, p.Number)
		case ex != nil && ex.ReplacedPlayerNumber == p.Number:
		default:
			bench = append(bench, p.Number)
		}
	}
	if len(court) == 0 || len(bench) == 0 {
		return nil
	}
	body := map[string]any{"out": d.gen.pick(court), "in": d.gen.pick(bench)}
	ok, err := d.send(ctx, http.MethodPost, "/substitutions/"+side.String(), body)
	if ok {
		d.stats.Substitutions++
	}
	return err
}

// liberoMove brings a libero into the back row, takes the active one out,
// or swaps one libero for the other.
func (d *driver) liberoMove(ctx context.Context, side types.Side) error {
	set, _ := d.view.Match.Current()
	team := d.view.Match.Team(side)
	liberos := team.Liberos()
	if len(liberos) == 0 {
		return nil
	}
	l := set.Lineup(side)

	var out, in string
	if ex := set.Exchange(side); ex != nil {
		out, in = ex.LiberoNumber, ex.ReplacedPlayerNumber
		for _, n := range liberos {
			if n != ex.LiberoNumber && d.gen.chance(0.5) {
				in = n
			}
		}
	} else {
		var back []string
		for _, p := range lineup.Positions {
			if p.IsBackRow() && l.At(p) != "" {
				back = append(back, l.At(p))
			}
		}
		if len(back) == 0 {
			return nil
		}
		out, in = d.gen.pick(back), d.gen.pick(liberos)
	}

	ok, err := d.send(ctx, http.MethodPost, "/substitutions/"+side.String(), map[string]any{"out": out, "in": in})
	if ok {
		d.stats.LiberoMoves++
	}
	return err
}

// send issues a command under a fresh key. ok is false when the service
// refused it under the match rules.
func (d *driver) send(ctx context.Context, method, path string, body any) (bool, error) {
	_, err := d.command(ctx, method, path, body, d.gen.key())
	if IsRejection(err) {
		d.stats.Rejected++
		if d.cfg.Verbose {
			d.log.Info(ctx, "command rejected", logger.String("path", path), logger.Error(err))
		}
		return false, nil
	}
	return err == nil, err
}

// command sends one request and checks the state it returns.
func (d *driver) command(ctx context.Context, method, path string, body any, key string) (service.View, error) {
	v, err := d.client.Command(ctx, method, path, body, key)
	if err != nil {
		return v, err
	}
	if d.cfg.Verbose {
		set, _ := v.Match.Current()
		d.log.Info(ctx, "command applied",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("set", set.Number),
			logger.Int("teamA", set.Score.TeamA),
			logger.Int("teamB", set.Score.TeamB))
	}
	d.stats.States++
	if problems := CheckState(v); len(problems) > 0 {
		return v, fmt.Errorf("%w after %s %s: %s", ErrRuleViolation, method, path, strings.Join(problems, "; "))
	}
	d.view = v
	return v, nil
}

func (d *driver) finish(stats *Stats) {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var ralliesPerSecond float64
	if stats.Duration > 0 {
		ralliesPerSecond = float64(stats.Rallies) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("matches", stats.Matches),
		logger.Int("sets", stats.Sets),
		logger.Int("rallies", stats.Rallies),
		logger.Int("pointsRemoved", stats.PointsRemoved),
		logger.Int("substitutions", stats.Substitutions),
		logger.Int("liberoMoves", stats.LiberoMoves),
		logger.Int("replays", stats.Replays),
		logger.Int("rejected", stats.Rejected),
		logger.Int("statesChecked", stats.States),
		logger.Duration("duration", stats.Duration),
		logger.Float64("ralliesPerSecond", ralliesPerSecond))
}

// IsViolation reports whether err is a broken rule rather than a transport
// or service failure.
func IsViolation(err error) bool {
	return errors.Is(err, ErrRuleViolation)
}
