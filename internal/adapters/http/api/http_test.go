package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtside/internal/adapters/http/api"
	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/match"
	"github.com/okian/courtside/internal/domain/roster"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func team(name string) roster.Team {
	t := roster.DefaultTeam(name, "#000000", "#ffffff")
	for _, n := range []string{"1", "2", "3", "4", "5", "6", "8"} {
		t.Players = append(t.Players, roster.Player{Number: n, Role: roster.RoleOutsideHitter})
	}
	t.Players = append(t.Players, roster.Player{Number: "7", Role: roster.RoleLibero, IsLibero: true})
	return t
}

// fixture is a mux over a real service on a memory store.
type fixture struct {
	mux *http.ServeMux
	svc *service.Service
}

func newFixture() *fixture {
	svc := service.New(service.WithCoinTossDelay(0), service.WithTossSeed(1))
	So(svc.Start(context.Background()), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	return &fixture{mux: mux, svc: svc}
}

func (f *fixture) call(method, path string, body any, key string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		So(json.NewEncoder(&buf).Encode(body), ShouldBeNil)
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set(api.HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func (f *fixture) ok(method, path string, body any) service.View {
	w := f.call(method, path, body, "")
	So(w.Code, ShouldEqual, http.StatusOK)
	var v service.View
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func failure(w *httptest.ResponseRecorder) errorBody {
	var e errorBody
	So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
	return e
}

// toPlay drives the fixture to a started first set with A serving.
func (f *fixture) toPlay() {
	f.ok(http.MethodPost, "/setup/teams", map[string]any{"teamA": team("Lions"), "teamB": team("Tigers")})
	f.ok(http.MethodPost, "/setup/confirm", nil)
	f.ok(http.MethodPost, "/cointoss/winner", map[string]string{"winner": "A"})
	f.ok(http.MethodPost, "/cointoss/choice", map[string]string{"choice": "service"})
	for _, side := range []string{"A", "B"} {
		for i, p := range lineup.Positions {
			f.ok(http.MethodPut, fmt.Sprintf("/lineup/%s/%s", side, p), map[string]string{"number": fmt.Sprint(i + 1)})
		}
	}
	f.ok(http.MethodPost, "/sets/start", nil)
}

func TestMatchFlow(t *testing.T) {
	Convey("Given the API over a fresh service", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)

		Convey("When reading the match", func() {
			v := f.ok(http.MethodGet, "/match", nil)

			Convey("Then setup is shown with default teams", func() {
				So(v.Step, ShouldEqual, types.StepSetup)
				So(v.Match.TeamA.Name, ShouldEqual, "Team A")
				So(v.SetScores, ShouldBeEmpty)
			})
		})

		Convey("When confirming setup with empty rosters", func() {
			w := f.call(http.MethodPost, "/setup/confirm", nil, "")

			Convey("Then the rule violation is a 422 with a readable message", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				e := failure(w)
				So(e.Code, ShouldEqual, "validation")
				So(e.Message, ShouldContainSubstring, "at least 6 players")
			})
		})

		Convey("When building a roster player by player", func() {
			for _, n := range []string{"1", "2", "3", "4", "5", "6"} {
				f.ok(http.MethodPost, "/setup/teams/A/players", map[string]any{"number": n, "role": "setter"})
			}
			f.ok(http.MethodPost, "/setup/teams/A/players", map[string]any{"number": "9", "role": "libero", "isCaptain": true})
			f.ok(http.MethodPut, "/setup/teams/A/players/6", map[string]any{"number": "16", "role": "middleBlocker"})
			f.ok(http.MethodDelete, "/setup/teams/A/players/5", nil)
			v := f.ok(http.MethodPut, "/setup/teams/A/captain", map[string]string{"number": "2"})

			Convey("Then each edit lands and one captain remains", func() {
				got := v.Match.TeamA
				So(got.Players, ShouldHaveLength, 6)
				c, ok := got.Captain()
				So(ok, ShouldBeTrue)
				So(c, ShouldEqual, "2")
				So(got.IsLibero("9"), ShouldBeTrue)
				_, has16 := got.Player("16")
				So(has16, ShouldBeTrue)
				_, has5 := got.Player("5")
				So(has5, ShouldBeFalse)
			})

			Convey("And an unknown captain is a 422", func() {
				w := f.call(http.MethodPut, "/setup/teams/A/captain", map[string]string{"number": "42"}, "")
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When both rosters name two captains", func() {
			a := team("Lions")
			a.Players[0].IsCaptain = true
			a.Players[1].IsCaptain = true
			v := f.ok(http.MethodPost, "/setup/teams", map[string]any{"teamA": a, "teamB": team("Tigers")})

			Convey("Then the last one listed keeps the armband", func() {
				c, _ := v.Match.TeamA.Captain()
				So(c, ShouldEqual, "2")
				So(v.Match.TeamA.Players[0].IsCaptain, ShouldBeFalse)
			})
		})

		Convey("When playing the first rallies", func() {
			f.toPlay()
			v := f.ok(http.MethodPost, "/points/A", nil)
			So(v.Match.Sets[0].Score, ShouldResemble, match.Score{TeamA: 1})

			v = f.ok(http.MethodPost, "/points/B", nil)

			Convey("Then the receiving side scores, rotates and serves", func() {
				set := v.Match.Sets[0]
				So(set.Score, ShouldResemble, match.Score{TeamA: 1, TeamB: 1})
				So(set.ServingTeam, ShouldEqual, types.SideB)
				So(set.LineupB.At(lineup.P1), ShouldEqual, "2")
			})

			Convey("And a point can be taken back", func() {
				v := f.ok(http.MethodDelete, "/points/B", nil)
				So(v.Match.Sets[0].Score, ShouldResemble, match.Score{TeamA: 1})
			})
		})

		Convey("When the same point is posted twice with one key", func() {
			f.toPlay()
			first := f.call(http.MethodPost, "/points/A", nil, "rally-1")
			second := f.call(http.MethodPost, "/points/A", nil, "rally-1")

			Convey("Then it is applied once and the replay is flagged", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(second.Header().Get(api.HeaderReplayed), ShouldEqual, "true")
				var v service.View
				So(json.Unmarshal(second.Body.Bytes(), &v), ShouldBeNil)
				So(v.Match.Sets[0].Score.TeamA, ShouldEqual, 1)
			})
		})

		Convey("When a libero comes on and a regular sub is made", func() {
			f.toPlay()
			v := f.ok(http.MethodPost, "/substitutions/A", map[string]string{"out": "5", "in": "7"})
			So(v.Match.Sets[0].LiberoExchangeA, ShouldNotBeNil)
			v = f.ok(http.MethodPost, "/substitutions/A", map[string]string{"out": "3", "in": "8"})

			Convey("Then only the regular sub is counted", func() {
				So(v.Match.Sets[0].SubstitutionsA, ShouldEqual, 1)
				So(v.MaxSubstitutions, ShouldEqual, match.DefaultMaxSubst)
			})

			Convey("And the bench lists who is off court", func() {
				w := f.call(http.MethodGet, "/bench/A", nil, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"3"`)
				So(w.Body.String(), ShouldContainSubstring, `"5"`)
			})
		})

		Convey("When picking lineup candidates", func() {
			f.ok(http.MethodPost, "/setup/teams", map[string]any{"teamA": team("Lions"), "teamB": team("Tigers")})
			f.ok(http.MethodPost, "/setup/confirm", nil)
			f.ok(http.MethodPost, "/cointoss/random", nil)
			f.ok(http.MethodPost, "/cointoss/choice", map[string]string{"choice": "reception"})
			f.ok(http.MethodPut, "/lineup/B/P1", map[string]string{"number": "1"})
			w := f.call(http.MethodGet, "/lineup/B/P2/candidates", nil, "")

			Convey("Then placed players and the libero are left out", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Players []string `json:"players"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Players, ShouldNotContain, "1")
				So(body.Players, ShouldNotContain, "7")
				So(body.Players, ShouldContain, "2")
			})
		})

		Convey("When resetting", func() {
			f.toPlay()
			f.ok(http.MethodPost, "/points/A", nil)

			Convey("Then the set reset needs confirmation", func() {
				w := f.call(http.MethodPost, "/sets/reset", nil, "")
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				v := f.ok(http.MethodPost, "/sets/reset?confirm=true", nil)
				So(v.Match.Sets[0].Score, ShouldResemble, match.Score{})
				So(v.Match.Sets[0].Started, ShouldBeFalse)
			})

			Convey("And the match reset returns to setup", func() {
				before := f.ok(http.MethodGet, "/match", nil)
				v := f.ok(http.MethodPost, "/match/reset?confirm=1", nil)
				So(v.Step, ShouldEqual, types.StepSetup)
				So(v.Match.ID, ShouldNotEqual, before.Match.ID)
			})
		})
	})
}

func TestBadRequests(t *testing.T) {
	Convey("Given the API over a fresh service", t, func() {
		f := newFixture()
		Reset(f.svc.Stop)

		cases := []struct {
			name   string
			method string
			path   string
			body   string
			status int
		}{
			{"unknown side", http.MethodPost, "/points/C", "", http.StatusBadRequest},
			{"unknown position", http.MethodPut, "/lineup/A/P7", `{"number":"1"}`, http.StatusBadRequest},
			{"broken JSON", http.MethodPost, "/setup/teams", `{"teamA":`, http.StatusBadRequest},
			{"unknown field", http.MethodPost, "/cointoss/choice", `{"pick":"court"}`, http.StatusBadRequest},
			{"bad confirm flag", http.MethodPost, "/match/reset?confirm=maybe", "", http.StatusBadRequest},
			{"wrong step", http.MethodPost, "/sets/start", "", http.StatusUnprocessableEntity},
			{"bad direction", http.MethodPost, "/rotate/A?direction=up", "", http.StatusUnprocessableEntity},
			{"wrong method", http.MethodDelete, "/match", "", http.StatusMethodNotAllowed},
		}

		for _, tc := range cases {
			Convey("When sending a request with "+tc.name, func() {
				req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
				w := httptest.NewRecorder()
				f.mux.ServeHTTP(w, req)

				Convey("Then it is refused", func() {
					So(w.Code, ShouldEqual, tc.status)
				})
			})
		}
	})
}

// stubDeps fails every command with err.
type stubDeps struct {
	err error
}

func (s stubDeps) Snapshot() (service.View, error) { return service.View{}, s.err }
func (s stubDeps) Candidates(types.Side, lineup.Position) ([]string, error) {
	return nil, s.err
}
func (s stubDeps) Bench(types.Side) ([]string, error) { return nil, s.err }
func (s stubDeps) Do(context.Context, string, service.Command) (service.View, error) {
	return service.View{}, s.err
}
func (s stubDeps) TossCoin(context.Context, string) (service.View, error) {
	return service.View{}, s.err
}

type stubStats map[string]interface{}

func (s stubStats) GetStats() map[string]interface{} { return s }

func TestErrorMapping(t *testing.T) {
	Convey("Given handlers whose service fails", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("%w: referee_step: disk full", match.ErrSaveFailed), http.StatusInternalServerError, "save_failed"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "not_started"},
			{service.ErrTossInProgress, http.StatusConflict, "toss_in_progress"},
			{match.ErrSetNotStarted, http.StatusUnprocessableEntity, "validation"},
		}

		for _, tc := range cases {
			Convey("When the error is "+tc.err.Error(), func() {
				mux := http.NewServeMux()
				api.NewServer(stubDeps{err: tc.err}, stubStats{}).Register(mux)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/points/A", nil))

				Convey("Then it maps to its status and code", func() {
					So(w.Code, ShouldEqual, tc.status)
					e := failure(w)
					So(e.Code, ShouldEqual, tc.code)
					if tc.code == "save_failed" {
						So(e.Message, ShouldNotContainSubstring, "disk full")
					}
				})
			})
		}
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := http.NewServeMux()
		api.NewServer(stubDeps{}, stubStats{"started": true, "step": "match"}).Register(mux)

		Convey("When scraping health after a request", func() {
			mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/match", nil))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then Prometheus metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "courtside_referee_http_requests_total")
			})
		})

		Convey("When requesting stats", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the provider's stats are returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var stats map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["step"], ShouldEqual, "match")
			})
		})
	})
}
