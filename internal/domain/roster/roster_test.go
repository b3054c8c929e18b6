package roster_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/courtside/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func fullTeam(name string) roster.Team {
	t := roster.DefaultTeam(name, "#ff0000", "#ffffff")
	roles := []roster.Role{
		roster.RoleSetter, roster.RoleOutsideHitter, roster.RoleOutsideHitter,
		roster.RoleMiddleBlocker, roster.RoleMiddleBlocker, roster.RoleOppositeHitter,
	}
	for i, r := range roles {
		var err error
		t, err = t.AddPlayer(roster.Player{Number: fmt.Sprint(i + 1), Role: r})
		if err != nil {
			panic(err)
		}
	}
	return t
}

func TestTeam_AddPlayer(t *testing.T) {
	Convey("Given an empty team", t, func() {
		team := roster.DefaultTeam("Lions", "#000", "#fff")

		Convey("When adding a libero", func() {
			out, err := team.AddPlayer(roster.Player{Number: " 7 ", Role: roster.RoleLibero})

			Convey("Then the number is trimmed and the libero flag is derived", func() {
				So(err, ShouldBeNil)
				p, ok := out.Player("7")
				So(ok, ShouldBeTrue)
				So(p.IsLibero, ShouldBeTrue)
				So(out.IsLibero("7"), ShouldBeTrue)
				So(out.Liberos(), ShouldResemble, []string{"7"})
			})

			Convey("And the original team is untouched", func() {
				So(team.Players, ShouldBeEmpty)
			})
		})

		Convey("When a non-libero role claims the libero flag", func() {
			out, err := team.AddPlayer(roster.Player{Number: "3", Role: roster.RoleSetter, IsLibero: true})

			Convey("Then the flag follows the role", func() {
				So(err, ShouldBeNil)
				So(out.IsLibero("3"), ShouldBeFalse)
			})
		})

		Convey("When adding invalid numbers", func() {
			_, errEmpty := team.AddPlayer(roster.Player{Number: "", Role: roster.RoleSetter})
			_, errLong := team.AddPlayer(roster.Player{Number: "123", Role: roster.RoleSetter})
			_, errAlpha := team.AddPlayer(roster.Player{Number: "1a", Role: roster.RoleSetter})

			Convey("Then they are rejected", func() {
				So(errors.Is(errEmpty, roster.ErrInvalidNumber), ShouldBeTrue)
				So(errors.Is(errLong, roster.ErrInvalidNumber), ShouldBeTrue)
				So(errors.Is(errAlpha, roster.ErrInvalidNumber), ShouldBeTrue)
			})
		})

		Convey("When adding an unknown role", func() {
			_, err := team.AddPlayer(roster.Player{Number: "4", Role: "coach"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, roster.ErrInvalidRole), ShouldBeTrue)
			})
		})

		Convey("When adding a duplicate number", func() {
			withOne, err := team.AddPlayer(roster.Player{Number: "4", Role: roster.RoleSetter})
			So(err, ShouldBeNil)
			_, err = withOne.AddPlayer(roster.Player{Number: "4", Role: roster.RoleMiddleBlocker})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, roster.ErrDuplicateNumber), ShouldBeTrue)
			})
		})
	})
}

func TestTeam_Captain(t *testing.T) {
	Convey("Given a full team", t, func() {
		team := fullTeam("Lions")

		Convey("When assigning the captain twice", func() {
			first, err := team.SetCaptain("2")
			So(err, ShouldBeNil)
			second, err := first.SetCaptain("5")
			So(err, ShouldBeNil)

			Convey("Then only the latest captain keeps the armband", func() {
				c, ok := second.Captain()
				So(ok, ShouldBeTrue)
				So(c, ShouldEqual, "5")
				p, _ := second.Player("2")
				So(p.IsCaptain, ShouldBeFalse)
				So(second.Validate(), ShouldBeNil)
			})
		})

		Convey("When adding a player flagged as captain", func() {
			withCaptain, _ := team.SetCaptain("1")
			out, err := withCaptain.AddPlayer(roster.Player{Number: "12", Role: roster.RoleSetter, IsCaptain: true})

			Convey("Then the previous captain is cleared", func() {
				So(err, ShouldBeNil)
				c, _ := out.Captain()
				So(c, ShouldEqual, "12")
			})
		})

		Convey("When naming an unknown captain", func() {
			_, err := team.SetCaptain("99")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, roster.ErrUnknownPlayer), ShouldBeTrue)
			})
		})
	})
}

func TestTeam_Validate(t *testing.T) {
	Convey("Given rosters of various shapes", t, func() {
		Convey("When a team has six valid players", func() {
			So(fullTeam("Lions").Validate(), ShouldBeNil)
		})

		Convey("When a team has five players", func() {
			team, err := fullTeam("Lions").RemovePlayer("6")
			So(err, ShouldBeNil)

			Convey("Then it cannot start a match", func() {
				So(errors.Is(team.Validate(), roster.ErrTooFewPlayers), ShouldBeTrue)
			})
		})

		Convey("When a hand-built roster repeats a number", func() {
			team := fullTeam("Lions")
			team.Players[1].Number = "1"

			Convey("Then it is rejected", func() {
				So(errors.Is(team.Validate(), roster.ErrDuplicateNumber), ShouldBeTrue)
			})
		})

		Convey("When a hand-built roster has two captains", func() {
			team := fullTeam("Lions")
			team.Players[0].IsCaptain = true
			team.Players[1].IsCaptain = true

			Convey("Then it is rejected", func() {
				So(errors.Is(team.Validate(), roster.ErrManyCaptains), ShouldBeTrue)
			})
		})

		Convey("When a hand-built libero flag disagrees with the role", func() {
			team := fullTeam("Lions")
			team.Players[0].IsLibero = true

			Convey("Then it is rejected", func() {
				So(errors.Is(team.Validate(), roster.ErrLiberoMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestTeam_UpdatePlayer(t *testing.T) {
	Convey("Given a full team", t, func() {
		team := fullTeam("Lions")

		Convey("When renumbering a player", func() {
			out, err := team.UpdatePlayer("6", roster.Player{Number: "16", Role: roster.RoleLibero})

			Convey("Then the entry is replaced in place", func() {
				So(err, ShouldBeNil)
				_, old := out.Player("6")
				So(old, ShouldBeFalse)
				So(out.IsLibero("16"), ShouldBeTrue)
				So(len(out.Players), ShouldEqual, 6)
			})
		})

		Convey("When renumbering onto an existing number", func() {
			_, err := team.UpdatePlayer("6", roster.Player{Number: "1", Role: roster.RoleSetter})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, roster.ErrDuplicateNumber), ShouldBeTrue)
			})
		})
	})
}
