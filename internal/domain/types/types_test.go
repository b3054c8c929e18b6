package types_test

import (
	"encoding/json"
	"errors"
	"testing"

	types "github.com/okian/courtside/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSide(t *testing.T) {
	Convey("Given the two sides", t, func() {
		Convey("Then each is the other's opponent", func() {
			So(types.SideA.Other(), ShouldEqual, types.SideB)
			So(types.SideB.Other(), ShouldEqual, types.SideA)
			So(types.SideNone.Other(), ShouldEqual, types.SideNone)
		})

		Convey("When parsing side names", func() {
			a, errA := types.ParseSide("a")
			b, errB := types.ParseSide("B")
			_, errC := types.ParseSide("C")

			Convey("Then known names parse and unknown names fail", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldEqual, types.SideA)
				So(b, ShouldEqual, types.SideB)
				So(errors.Is(errC, types.ErrUnknownValue), ShouldBeTrue)
			})
		})

		Convey("When encoding a side inside JSON", func() {
			in := struct {
				Serving types.Side `json:"servingTeam"`
			}{Serving: types.SideB}
			raw, err := json.Marshal(in)
			So(err, ShouldBeNil)

			Convey("Then it is written as a letter and read back", func() {
				So(string(raw), ShouldEqual, `{"servingTeam":"B"}`)
				var out struct {
					Serving types.Side `json:"servingTeam"`
				}
				So(json.Unmarshal(raw, &out), ShouldBeNil)
				So(out.Serving, ShouldEqual, types.SideB)
			})
		})
	})
}

func TestStep(t *testing.T) {
	Convey("Given the top-level steps", t, func() {
		Convey("Then they use the persisted names", func() {
			So(types.StepSetup.String(), ShouldEqual, "setup")
			So(types.StepCoinToss.String(), ShouldEqual, "coinToss")
			So(types.StepMatch.String(), ShouldEqual, "match")
		})

		Convey("When decoding an unknown step", func() {
			var s types.Step
			err := s.UnmarshalText([]byte("scoreboard"))

			Convey("Then it fails", func() {
				So(errors.Is(err, types.ErrUnknownValue), ShouldBeTrue)
			})
		})

		Convey("When round-tripping through text", func() {
			raw, err := types.StepCoinToss.MarshalText()
			So(err, ShouldBeNil)
			var s types.Step
			So(s.UnmarshalText(raw), ShouldBeNil)

			Convey("Then the value is preserved", func() {
				So(s, ShouldEqual, types.StepCoinToss)
			})
		})
	})
}
