package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtside/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When recording a key for the first time", func() {
			d := dedupe.NewInMemoryDeduper()
			seen := d.SeenAndRecord(ctx, "point-A-17")

			Convey("Then it is new and remembered", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same command is sent twice", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "point-A-17")
			seen := d.SeenAndRecord(ctx, "  point-A-17 ")

			Convey("Then the second is a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the key is blank or too long", func() {
			d := dedupe.NewInMemoryDeduper()
			long := strings.Repeat("k", 256)

			Convey("Then it is never recorded", func() {
				So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "   "), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, long), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, long), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a rejected command is unrecorded", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "start-set")
			d.Unrecord(ctx, "start-set")

			Convey("Then the key can be used again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "start-set"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown key", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "a")
			d.Unrecord(ctx, "b")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a deduper bounded to three keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"k1", "k2", "k3"} {
			d.SeenAndRecord(ctx, k)
		}

		Convey("When a fourth key arrives", func() {
			d.SeenAndRecord(ctx, "k4")

			Convey("Then the oldest is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
			})
		})

		Convey("When a middle key is unrecorded first", func() {
			d.Unrecord(ctx, "k2")
			d.SeenAndRecord(ctx, "k4")

			Convey("Then no eviction is needed", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many keys are recorded", func() {
			for i := 0; i < 2000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("cmd-%d", i))
			}

			Convey("Then all are kept", func() {
				So(d.Size(), ShouldEqual, 2000)
				So(d.SeenAndRecord(ctx, "cmd-0"), ShouldBeTrue)
			})
		})
	})
}

func TestConcurrentRecord(t *testing.T) {
	Convey("Given many goroutines sending the same command", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		var applied atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "score-B") {
					applied.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one applies it", func() {
			So(applied.Load(), ShouldEqual, 1)
		})
	})
}
