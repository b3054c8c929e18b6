package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return -1
	}
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.matchesFinished.Inc()

			Convey("Then metric names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_matches_finished_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When passing empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "courtside")
				So(manager.subsystem, ShouldEqual, "referee")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMatchMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording points", func() {
			before := value(globalManager.pointsScored.WithLabelValues("A"))
			RecordPointScored("A")
			RecordPointScored("A")

			Convey("Then the team counter grows", func() {
				So(value(globalManager.pointsScored.WithLabelValues("A")), ShouldEqual, before+2)
			})
		})

		Convey("When recording libero exchanges by kind", func() {
			before := value(globalManager.liberoExchanges.WithLabelValues("auto"))
			RecordLiberoExchange("auto")

			Convey("Then only that kind grows", func() {
				So(value(globalManager.liberoExchanges.WithLabelValues("auto")), ShouldEqual, before+1)
			})
		})

		Convey("When recording set results", func() {
			before := value(globalManager.setsFinished.WithLabelValues("5"))
			RecordSetFinished(5)

			Convey("Then the set number is the label", func() {
				So(value(globalManager.setsFinished.WithLabelValues("5")), ShouldEqual, before+1)
			})
		})

		Convey("When recording the rest of the match metrics", func() {
			So(func() {
				RecordPointRemoved("B")
				RecordRotation("service")
				RecordRotation("manual")
				RecordSubstitution("B")
				RecordMatchFinished()
				RecordCoinToss("random")
				RecordRejected("score_point")
				RecordDuplicateCommand()
			}, ShouldNotPanic)
		})
	})
}

func TestInfrastructureMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording persistence metrics", func() {
			before := value(globalManager.persistErrors.WithLabelValues("referee_step"))
			RecordPersistError("referee_step")

			Convey("Then errors are counted per key", func() {
				So(value(globalManager.persistErrors.WithLabelValues("referee_step")), ShouldEqual, before+1)
			})

			Convey("And the other persistence metrics record", func() {
				So(func() {
					RecordPersistWrite("sqlite")
					RecordPersistLatency("sqlite", "save", 1.5)
					RecordStateRecovered("referee_match_data")
				}, ShouldNotPanic)
			})
		})

		Convey("When updating queue gauges", func() {
			UpdateQueueCapacity(64)
			UpdateQueueSize(3)

			Convey("Then the gauges hold the last value", func() {
				So(value(globalManager.queueCapacity), ShouldEqual, 64)
				So(value(globalManager.queueSize), ShouldEqual, 3)
			})
		})

		Convey("When recording queue, worker and HTTP metrics", func() {
			So(func() {
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				RecordHTTPRequest("/points/{side}", "POST", "200")
				RecordHTTPRequestDuration("/points/{side}", "POST", "200", 0.4)
				RecordErrorByEndpoint("/points/{side}", "POST", "validation")
			}, ShouldNotPanic)
		})

		Convey("When updating system gauges", func() {
			UpdateSystemMemoryUsage(2048)
			UpdateSystemGoroutineCount(12)
			UpdateIdempotencyKeys(5)
			RecordSystemGCPauseTime(0.3)

			Convey("Then the gauges hold the last value", func() {
				So(value(globalManager.systemMemoryUsage), ShouldEqual, 2048)
				So(value(globalManager.systemGoroutineCount), ShouldEqual, 12)
				So(value(globalManager.idempotencyKeys), ShouldEqual, 5)
			})
		})

		Convey("When gathering the registry", func() {
			RecordHTTPRequest("/match", "GET", "200")
			families, err := GetRegistry().Gather()

			Convey("Then courtside metrics are exposed", func() {
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "courtside_referee_http_requests_total")
			})
		})
	})
}
