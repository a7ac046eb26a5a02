package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.metricPrefix, ShouldEqual, "test_")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})

			Convey("And the metrics should be registered on the custom registry", func() {
				manager.reloads.WithLabelValues("success").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_reloads_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When passing empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "pulse")
				So(manager.subsystem, ShouldEqual, "sentiment")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given a manager initialised from deployment options", t, func() {
		registry := Init(
			WithNamespace("hr"),
			WithCustomLabels(map[string]string{"env": "test"}),
			WithMetricsEnabled(false),
		)
		defer Init()

		Convey("When dataset gauges are published while disabled", func() {
			UpdateDatasetGauges(42, 61.5, map[string]int{"Champion": 42})
			RecordHTTPRequest("summary", "GET", "200")

			Convey("Then the new registry should be served and nothing recorded", func() {
				So(GetRegistry(), ShouldEqual, registry)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var loaded *float64
				for _, f := range families {
					if f.GetName() != "hr_sentiment_records_loaded" {
						continue
					}
					m := f.GetMetric()[0]
					So(m.GetLabel(), ShouldHaveLength, 1)
					So(m.GetLabel()[0].GetName(), ShouldEqual, "env")
					So(m.GetLabel()[0].GetValue(), ShouldEqual, "test")
					v := m.GetGauge().GetValue()
					loaded = &v
				}
				So(loaded, ShouldNotBeNil)
				So(*loaded, ShouldEqual, 0)
				So(testutil.ToFloat64(globalManager.httpRequests.WithLabelValues("summary", "GET", "200")), ShouldEqual, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording reloads", func() {
			before := testutil.ToFloat64(globalManager.reloads.WithLabelValues("success"))
			RecordReload("success", 12)
			RecordReload("failed", 3)

			Convey("Then the outcome counter should increase", func() {
				So(testutil.ToFloat64(globalManager.reloads.WithLabelValues("success")), ShouldEqual, before+1)
			})
		})

		Convey("When publishing dataset gauges", func() {
			UpdateDatasetGauges(3, 53.3, map[string]int{"Champion": 1, "AtRisk": 2})

			Convey("Then the gauges should reflect the snapshot", func() {
				So(testutil.ToFloat64(globalManager.recordsLoaded), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.averageSentiment), ShouldEqual, 53.3)
				So(testutil.ToFloat64(globalManager.quadrantRecords.WithLabelValues("AtRisk")), ShouldEqual, 2)
			})
		})

		Convey("When recording a snapshot install", func() {
			at := time.Unix(1700000000, 0)
			RecordSnapshotInstalled(7, at, 0.4)

			Convey("Then generation and timestamp gauges should be set", func() {
				So(testutil.ToFloat64(globalManager.snapshotGeneration), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.snapshotLastUnix), ShouldEqual, 1700000000)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordRecordQuality(2, 1)
					RecordAnalysisRequest("ok")
					RecordAnalysisLatency(120)
					RecordHTTPRequest("summary", "GET", "200")
					RecordHTTPRequestDuration("summary", "GET", "200", 1.5)
					RecordErrorByComponent("source", "unavailable")
					RecordErrorByType("server_error", "high")
					RecordErrorByEndpoint("reload", "POST", "server_error")
					RecordErrorLatency("http", "server_error", 4)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When the registry is requested", func() {
			Convey("Then the custom registry should be returned", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
