package metrics

import (
	"errors"
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

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithScoreBuckets([]float64{50, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.attemptsReceived.Inc()

			Convey("Then its metrics are registered with the chosen names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_attempts_received_total"], ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When attempts flow through the pipeline", func() {
			before := value(globalManager.attemptsScored)
			RecordAttemptReceived()
			RecordAttemptScored(87.5)

			Convey("Then the counters move", func() {
				So(value(globalManager.attemptsScored), ShouldEqual, before+1)
			})
		})

		Convey("When a known component is recorded", func() {
			So(RecordScoreComponent(ComponentHull, 40), ShouldBeNil)
		})

		Convey("When an unknown component is recorded", func() {
			err := RecordScoreComponent("texture", 40)
			So(errors.Is(err, ErrUnknownComponent), ShouldBeTrue)
		})

		Convey("When gauges are updated", func() {
			UpdatePromptsTotal(7)
			UpdateQueueCapacity(100)
			UpdateQueueSize(25)
			UpdateQueueUtilization(0.25)
			UpdateResultCacheSize(3)

			So(value(globalManager.promptsTotal), ShouldEqual, 7)
			So(value(globalManager.queueSize), ShouldEqual, 25)
			So(value(globalManager.queueUtilization), ShouldEqual, 0.25)
			So(value(globalManager.resultCacheSize), ShouldEqual, 3)
		})

		Convey("When the prepared cache is consulted", func() {
			hits := value(globalManager.preparedCache.WithLabelValues("hit"))
			RecordPreparedCacheLookup(true)
			RecordPreparedCacheLookup(false)
			So(value(globalManager.preparedCache.WithLabelValues("hit")), ShouldEqual, hits+1)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
