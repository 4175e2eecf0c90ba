// Copyright 2025 James Ross
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PluginsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plugins_loaded",
		Help: "Number of plugins currently held by the manager",
	})
	PluginLoadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plugin_load_failures_total",
		Help: "Total number of plugin load attempts that failed",
	})
	SchedulerPasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_passes_total",
		Help: "Total number of scheduler single-pass invocations, by trigger kind",
	}, []string{"trigger"})
	FrameAdvanceWaits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "frame_advance_waits_total",
		Help: "Total number of times a plugin worker parked inside frame-advance",
	})
	MainLoopPasses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "main_loop_passes_total",
		Help: "Total number of completed plugin main-loop passes",
	})
	TeardownsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plugin_teardowns_total",
		Help: "Total number of plugins unloaded and torn down",
	})
	PacerTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pacer_ticks_total",
		Help: "Total number of pacing-thread ticks",
	})
)

func init() {
	prometheus.MustRegister(
		PluginsLoaded,
		PluginLoadFailures,
		SchedulerPasses,
		FrameAdvanceWaits,
		MainLoopPasses,
		TeardownsCompleted,
		PacerTicks,
	)
}
