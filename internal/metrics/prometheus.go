package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the supervised child's lifecycle. Only supervise mode
// registers these; in exec mode the launcher's process image is gone before
// anything could scrape it.
type Metrics struct {
	buildInfo      *prometheus.GaugeVec
	childUp        prometheus.Gauge
	childStartTime prometheus.Gauge
	childPID       prometheus.Gauge
	childExitCode  prometheus.Gauge
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "restlauncher"
	}

	m := &Metrics{
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the launcher",
		}, []string{"version"}),
		childUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "child_up",
			Help:      "Whether the supervised tool process is running (1) or not (0)",
		}),
		childStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "child_start_timestamp",
			Help:      "Unix timestamp at which the tool process was started",
		}),
		childPID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "child_pid",
			Help:      "PID of the supervised tool process",
		}),
		childExitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "child_exit_code",
			Help:      "Exit code of the tool process once it has exited",
		}),
	}

	prometheus.MustRegister(
		m.buildInfo,
		m.childUp,
		m.childStartTime,
		m.childPID,
		m.childExitCode,
	)

	return m
}

func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}

func (m *Metrics) RecordChildStart(pid int) {
	m.childUp.Set(1)
	m.childStartTime.SetToCurrentTime()
	m.childPID.Set(float64(pid))
}

func (m *Metrics) RecordChildExit(code int) {
	m.childUp.Set(0)
	m.childExitCode.Set(float64(code))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
