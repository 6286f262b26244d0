package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/hemosim/dialysis"
)

type metrics struct {
	registry *prometheus.Registry

	pressure   prometheus.Gauge
	flowRate   prometheus.Gauge
	oxygen     prometheus.Gauge
	adjustment *prometheus.GaugeVec
	errorSum   *prometheus.GaugeVec
	cycles     prometheus.Counter
	leak       prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hemosim",
			Name:      "blood_pressure_mmhg",
			Help:      "Blood pressure at the end of the last cycle.",
		}),
		flowRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hemosim",
			Name:      "blood_flow_rate_ml_per_min",
			Help:      "Blood flow rate at the end of the last cycle.",
		}),
		oxygen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hemosim",
			Name:      "oxygen_saturation_percent",
			Help:      "Oxygen saturation at the end of the last cycle.",
		}),
		adjustment: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hemosim",
			Name:      "controller_adjustment",
			Help:      "Last adjustment issued by each controller.",
		}, []string{"controller"}),
		errorSum: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hemosim",
			Name:      "controller_error_sum",
			Help:      "Accumulated error of each controller.",
		}, []string{"controller"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hemosim",
			Name:      "cycles_total",
			Help:      "Number of control cycles run.",
		}),
		leak: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hemosim",
			Name:      "leak_detected",
			Help:      "1 once a blood leak stopped the machine.",
		}),
	}

	m.registry.MustRegister(
		m.pressure, m.flowRate, m.oxygen,
		m.adjustment, m.errorSum,
		m.cycles, m.leak,
	)

	return m
}

func (m *metrics) observeCycle(
	s dialysis.CycleSnapshot,
	controllers []dialysis.ControllerStatus,
) {
	m.cycles.Inc()
	m.pressure.Set(s.Pressure)
	m.flowRate.Set(s.FlowRate)
	m.oxygen.Set(s.OxygenSaturation)

	adjustments := []float64{
		s.UltrafiltrationAdjustment,
		s.PumpAdjustment,
		s.OxygenAdjustment,
	}
	for i, c := range controllers {
		if i < len(adjustments) {
			m.adjustment.WithLabelValues(c.Name).Set(adjustments[i])
		}

		m.errorSum.WithLabelValues(c.Name).Set(c.State.ErrorSum)
	}

	if s.Leak {
		m.leak.Set(1)
	}
}
