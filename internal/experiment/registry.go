package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/metrics"
)

type Registry struct {
	metrics map[string]func() epidemic.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() epidemic.Metric),
	}

	r.metrics["peak_infected"] = func() epidemic.Metric { return metrics.NewPeakInfected() }
	r.metrics["time_to_peak"] = func() epidemic.Metric { return metrics.NewTimeToPeak() }
	r.metrics["attack_rate"] = func() epidemic.Metric { return metrics.NewAttackRate() }
	r.metrics["epidemic_duration"] = func() epidemic.Metric { return metrics.NewEpidemicDuration() }
	r.metrics["peak_quarantined"] = func() epidemic.Metric { return metrics.NewPeakQuarantined() }

	return r
}

func (r *Registry) GetMetric(name string) (epidemic.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []epidemic.Metric {
	names := r.ListMetrics()
	out := make([]epidemic.Metric, 0, len(names))
	for _, name := range names {
		out = append(out, r.metrics[name]())
	}
	return out
}
