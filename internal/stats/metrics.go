package stats

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics are the figures exported for a finished run.
type RunMetrics struct {
	RunID          string
	Generations    int
	Evaluations    int
	BestLength     float64
	BestFitness    float64
	BaselineLength float64
}

// WriteMetricsFile writes m in the Prometheus text exposition format, for a
// node exporter textfile collector or any scraper that reads files.
func WriteMetricsFile(path string, m RunMetrics) error {
	if m.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	registry := prometheus.NewRegistry()
	gauge := func(name, help string, value float64) error {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tspga",
			Name:      name,
			Help:      help,
		}, []string{"run_id"})
		if err := registry.Register(g); err != nil {
			return err
		}
		g.With(prometheus.Labels{"run_id": m.RunID}).Set(value)
		return nil
	}

	for _, metric := range []struct {
		name, help string
		value      float64
	}{
		{"generations", "Generations evolved after the initial population.", float64(m.Generations)},
		{"evaluations", "Chromosomes decoded and scored.", float64(m.Evaluations)},
		{"best_length", "Length of the best tour found.", m.BestLength},
		{"best_fitness", "Fitness of the best tour found.", m.BestFitness},
		{"baseline_length", "Length of the nearest-neighbour tour.", m.BaselineLength},
	} {
		if err := gauge(metric.name, metric.help, metric.value); err != nil {
			return err
		}
	}

	return prometheus.WriteToTextfile(path, registry)
}
