package evo

import (
	"context"
	"fmt"
	"math/rand"

	"tspga/internal/chromosome"
	"tspga/internal/model"
	"tspga/internal/world"
)

type RunResult struct {
	BestByGeneration      []float64
	GenerationDiagnostics []model.GenerationDiagnostics
	FinalPopulation       []Individual
	BestTour              chromosome.Tour
	BestFitness           float64
	BestLength            float64
	Generations           int
	EliteCount            int
	Evaluations           int
}

type MonitorConfig struct {
	Config
	Cities int
	Length LengthFunc
	// OnGeneration, when set, sees the diagnostics of the initial population
	// and of every generation after it.
	OnGeneration func(model.GenerationDiagnostics)
}

// PopulationMonitor drives the generational loop. It owns its random source
// and is not safe for concurrent use.
type PopulationMonitor struct {
	cfg      MonitorConfig
	rng      *rand.Rand
	selector EliteSelector
	scorer   scorer
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Cities <= 0 {
		return nil, fmt.Errorf("city count must be > 0, got %d", cfg.Cities)
	}
	if cfg.Length == nil {
		return nil, fmt.Errorf("tour length function is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &PopulationMonitor{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		scorer: scorer{length: cfg.Length, workers: cfg.Workers},
	}, nil
}

// Run evolves a fresh random population for the configured number of
// generations and returns the best tour of the final population.
func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	eliteCount := m.cfg.EliteCount()
	bestHistory := make([]float64, 0, m.cfg.Generations+1)
	diagnostics := make([]model.GenerationDiagnostics, 0, m.cfg.Generations+1)
	record := func(gen int, population []Individual) {
		diag := summarize(gen, population)
		bestHistory = append(bestHistory, diag.BestFitness)
		diagnostics = append(diagnostics, diag)
		if m.cfg.OnGeneration != nil {
			m.cfg.OnGeneration(diag)
		}
	}

	population := m.initialPopulation()
	evaluations := len(population)
	SortPopulation(population)
	record(0, population)

	for gen := 1; gen <= m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		next, scored, err := m.nextGeneration(population, eliteCount)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		population = next
		evaluations += scored
		record(gen, population)
	}

	best := population[0]
	tour := best.Tour()
	return RunResult{
		BestByGeneration:      bestHistory,
		GenerationDiagnostics: diagnostics,
		FinalPopulation:       population,
		BestTour:              tour,
		BestFitness:           best.Fitness,
		BestLength:            m.cfg.Length(tour),
		Generations:           m.cfg.Generations,
		EliteCount:            eliteCount,
		Evaluations:           evaluations,
	}, nil
}

func (m *PopulationMonitor) initialPopulation() []Individual {
	chromosomes := make([]chromosome.Chromosome, m.cfg.PoolSize)
	for i := range chromosomes {
		chromosomes[i] = chromosome.Random(m.rng, m.cfg.Cities)
	}
	return m.scorer.score(chromosomes)
}

// nextGeneration keeps the elites of a best-first population and refills the
// pool with crossover children. The pool is truncated to exactly PoolSize,
// dropping the second child of the last pair when the gap is odd.
func (m *PopulationMonitor) nextGeneration(population []Individual, eliteCount int) ([]Individual, int, error) {
	poolSize := m.cfg.PoolSize
	next := make([]Individual, eliteCount, poolSize+1)
	copy(next, population[:eliteCount])

	missing := poolSize - eliteCount
	pending := make([]chromosome.Chromosome, 0, missing+1)
	for len(pending) < missing {
		i, j, err := m.selector.PickParents(m.rng, eliteCount)
		if err != nil {
			return nil, 0, err
		}
		childA, childB := Crossover(m.rng, next[i].Chromosome, next[j].Chromosome, m.cfg.MutationRate)
		pending = append(pending, childA, childB)
	}
	pending = pending[:missing]

	next = append(next, m.scorer.score(pending)...)
	SortPopulation(next)
	return next, len(pending), nil
}

// Solve runs the evolution over the cities of w.
func Solve(ctx context.Context, w *world.World, cfg Config) (RunResult, error) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Config: cfg,
		Cities: w.Len(),
		Length: func(tour chromosome.Tour) float64 { return w.TourLength(tour) },
	})
	if err != nil {
		return RunResult{}, err
	}
	return monitor.Run(ctx)
}
