package evo

import (
	"github.com/sourcegraph/conc/pool"

	"tspga/internal/chromosome"
)

// scorer decodes and scores chromosomes. Random draws happen before scoring,
// so the worker count cannot change the outcome of a seeded run.
type scorer struct {
	length  LengthFunc
	workers int
}

func (s scorer) score(chromosomes []chromosome.Chromosome) []Individual {
	out := make([]Individual, len(chromosomes))
	if s.workers <= 1 || len(chromosomes) < 2 {
		for i, c := range chromosomes {
			out[i] = NewIndividual(c, s.length)
		}
		return out
	}

	p := pool.New().WithMaxGoroutines(s.workers)
	for i, c := range chromosomes {
		i, c := i, c
		p.Go(func() {
			out[i] = NewIndividual(c, s.length)
		})
	}
	p.Wait()
	return out
}
