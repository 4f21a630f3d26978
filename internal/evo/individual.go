package evo

import (
	"math"
	"math/rand"
	"sort"

	"tspga/internal/chromosome"
)

// LengthFunc returns the closed length of a tour. It must be safe for
// concurrent use when scoring with more than one worker.
type LengthFunc func(tour chromosome.Tour) float64

// Individual is a chromosome with its derived fitness. Fitness is only ever
// set by NewIndividual.
type Individual struct {
	Chromosome chromosome.Chromosome
	Fitness    float64
}

// Fitness is 1/length. A zero-length tour is the best possible and scores
// +Inf.
func Fitness(length float64) float64 {
	if length <= 0 {
		return math.Inf(1)
	}
	return 1 / length
}

func NewIndividual(c chromosome.Chromosome, length LengthFunc) Individual {
	owned := c.Clone()
	return Individual{
		Chromosome: owned,
		Fitness:    Fitness(length(chromosome.Decode(owned))),
	}
}

func RandomIndividual(rng *rand.Rand, cities int, length LengthFunc) Individual {
	return NewIndividual(chromosome.Random(rng, cities), length)
}

func (ind Individual) Tour() chromosome.Tour {
	return chromosome.Decode(ind.Chromosome)
}

// Length recovers the tour length from the fitness.
func (ind Individual) Length() float64 {
	if math.IsInf(ind.Fitness, 1) {
		return 0
	}
	return 1 / ind.Fitness
}

// Better orders individuals best first.
func Better(a, b Individual) bool {
	return a.Fitness > b.Fitness
}

// SortPopulation sorts best first; equal fitness keeps insertion order.
func SortPopulation(population []Individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return Better(population[i], population[j])
	})
}

// ReportableFitness maps +Inf to the largest finite float so histories stay
// JSON encodable. Ordering is preserved.
func ReportableFitness(f float64) float64 {
	if math.IsInf(f, 1) {
		return math.MaxFloat64
	}
	return f
}
