package evo

import (
	"fmt"
	"math/rand"

	"tspga/internal/chromosome"
)

// CutPoints draws the two crossover points independently over the
// chromosome index space.
func CutPoints(rng *rand.Rand, n int) (int, int) {
	return rng.Intn(n), rng.Intn(n)
}

// SpanLength is the forward cyclic distance from p0 to p1.
func SpanLength(n, p0, p1 int) int {
	if p0 <= p1 {
		return p1 - p0
	}
	return n - p0 + p1
}

// Crossover swaps a random cyclic span of genes between two parents. Each
// swapped gene is independently replaced, with probability mutationRate, by
// a fresh value valid for its position.
func Crossover(rng *rand.Rand, first, second chromosome.Chromosome, mutationRate float64) (chromosome.Chromosome, chromosome.Chromosome) {
	if len(first) == 0 {
		panic("evo: crossover of empty chromosomes")
	}
	p0, p1 := CutPoints(rng, len(first))
	return CrossoverAt(rng, first, second, p0, p1, mutationRate)
}

// CrossoverAt is Crossover with fixed cut points. The children never share
// memory with the parents. rng is only consulted when mutationRate > 0.
func CrossoverAt(rng *rand.Rand, first, second chromosome.Chromosome, p0, p1 int, mutationRate float64) (chromosome.Chromosome, chromosome.Chromosome) {
	n := len(first)
	if len(second) != n {
		panic(fmt.Sprintf("evo: crossover parents differ in length: %d != %d", n, len(second)))
	}
	if p0 < 0 || p0 >= n || p1 < 0 || p1 >= n {
		panic(fmt.Sprintf("evo: crossover points (%d, %d) out of range for length %d", p0, p1, n))
	}

	childA := first.Clone()
	childB := second.Clone()
	span := SpanLength(n, p0, p1)
	for i := 0; i < span; i++ {
		j := (p0 + i) % n
		childA[j] = second[j]
		if mutationRate > 0 && rng.Float64() < mutationRate {
			childA[j] = rng.Intn(n - j)
		}
		childB[j] = first[j]
		if mutationRate > 0 && rng.Float64() < mutationRate {
			childB[j] = rng.Intn(n - j)
		}
	}
	return childA, childB
}
