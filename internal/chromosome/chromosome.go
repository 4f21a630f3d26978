// Package chromosome implements the inversion-table encoding of tours.
//
// A Tour is a permutation of 0..n-1. Its Chromosome holds, at position i,
// the number of values greater than i that appear before i in the tour, so
// position i always lies in [0, n-i). Every chromosome that satisfies that
// range decodes to a valid tour, which lets crossover and mutation work gene
// by gene without a repair step.
package chromosome

import (
	"fmt"
	"math/rand"
)

// Tour is a closed visiting order over city indices.
type Tour []int

// Chromosome is the inversion-table encoding of a Tour.
type Chromosome []int

// Encode returns the chromosome of tour. It panics on an empty or malformed
// tour.
func Encode(tour Tour) Chromosome {
	if err := ValidTour(tour); err != nil {
		panic(fmt.Sprintf("chromosome: encode: %v", err))
	}

	n := len(tour)
	out := make(Chromosome, n)
	for target := 0; target < n; target++ {
		count := 0
		for _, v := range tour {
			if v == target {
				break
			}
			if v > target {
				count++
			}
		}
		out[target] = count
	}
	return out
}

// Decode returns the tour encoded by c. It panics on an empty chromosome or
// a gene outside its positional range.
func Decode(c Chromosome) Tour {
	if err := Validate(c); err != nil {
		panic(fmt.Sprintf("chromosome: decode: %v", err))
	}

	n := len(c)
	// pos[v] is the slot of value v among the values >= v placed so far.
	pos := make([]int, n)
	for v := n - 1; v >= 0; v-- {
		for m := v + 1; m < n; m++ {
			if pos[m] >= c[v] {
				pos[m]++
			}
		}
		pos[v] = c[v]
	}

	tour := make(Tour, n)
	for v, p := range pos {
		tour[p] = v
	}
	return tour
}

// Random draws a chromosome with gene i uniform in [0, n-i). Under the
// encoding this is a uniformly random tour.
func Random(rng *rand.Rand, n int) Chromosome {
	if n <= 0 {
		panic(fmt.Sprintf("chromosome: random length must be > 0, got %d", n))
	}
	c := make(Chromosome, n)
	for i := range c {
		c[i] = rng.Intn(n - i)
	}
	return c
}

// Validate reports whether c is a non-empty chromosome with every gene in
// range.
func Validate(c Chromosome) error {
	if len(c) == 0 {
		return fmt.Errorf("empty chromosome")
	}
	n := len(c)
	for i, v := range c {
		if v < 0 || v >= n-i {
			return fmt.Errorf("gene %d out of range: %d not in [0, %d)", i, v, n-i)
		}
	}
	return nil
}

// ValidTour reports whether t is a non-empty permutation of 0..len(t)-1.
func ValidTour(t Tour) error {
	if len(t) == 0 {
		return fmt.Errorf("empty tour")
	}
	seen := make([]bool, len(t))
	for i, v := range t {
		if v < 0 || v >= len(t) {
			return fmt.Errorf("tour entry %d out of range: %d", i, v)
		}
		if seen[v] {
			return fmt.Errorf("tour visits %d twice", v)
		}
		seen[v] = true
	}
	return nil
}

func (c Chromosome) Clone() Chromosome {
	return append(Chromosome(nil), c...)
}

func (t Tour) Clone() Tour {
	return append(Tour(nil), t...)
}
