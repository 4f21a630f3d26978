// Package world holds the cities a tour visits and the distances between
// them.
package world

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/mat"
)

// World is an immutable set of cities with a precomputed distance matrix.
// It is safe for concurrent use.
type World struct {
	points []orb.Point
	dist   *mat.Dense
}

// GeneratePoints places count cities uniformly in [0, worldSize) on both
// axes.
func GeneratePoints(rng *rand.Rand, count int, worldSize float64) ([]orb.Point, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if count < 1 {
		return nil, fmt.Errorf("city count must be > 0, got %d", count)
	}
	if !(worldSize > 0) {
		return nil, fmt.Errorf("world size must be > 0, got %v", worldSize)
	}

	points := make([]orb.Point, count)
	for i := range points {
		points[i] = orb.Point{rng.Float64() * worldSize, rng.Float64() * worldSize}
	}
	return points, nil
}

func New(points []orb.Point) *World {
	w := &World{points: append([]orb.Point(nil), points...)}
	n := len(points)
	if n == 0 {
		return w
	}

	w.dist = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := planar.Distance(points[i], points[j])
			w.dist.Set(i, j, d)
			w.dist.Set(j, i, d)
		}
	}
	return w
}

func (w *World) Len() int {
	return len(w.points)
}

// Points returns a copy of the cities.
func (w *World) Points() []orb.Point {
	return append([]orb.Point(nil), w.points...)
}

// Bound is the smallest rectangle holding every city.
func (w *World) Bound() orb.Bound {
	return orb.MultiPoint(w.points).Bound()
}

// TourLength is the closed length of tour, wrapping from the last city back
// to the first. A tour that does not cover every city is a programming error
// and panics.
func (w *World) TourLength(tour []int) float64 {
	n := len(w.points)
	if len(tour) != n {
		panic(fmt.Sprintf("world: tour has %d entries, world has %d cities", len(tour), n))
	}
	if n == 0 {
		return 0
	}

	total := 0.0
	for i := 0; i < n; i++ {
		total += w.dist.At(tour[i], tour[(i+1)%n])
	}
	return total
}
